// Package connectionrequest stores connection requests with their incoming,
// outgoing and per-opportunity indexes.
package connectionrequest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kailas-cloud/serendip/internal/db"
	"github.com/kailas-cloud/serendip/internal/domain"
	domreq "github.com/kailas-cloud/serendip/internal/domain/connectionrequest"
)

// store is the consumer interface for connection requests (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	Exec(ctx context.Context, ops []db.WriteOp) error
}

// Repo implements usecase/connectionrequest.Repository.
type Repo struct {
	store store
}

// New creates a connection request repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores the request and all of its indexes atomically.
func (r *Repo) Create(ctx context.Context, req domreq.Request) error {
	ops := []db.WriteOp{
		db.HSetOp(requestKey(req.ID()), map[string]string{
			"id":             req.ID(),
			"from_id":        req.FromID(),
			"to_id":          req.ToID(),
			"opportunity_id": req.OpportunityID(),
			"match_id":       req.MatchID(),
			"status":         string(req.Status()),
			"created_at":     strconv.FormatInt(req.CreatedAt().UnixMilli(), 10),
		}),
		db.SAddOp(incomingKey(req.ToID()), req.ID()),
		db.SAddOp(outgoingKey(req.FromID()), req.ID()),
	}
	if req.OpportunityID() != "" {
		ops = append(ops, db.SAddOp(opportunityKey(req.OpportunityID()), req.ID()))
	}
	if err := r.store.Exec(ctx, ops); err != nil {
		return fmt.Errorf("create connection request %s: %w", req.ID(), err)
	}
	return nil
}

// Get retrieves a request by id.
func (r *Repo) Get(ctx context.Context, id string) (domreq.Request, error) {
	m, err := r.store.HGetAll(ctx, requestKey(id))
	if err != nil {
		return domreq.Request{}, fmt.Errorf("hgetall connection request %s: %w", id, err)
	}
	if len(m) == 0 {
		return domreq.Request{}, domain.ErrConnectionRequestNotFound
	}
	return requestFromHash(m)
}

// UpdateStatus persists the request's current status.
func (r *Repo) UpdateStatus(ctx context.Context, req domreq.Request) error {
	if err := r.store.HSet(ctx, requestKey(req.ID()), map[string]string{"status": string(req.Status())}); err != nil {
		return fmt.Errorf("update connection request %s: %w", req.ID(), err)
	}
	return nil
}

// ListIncoming returns requests addressed to personID, newest first.
func (r *Repo) ListIncoming(ctx context.Context, personID string) ([]domreq.Request, error) {
	return r.list(ctx, incomingKey(personID))
}

// ListOutgoing returns requests raised by personID, newest first.
func (r *Repo) ListOutgoing(ctx context.Context, personID string) ([]domreq.Request, error) {
	return r.list(ctx, outgoingKey(personID))
}

// ListByOpportunity returns requests raised from opportunityID, newest first.
func (r *Repo) ListByOpportunity(ctx context.Context, opportunityID string) ([]domreq.Request, error) {
	return r.list(ctx, opportunityKey(opportunityID))
}

func (r *Repo) list(ctx context.Context, indexKey string) ([]domreq.Request, error) {
	ids, err := r.store.SMembers(ctx, indexKey)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", indexKey, err)
	}
	if len(ids) == 0 {
		return []domreq.Request{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = requestKey(id)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi connection requests: %w", err)
	}

	items := make([]domreq.Request, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		req, err := requestFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse connection request %s: %w", ids[i], err)
		}
		items = append(items, req)
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt().Equal(items[j].CreatedAt()) {
			return items[i].CreatedAt().After(items[j].CreatedAt())
		}
		return items[i].ID() < items[j].ID()
	})
	return items, nil
}

func requestFromHash(m map[string]string) (domreq.Request, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domreq.Request{}, fmt.Errorf("invalid created_at: %w", err)
	}
	return domreq.Reconstruct(
		m["id"], m["from_id"], m["to_id"], m["opportunity_id"], m["match_id"],
		domreq.Status(m["status"]), time.UnixMilli(createdAt).UTC(),
	), nil
}

// Valkey key patterns: serendip:connection_request:{id},
// serendip:connection_requests_to:{personID}, serendip:connection_requests_from:{personID},
// serendip:connection_requests_for:{opportunityID}

func requestKey(id string) string {
	return domain.KeyPrefix + "connection_request:" + id
}

func incomingKey(personID string) string {
	return domain.KeyPrefix + "connection_requests_to:" + personID
}

func outgoingKey(personID string) string {
	return domain.KeyPrefix + "connection_requests_from:" + personID
}

func opportunityKey(opportunityID string) string {
	return domain.KeyPrefix + "connection_requests_for:" + opportunityID
}
