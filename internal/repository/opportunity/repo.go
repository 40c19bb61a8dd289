// Package opportunity persists posted opportunities and their creation-time index.
package opportunity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/serendip/internal/db"
	"github.com/kailas-cloud/serendip/internal/domain"
	domopp "github.com/kailas-cloud/serendip/internal/domain/opportunity"
)

// store is the consumer interface for opportunities (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	ZRange(ctx context.Context, key string) ([]string, error)
	Exec(ctx context.Context, ops []db.WriteOp) error
}

// Repo implements usecase/opportunity.Repository.
type Repo struct {
	store store
}

// New creates an opportunity repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a new opportunity. Opportunities are immutable, so an existing id is rejected.
func (r *Repo) Create(ctx context.Context, opp domopp.Opportunity) error {
	key := opportunityKey(opp.ID())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	fields := map[string]string{
		"id":          opp.ID(),
		"title":       opp.Title(),
		"description": opp.Description(),
		"type":        opp.Type().String(),
		"posted_by":   opp.PostedBy(),
		"created_at":  strconv.FormatInt(opp.CreatedAt().UnixMilli(), 10),
	}
	ops := []db.WriteOp{
		db.HSetOp(key, fields),
		db.ZAddOp(allKey, float64(opp.CreatedAt().UnixMilli()), opp.ID()),
	}
	if err := r.store.Exec(ctx, ops); err != nil {
		return fmt.Errorf("create opportunity %s: %w", opp.ID(), err)
	}
	return nil
}

// Get retrieves an opportunity by id.
func (r *Repo) Get(ctx context.Context, id string) (domopp.Opportunity, error) {
	m, err := r.store.HGetAll(ctx, opportunityKey(id))
	if err != nil {
		return domopp.Opportunity{}, fmt.Errorf("hgetall opportunity %s: %w", id, err)
	}
	if len(m) == 0 {
		return domopp.Opportunity{}, domain.ErrOpportunityNotFound
	}

	return opportunityFromHash(m)
}

// List returns every opportunity, newest first.
func (r *Repo) List(ctx context.Context) ([]domopp.Opportunity, error) {
	ids, err := r.store.ZRange(ctx, allKey)
	if err != nil {
		return nil, fmt.Errorf("zrange opportunities: %w", err)
	}
	if len(ids) == 0 {
		return []domopp.Opportunity{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		// ZRANGE is oldest first.
		keys[len(ids)-1-i] = opportunityKey(id)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi opportunities: %w", err)
	}

	opps := make([]domopp.Opportunity, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		opp, err := opportunityFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse opportunity %s: %w", keys[i], err)
		}
		opps = append(opps, opp)
	}
	return opps, nil
}

func opportunityFromHash(m map[string]string) (domopp.Opportunity, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domopp.Opportunity{}, fmt.Errorf("invalid created_at: %w", err)
	}
	return domopp.Reconstruct(
		m["id"], m["title"], m["description"],
		domopp.Type(m["type"]), m["posted_by"],
		time.UnixMilli(createdAt).UTC(),
	), nil
}

// Valkey key patterns: serendip:opportunity:{id}, serendip:opportunities (zset by created_at)

const allKey = domain.KeyPrefix + "opportunities"

func opportunityKey(id string) string {
	return domain.KeyPrefix + "opportunity:" + id
}
