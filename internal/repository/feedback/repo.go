// Package feedback stores person-to-person feedback and the per-subject index.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kailas-cloud/serendip/internal/db"
	"github.com/kailas-cloud/serendip/internal/domain"
	domfb "github.com/kailas-cloud/serendip/internal/domain/feedback"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
)

// store is the consumer interface for feedback (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	Exec(ctx context.Context, ops []db.WriteOp) error
}

// Repo implements usecase/impression.FeedbackRepository.
type Repo struct {
	store store
}

// New creates a feedback repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores the feedback and indexes it under its subject atomically.
func (r *Repo) Create(ctx context.Context, fb domfb.Feedback) error {
	ops := []db.WriteOp{
		db.HSetOp(feedbackKey(fb.ID()), map[string]string{
			"id":         fb.ID(),
			"from_id":    fb.FromID(),
			"to_id":      fb.ToID(),
			"context":    fb.Context().String(),
			"text":       fb.Text(),
			"created_at": strconv.FormatInt(fb.CreatedAt().UnixMilli(), 10),
		}),
		db.SAddOp(subjectKey(fb.ToID()), fb.ID()),
	}
	if err := r.store.Exec(ctx, ops); err != nil {
		return fmt.Errorf("create feedback %s: %w", fb.ID(), err)
	}
	return nil
}

// ListForPerson returns feedback about personID, oldest first.
func (r *Repo) ListForPerson(ctx context.Context, personID string) ([]domfb.Feedback, error) {
	ids, err := r.store.SMembers(ctx, subjectKey(personID))
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", personID, err)
	}
	if len(ids) == 0 {
		return []domfb.Feedback{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = feedbackKey(id)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi feedback: %w", err)
	}

	items := make([]domfb.Feedback, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse feedback %s: invalid created_at: %w", ids[i], err)
		}
		items = append(items, domfb.Reconstruct(
			m["id"], m["from_id"], m["to_id"],
			opportunity.Type(m["context"]), m["text"],
			time.UnixMilli(createdAt).UTC(),
		))
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt().Equal(items[j].CreatedAt()) {
			return items[i].CreatedAt().Before(items[j].CreatedAt())
		}
		return items[i].ID() < items[j].ID()
	})
	return items, nil
}

// Valkey key patterns: serendip:feedback:{id}, serendip:feedback_about:{personID}

func feedbackKey(id string) string {
	return domain.KeyPrefix + "feedback:" + id
}

func subjectKey(personID string) string {
	return domain.KeyPrefix + "feedback_about:" + personID
}
