// Package match persists match records and the per-opportunity rank ordering.
package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/serendip/internal/db"
	"github.com/kailas-cloud/serendip/internal/domain"
	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
)

// store is the consumer interface for matches (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	ZRange(ctx context.Context, key string) ([]string, error)
	Exec(ctx context.Context, ops []db.WriteOp) error
}

// Repo implements usecase/matching.Repository.
type Repo struct {
	store store
}

// New creates a match repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// CreateBatch writes all matches in a single MULTI/EXEC. Either every record
// and its rank entry lands, or the call fails.
func (r *Repo) CreateBatch(ctx context.Context, matches []dommatch.Match) error {
	if len(matches) == 0 {
		return nil
	}

	ops := make([]db.WriteOp, 0, len(matches)*2)
	for i := range matches {
		m := &matches[i]
		ops = append(ops,
			db.HSetOp(matchKey(m.ID()), matchToHash(m)),
			db.ZAddOp(rankingKey(m.OpportunityID()), float64(m.Rank()), m.ID()),
		)
	}

	if err := r.store.Exec(ctx, ops); err != nil {
		return fmt.Errorf("persist %d matches: %w", len(matches), err)
	}
	return nil
}

// ListByOpportunity returns the stored matches for an opportunity, one
// matching run after another (oldest first), each run ordered by rank.
func (r *Repo) ListByOpportunity(ctx context.Context, opportunityID string) ([]dommatch.Match, error) {
	ids, err := r.store.ZRange(ctx, rankingKey(opportunityID))
	if err != nil {
		return nil, fmt.Errorf("zrange %s: %w", opportunityID, err)
	}
	if len(ids) == 0 {
		return []dommatch.Match{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = matchKey(id)
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi matches: %w", err)
	}

	matches := make([]dommatch.Match, 0, len(results))
	for i, h := range results {
		if len(h) == 0 {
			continue
		}
		m, err := matchFromHash(h)
		if err != nil {
			return nil, fmt.Errorf("parse match %s: %w", ids[i], err)
		}
		matches = append(matches, m)
	}

	// Every match of one run shares its created_at.
	sort.SliceStable(matches, func(i, j int) bool {
		ci, cj := matches[i].CreatedAt(), matches[j].CreatedAt()
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return matches[i].Rank() < matches[j].Rank()
	})
	return matches, nil
}

// Valkey key patterns: serendip:match:{id}, serendip:opportunity:{id}:matches

func matchKey(id string) string {
	return domain.KeyPrefix + "match:" + id
}

func rankingKey(opportunityID string) string {
	return domain.KeyPrefix + "opportunity:" + opportunityID + ":matches"
}
