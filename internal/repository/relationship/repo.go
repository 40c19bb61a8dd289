// Package relationship stores the undirected social graph as hashes plus per-person adjacency sets.
package relationship

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/serendip/internal/db"
	"github.com/kailas-cloud/serendip/internal/domain"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

// store is the consumer interface for relationships (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	Exec(ctx context.Context, ops []db.WriteOp) error
}

// Repo implements usecase/graph.Repository.
type Repo struct {
	store store
}

// New creates a relationship repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores the relationship and both adjacency entries in one transaction.
func (r *Repo) Create(ctx context.Context, rel domrel.Relationship) error {
	ops := []db.WriteOp{
		db.HSetOp(relKey(rel.ID()), relationshipToHash(&rel)),
		db.SAddOp(adjacencyKey(rel.PersonA()), rel.ID()),
		db.SAddOp(adjacencyKey(rel.PersonB()), rel.ID()),
	}
	if err := r.store.Exec(ctx, ops); err != nil {
		return fmt.Errorf("create relationship %s: %w", rel.ID(), err)
	}
	return nil
}

// ListByPerson returns every relationship touching personID, oldest first.
// Dangling adjacency entries are skipped.
func (r *Repo) ListByPerson(ctx context.Context, personID string) ([]domrel.Relationship, error) {
	ids, err := r.store.SMembers(ctx, adjacencyKey(personID))
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", personID, err)
	}
	if len(ids) == 0 {
		return []domrel.Relationship{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = relKey(id)
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi relationships: %w", err)
	}

	rels := make([]domrel.Relationship, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		rel, err := relationshipFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse relationship %s: %w", ids[i], err)
		}
		rels = append(rels, rel)
	}

	// SMEMBERS order is unspecified
	sort.Slice(rels, func(i, j int) bool {
		if !rels[i].CreatedAt().Equal(rels[j].CreatedAt()) {
			return rels[i].CreatedAt().Before(rels[j].CreatedAt())
		}
		return rels[i].ID() < rels[j].ID()
	})
	return rels, nil
}

// Valkey key patterns: serendip:rel:{id}, serendip:rels:{personID}

func relKey(id string) string {
	return domain.KeyPrefix + "rel:" + id
}

func adjacencyKey(personID string) string {
	return domain.KeyPrefix + "rels:" + personID
}
