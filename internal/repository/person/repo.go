// Package person persists profiles with their embedding and runs KNN over them.
package person

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/serendip/internal/db"
	"github.com/kailas-cloud/serendip/internal/domain"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

// store is the consumer interface for profiles (ISP).
//
//nolint:interfacebloat // profile repo needs hash + index + search operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements usecase/profile.Repository.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a profile repository for vectors of the given dimension.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the profile vector index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(IndexName).
		Prefix(personPrefix).
		Tag(fieldOpenTo, tagSeparator).
		VectorHNSW(fieldVector, r.vectorDim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}
	return nil
}

// Upsert stores the profile and its embedding in a single hash.
func (r *Repo) Upsert(ctx context.Context, p domperson.Person, vector []float32) error {
	if len(vector) != r.vectorDim {
		return fmt.Errorf("got %d dimensions, want %d: %w", len(vector), r.vectorDim, domain.ErrVectorDimMismatch)
	}
	fields, err := personToHash(&p, vector)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, personKey(p.ID()), fields); err != nil {
		return fmt.Errorf("hset person %s: %w", p.ID(), err)
	}
	if err := r.store.SAdd(ctx, directoryKey, p.ID()); err != nil {
		return fmt.Errorf("sadd directory %s: %w", p.ID(), err)
	}
	return nil
}

// Get retrieves a profile by id.
func (r *Repo) Get(ctx context.Context, id string) (domperson.Person, error) {
	m, err := r.store.HGetAll(ctx, personKey(id))
	if err != nil {
		return domperson.Person{}, fmt.Errorf("hgetall person %s: %w", id, err)
	}
	if len(m) == 0 {
		return domperson.Person{}, domain.ErrPersonNotFound
	}
	return personFromHash(m)
}

// GetMany retrieves profiles in input order; missing ids are skipped.
func (r *Repo) GetMany(ctx context.Context, ids []string) ([]domperson.Person, error) {
	if len(ids) == 0 {
		return []domperson.Person{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = personKey(id)
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi persons: %w", err)
	}

	persons := make([]domperson.Person, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		p, err := personFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse person %s: %w", ids[i], err)
		}
		persons = append(persons, p)
	}
	return persons, nil
}

// Delete removes a profile and, with it, its vector from the index.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := personKey(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrPersonNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del person %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, directoryKey, id); err != nil {
		return fmt.Errorf("srem directory %s: %w", id, err)
	}
	return nil
}

// List returns every stored profile ordered by name, then id.
func (r *Repo) List(ctx context.Context) ([]domperson.Person, error) {
	ids, err := r.store.SMembers(ctx, directoryKey)
	if err != nil {
		return nil, fmt.Errorf("smembers directory: %w", err)
	}
	persons, err := r.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(persons, func(i, j int) bool {
		if persons[i].Name() != persons[j].Name() {
			return persons[i].Name() < persons[j].Name()
		}
		return persons[i].ID() < persons[j].ID()
	})
	return persons, nil
}

// Search returns up to k nearest profiles by cosine similarity, best first.
// Scores are 1 - cosine distance and are not clamped here.
func (r *Repo) Search(ctx context.Context, vector []float32, k int) ([]domperson.Neighbor, error) {
	if k <= 0 {
		return []domperson.Neighbor{}, nil
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		VectorField:  fieldVector,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldID},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return []domperson.Neighbor{}, nil
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	neighbors := make([]domperson.Neighbor, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := e.Fields[fieldID]
		if id == "" {
			id = strings.TrimPrefix(e.Key, personPrefix)
		}
		neighbors = append(neighbors, domperson.Neighbor{PersonID: id, Score: e.Score})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Score > neighbors[j].Score
	})
	return neighbors, nil
}

// Valkey key patterns: serendip:person:{id}, serendip:persons (directory set), index serendip:person_idx

// IndexName is the FT index over profile hashes.
const IndexName = domain.KeyPrefix + "person_idx"

const (
	personPrefix = domain.KeyPrefix + "person:"
	directoryKey = domain.KeyPrefix + "persons"
)

func personKey(id string) string {
	return personPrefix + id
}
