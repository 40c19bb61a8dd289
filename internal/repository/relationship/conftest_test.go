package relationship

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/serendip/internal/db"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	smembersFn     func(ctx context.Context, key string) ([]string, error)
	execFn         func(ctx context.Context, ops []db.WriteOp) error
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) Exec(ctx context.Context, ops []db.WriteOp) error {
	if m.execFn != nil {
		return m.execFn(ctx, ops)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testRelationship(t *testing.T, id, a, b string, at time.Time) domrel.Relationship {
	t.Helper()
	return domrel.Reconstruct(id, a, b, domrel.SourceSeed, 1, at)
}
