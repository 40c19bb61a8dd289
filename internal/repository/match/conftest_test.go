package match

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/serendip/internal/db"
	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	zrangeFn       func(ctx context.Context, key string) ([]string, error)
	execFn         func(ctx context.Context, ops []db.WriteOp) error
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) ZRange(ctx context.Context, key string) ([]string, error) {
	if m.zrangeFn != nil {
		return m.zrangeFn(ctx, key)
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

func testMatch(t *testing.T, id, personID string, rank int) dommatch.Match {
	t.Helper()
	return dommatch.Reconstruct(id, "opp-1", personID, 0.8, 0.65, 0.15, "Strong Go background", rank, testNow)
}
