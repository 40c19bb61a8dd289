package profile

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

// mockRepo implements Repository with function fields.
type mockRepo struct {
	upsertFn      func(ctx context.Context, p domperson.Person, vector []float32) error
	getFn         func(ctx context.Context, id string) (domperson.Person, error)
	getManyFn     func(ctx context.Context, ids []string) ([]domperson.Person, error)
	listFn        func(ctx context.Context) ([]domperson.Person, error)
	deleteFn      func(ctx context.Context, id string) error
	searchFn      func(ctx context.Context, vector []float32, k int) ([]domperson.Neighbor, error)
	ensureIndexFn func(ctx context.Context) error
}

func (m *mockRepo) Upsert(ctx context.Context, p domperson.Person, vector []float32) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, p, vector)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domperson.Person, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domperson.Person{}, domain.ErrPersonNotFound
}

func (m *mockRepo) GetMany(ctx context.Context, ids []string) ([]domperson.Person, error) {
	if m.getManyFn != nil {
		return m.getManyFn(ctx, ids)
	}
	return []domperson.Person{}, nil
}

func (m *mockRepo) List(ctx context.Context) ([]domperson.Person, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []domperson.Person{}, nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) Search(ctx context.Context, vector []float32, k int) ([]domperson.Neighbor, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, vector, k)
	}
	return []domperson.Neighbor{}, nil
}

func (m *mockRepo) EnsureIndex(ctx context.Context) error {
	if m.ensureIndexFn != nil {
		return m.ensureIndexFn(ctx)
	}
	return nil
}

// recordingEmbedder returns a fixed vector and records inputs.
type recordingEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (e *recordingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.texts = append(e.texts, text)
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: e.vector, TotalTokens: 3}, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *recordingEmbedder, *recordingEmbedder) {
	t.Helper()
	repo := &mockRepo{}
	doc := &recordingEmbedder{vector: []float32{1, 0}}
	query := &recordingEmbedder{vector: []float32{0, 1}}
	return New(repo, doc, query, zap.NewNop()), repo, doc, query
}
