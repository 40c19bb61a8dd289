package graph

import (
	"context"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

// memRepo is an in-memory relationship store.
type memRepo struct {
	rels      []domrel.Relationship
	listCalls int
	listErr   error
	createErr error
}

func (m *memRepo) Create(_ context.Context, rel domrel.Relationship) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.rels = append(m.rels, rel)
	return nil
}

func (m *memRepo) ListByPerson(_ context.Context, personID string) ([]domrel.Relationship, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []domrel.Relationship{}
	for i := range m.rels {
		if m.rels[i].Involves(personID) {
			out = append(out, m.rels[i])
		}
	}
	return out, nil
}

func (m *memRepo) link(t *testing.T, a, b string) {
	t.Helper()
	rel, err := domrel.New(a, b, domrel.SourceSeed, 0, time.Unix(int64(len(m.rels)), 0))
	if err != nil {
		t.Fatalf("link %s-%s: %v", a, b, err)
	}
	m.rels = append(m.rels, rel)
}

// memPersons resolves profiles from a fixed map.
type memPersons struct {
	byID map[string]domperson.Person
}

func newMemPersons(names map[string]string) *memPersons {
	m := &memPersons{byID: make(map[string]domperson.Person, len(names))}
	for id, name := range names {
		m.byID[id] = domperson.Reconstruct(id, name, "", nil, nil, nil)
	}
	return m
}

func (m *memPersons) Get(_ context.Context, id string) (domperson.Person, error) {
	p, ok := m.byID[id]
	if !ok {
		return domperson.Person{}, domain.ErrPersonNotFound
	}
	return p, nil
}

func (m *memPersons) GetMany(_ context.Context, ids []string) ([]domperson.Person, error) {
	out := make([]domperson.Person, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPersons) List(context.Context) ([]domperson.Person, error) {
	out := make([]domperson.Person, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func newTestService(t *testing.T, repo *memRepo, persons *memPersons) *Service {
	t.Helper()
	return New(repo, persons, zap.NewNop())
}
