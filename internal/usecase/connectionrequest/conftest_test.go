package connectionrequest

import (
	"context"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	domreq "github.com/kailas-cloud/serendip/internal/domain/connectionrequest"
	domopp "github.com/kailas-cloud/serendip/internal/domain/opportunity"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

// memRepo keeps requests in insertion order.
type memRepo struct {
	reqs      []domreq.Request
	updateErr error
}

func (m *memRepo) Create(_ context.Context, req domreq.Request) error {
	m.reqs = append(m.reqs, req)
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (domreq.Request, error) {
	for _, r := range m.reqs {
		if r.ID() == id {
			return r, nil
		}
	}
	return domreq.Request{}, domain.ErrConnectionRequestNotFound
}

func (m *memRepo) UpdateStatus(_ context.Context, req domreq.Request) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.reqs {
		if m.reqs[i].ID() == req.ID() {
			m.reqs[i] = req
		}
	}
	return nil
}

func (m *memRepo) filter(keep func(r *domreq.Request) bool) []domreq.Request {
	out := []domreq.Request{}
	for i := range m.reqs {
		if keep(&m.reqs[i]) {
			out = append(out, m.reqs[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func (m *memRepo) ListIncoming(_ context.Context, personID string) ([]domreq.Request, error) {
	return m.filter(func(r *domreq.Request) bool { return r.ToID() == personID }), nil
}

func (m *memRepo) ListOutgoing(_ context.Context, personID string) ([]domreq.Request, error) {
	return m.filter(func(r *domreq.Request) bool { return r.FromID() == personID }), nil
}

func (m *memRepo) ListByOpportunity(_ context.Context, opportunityID string) ([]domreq.Request, error) {
	return m.filter(func(r *domreq.Request) bool { return r.OpportunityID() == opportunityID }), nil
}

type memPersons struct {
	names map[string]string
}

func (m *memPersons) Get(_ context.Context, id string) (domperson.Person, error) {
	name, ok := m.names[id]
	if !ok {
		return domperson.Person{}, domain.ErrPersonNotFound
	}
	return domperson.Reconstruct(id, name, "", nil, nil, nil), nil
}

type memOpportunities struct {
	byID map[string]domopp.Opportunity
}

func (m *memOpportunities) Get(_ context.Context, id string) (domopp.Opportunity, error) {
	opp, ok := m.byID[id]
	if !ok {
		return domopp.Opportunity{}, domain.ErrOpportunityNotFound
	}
	return opp, nil
}

// recordingConnector captures Connect calls.
type recordingConnector struct {
	calls []connectCall
	err   error
}

type connectCall struct {
	a, b     string
	source   domrel.Source
	strength float64
}

func (m *recordingConnector) Connect(
	_ context.Context, a, b string, source domrel.Source, strength float64,
) (domrel.Relationship, error) {
	m.calls = append(m.calls, connectCall{a: a, b: b, source: source, strength: strength})
	if m.err != nil {
		return domrel.Relationship{}, m.err
	}
	return domrel.Reconstruct("rel-1", a, b, source, strength, time.Unix(0, 0)), nil
}

type fixture struct {
	repo  *memRepo
	graph *recordingConnector
	svc   *Service
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  &memRepo{},
		graph: &recordingConnector{},
		clock: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	persons := &memPersons{names: map[string]string{"ana": "Ana", "ben": "Ben", "cal": "Cal"}}
	opps := &memOpportunities{byID: map[string]domopp.Opportunity{
		"o1": domopp.Reconstruct("o1", "Go mentor", "", domopp.TypeHelp, "ana", f.clock),
	}}
	f.svc = New(f.repo, persons, opps, f.graph, zap.NewNop())
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func (f *fixture) create(t *testing.T, in CreateInput) View {
	t.Helper()
	v, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create %+v: %v", in, err)
	}
	return v
}
