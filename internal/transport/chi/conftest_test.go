package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	domfb "github.com/kailas-cloud/serendip/internal/domain/feedback"
	domimp "github.com/kailas-cloud/serendip/internal/domain/impression"
	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
	connrequc "github.com/kailas-cloud/serendip/internal/usecase/connectionrequest"
	"github.com/kailas-cloud/serendip/internal/usecase/graph"
	healthuc "github.com/kailas-cloud/serendip/internal/usecase/health"
	impressionuc "github.com/kailas-cloud/serendip/internal/usecase/impression"
	opportunityuc "github.com/kailas-cloud/serendip/internal/usecase/opportunity"
	profileuc "github.com/kailas-cloud/serendip/internal/usecase/profile"
)

// --- Mocks ---

type mockProfiles struct {
	upsertFn func(in profileuc.Input) (domperson.Person, error)
	byID     map[string]domperson.Person
}

func (m *mockProfiles) Upsert(_ context.Context, in profileuc.Input) (domperson.Person, error) {
	return m.upsertFn(in)
}

func (m *mockProfiles) Get(_ context.Context, id string) (domperson.Person, error) {
	p, ok := m.byID[id]
	if !ok {
		return domperson.Person{}, domain.ErrPersonNotFound
	}
	return p, nil
}

func (m *mockProfiles) GetMany(_ context.Context, ids []string) ([]domperson.Person, error) {
	var out []domperson.Person
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProfiles) List(_ context.Context) ([]domperson.Person, error) {
	out := make([]domperson.Person, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// memRels backs a real graph.Service so network views can be exercised end to end.
type memRels struct {
	rels []domrel.Relationship
}

func (m *memRels) Create(_ context.Context, rel domrel.Relationship) error {
	m.rels = append(m.rels, rel)
	return nil
}

func (m *memRels) ListByPerson(_ context.Context, personID string) ([]domrel.Relationship, error) {
	var out []domrel.Relationship
	for i := range m.rels {
		if m.rels[i].Involves(personID) {
			out = append(out, m.rels[i])
		}
	}
	return out, nil
}

type mockOpportunities struct {
	createFn  func(in opportunityuc.Input) (opportunityuc.Result, error)
	getFn     func(id string) (opportunityuc.Result, error)
	matchesFn func(id string) ([]dommatch.Match, error)
	listFn    func() ([]opportunityuc.Listing, error)
}

func (m *mockOpportunities) Create(_ context.Context, in opportunityuc.Input) (opportunityuc.Result, error) {
	return m.createFn(in)
}

func (m *mockOpportunities) Get(_ context.Context, id string) (opportunityuc.Result, error) {
	return m.getFn(id)
}

func (m *mockOpportunities) Matches(_ context.Context, id string) ([]dommatch.Match, error) {
	return m.matchesFn(id)
}

func (m *mockOpportunities) List(_ context.Context) ([]opportunityuc.Listing, error) {
	return m.listFn()
}

// mockRequests records the actor each call was made for.
type mockRequests struct {
	createFn   func(in connrequc.CreateInput) (connrequc.View, error)
	existsFn   func(from, to, opp string) (bool, error)
	listFn     func(personID string) ([]connrequc.View, error)
	byOppFn    func(oppID, actorID string) ([]connrequc.View, error)
	resolveFn  func(id, actorID string) (connrequc.View, error)
	lastAction string
}

func (m *mockRequests) Create(_ context.Context, in connrequc.CreateInput) (connrequc.View, error) {
	return m.createFn(in)
}

func (m *mockRequests) Exists(_ context.Context, from, to, opp string) (bool, error) {
	return m.existsFn(from, to, opp)
}

func (m *mockRequests) Incoming(_ context.Context, personID string) ([]connrequc.View, error) {
	m.lastAction = "incoming"
	return m.listFn(personID)
}

func (m *mockRequests) Outgoing(_ context.Context, personID string) ([]connrequc.View, error) {
	m.lastAction = "outgoing"
	return m.listFn(personID)
}

func (m *mockRequests) ByOpportunity(_ context.Context, oppID, actorID string) ([]connrequc.View, error) {
	return m.byOppFn(oppID, actorID)
}

func (m *mockRequests) Accept(_ context.Context, id, actorID string) (connrequc.View, error) {
	m.lastAction = "accept"
	return m.resolveFn(id, actorID)
}

func (m *mockRequests) Decline(_ context.Context, id, actorID string) (connrequc.View, error) {
	m.lastAction = "decline"
	return m.resolveFn(id, actorID)
}

type mockImpressions struct {
	addFn func(in impressionuc.FeedbackInput) (domfb.Feedback, error)
	getFn func(id string) (domimp.Impression, error)
}

func (m *mockImpressions) AddFeedback(_ context.Context, in impressionuc.FeedbackInput) (domfb.Feedback, error) {
	return m.addFn(in)
}

func (m *mockImpressions) Get(_ context.Context, id string) (domimp.Impression, error) {
	return m.getFn(id)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Harness ---

type harness struct {
	profiles      *mockProfiles
	rels          *memRels
	opportunities *mockOpportunities
	impressions   *mockImpressions
	requests      *mockRequests
	health        *mockHealth
	router        chi.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		profiles:      &mockProfiles{byID: map[string]domperson.Person{}},
		rels:          &memRels{},
		opportunities: &mockOpportunities{},
		impressions:   &mockImpressions{},
		requests:      &mockRequests{},
		health:        &mockHealth{},
	}
	g := graph.New(h.rels, h.profiles, zap.NewNop())
	srv := NewServer(h.profiles, g, h.opportunities, h.impressions, h.requests, h.health, zap.NewNop())
	h.router = chi.NewRouter()
	srv.Routes(h.router)
	return h
}

func (h *harness) addPerson(id, name string) {
	h.profiles.byID[id] = domperson.Reconstruct(id, name, "", nil, nil, nil)
}

func (h *harness) link(t *testing.T, a, b string) {
	t.Helper()
	rel, err := domrel.New(a, b, domrel.SourceSeed, 0.5, time.Unix(int64(len(h.rels.rels)), 0))
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	h.rels.rels = append(h.rels.rels, rel)
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Errorf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
		return
	}
	resp := decodeBody[ErrorResponse](t, rr)
	if resp.Code != code {
		t.Errorf("code = %s, want %s", resp.Code, code)
	}
}
