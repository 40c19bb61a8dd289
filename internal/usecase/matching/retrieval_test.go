package matching

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func TestRetrieve_FirstDegreeBonus(t *testing.T) {
	f := newFixture(t)
	f.person("p", "Poster")
	f.person("c", "Connie", opportunity.TypeJob)
	f.link(t, "p", "c")
	f.results(nb("c", 0.5))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.Person.ID() != "c" || !approx(c.EmbeddingScore, 0.5) || !approx(c.NetworkScore, 0.15) ||
		!approx(c.CombinedScore, 0.65) {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if !slices.Equal(c.SharedConnections, []string{DirectConnectionLabel}) {
		t.Errorf("shared = %v", c.SharedConnections)
	}
}

func TestRetrieve_DirectLabelNeedsPosterProfile(t *testing.T) {
	f := newFixture(t)
	f.person("c", "Connie", opportunity.TypeJob)
	f.link(t, "p", "c")
	f.results(nb("c", 0.5))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !approx(got[0].NetworkScore, FirstDegreeBonus) {
		t.Fatalf("expected first-degree bonus, got %+v", got)
	}
	if len(got[0].SharedConnections) != 0 {
		t.Errorf("expected no attribution, got %v", got[0].SharedConnections)
	}
}

func TestRetrieve_EligibilityFilter(t *testing.T) {
	f := newFixture(t)
	f.person("p", "Poster")
	f.person("a", "Ada", opportunity.TypeProject)
	f.person("b", "Ben", opportunity.TypeJob)
	f.results(nb("a", 0.9), nb("b", 0.6))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Person.ID() != "b" {
		t.Fatalf("expected only b, got %+v", got)
	}
	if !approx(got[0].CombinedScore, 0.6) || got[0].NetworkScore != 0 {
		t.Errorf("unexpected scores: %+v", got[0])
	}
}

func TestRetrieve_SecondDegreeBonus(t *testing.T) {
	f := newFixture(t)
	f.person("p", "Poster")
	f.person("m", "Maria")
	f.person("j", "Jon")
	f.person("s", "Sam", opportunity.TypeJob)
	f.link(t, "p", "m")
	f.link(t, "p", "j")
	f.link(t, "m", "s")
	f.link(t, "j", "s")
	f.results(nb("s", 0.4))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if !approx(got[0].NetworkScore, SecondDegreeBonus) || !approx(got[0].CombinedScore, 0.48) {
		t.Errorf("unexpected scores: %+v", got[0])
	}
	if !slices.Equal(got[0].SharedConnections, []string{"Maria", "Jon"}) {
		t.Errorf("shared = %v", got[0].SharedConnections)
	}
}

func TestRetrieve_ExcludesPoster(t *testing.T) {
	f := newFixture(t)
	f.person("p", "Poster", opportunity.TypeJob)
	f.person("b", "Ben", opportunity.TypeJob)
	f.results(nb("p", 0.99), nb("b", 0.3))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range got {
		if c.Person.ID() == "p" {
			t.Fatal("poster must never be a candidate")
		}
	}
	if len(got) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(got))
	}
}

func TestRetrieve_OverFetchesAndTruncates(t *testing.T) {
	f := newFixture(t)
	f.person("p", "Poster")
	for _, id := range []string{"a", "b", "c", "d"} {
		f.person(id, id, opportunity.TypeJob)
	}
	f.person("x", "x", opportunity.TypeDate)
	f.results(nb("x", 0.95), nb("a", 0.9), nb("b", 0.8), nb("c", 0.7), nb("d", 0.6))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.searcher.lastN != 2*OverFetchFactor {
		t.Errorf("expected search for %d neighbors, got %d", 2*OverFetchFactor, f.searcher.lastN)
	}
	if f.searcher.lastText != "Backend engineer. Go services" {
		t.Errorf("unexpected query text %q", f.searcher.lastText)
	}
	if len(got) != 2 || got[0].Person.ID() != "a" || got[1].Person.ID() != "b" {
		t.Errorf("unexpected shortlist: %+v", got)
	}
}

func TestRetrieve_ShortlistIsMinOfTopKAndEligible(t *testing.T) {
	f := newFixture(t)
	f.person("p", "Poster")
	f.person("a", "a", opportunity.TypeJob)
	f.person("b", "b", opportunity.TypeJob)
	f.results(nb("a", 0.9), nb("b", 0.8), nb("ghost", 0.85))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(got))
	}
}

func TestRetrieve_NetworkBonusReordersAndTieBreaksByID(t *testing.T) {
	f := newFixture(t)
	f.person("p", "Poster")
	f.person("far", "Far", opportunity.TypeJob)
	f.person("near", "Near", opportunity.TypeJob)
	f.person("b", "B", opportunity.TypeJob)
	f.person("a", "A", opportunity.TypeJob)
	f.link(t, "p", "near")
	f.results(nb("far", 0.7), nb("near", 0.6), nb("b", 0.5), nb("a", 0.5))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var order []string
	for _, c := range got {
		order = append(order, c.Person.ID())
	}
	if !slices.Equal(order, []string{"near", "far", "a", "b"}) {
		t.Errorf("order = %v", order)
	}
}

func TestRetrieve_CombinedIsEmbeddingPlusBonus(t *testing.T) {
	f := newFixture(t)
	f.person("p", "Poster")
	f.person("m", "Maria")
	f.person("d", "D", opportunity.TypeJob)
	f.person("s", "S", opportunity.TypeJob)
	f.person("o", "O", opportunity.TypeJob)
	f.link(t, "p", "m")
	f.link(t, "p", "d")
	f.link(t, "m", "s")
	f.results(nb("d", 0.31), nb("s", 0.42), nb("o", 1.3))
	opp := jobPosting("p")

	got, err := f.svc.Retrieve(context.Background(), &opp, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range got {
		if c.EmbeddingScore < 0 || c.EmbeddingScore > 1 {
			t.Errorf("%s embedding %v out of [0,1]", c.Person.ID(), c.EmbeddingScore)
		}
		if c.NetworkScore != 0 && c.NetworkScore != SecondDegreeBonus && c.NetworkScore != FirstDegreeBonus {
			t.Errorf("%s unexpected bonus %v", c.Person.ID(), c.NetworkScore)
		}
		if !approx(c.CombinedScore, c.EmbeddingScore+c.NetworkScore) {
			t.Errorf("%s combined %v != %v + %v", c.Person.ID(), c.CombinedScore, c.EmbeddingScore, c.NetworkScore)
		}
	}
}

func TestRetrieve_SearchError(t *testing.T) {
	f := newFixture(t)
	searchErr := errors.New("embedding provider down")
	f.searcher.err = searchErr
	opp := jobPosting("p")

	if _, err := f.svc.Retrieve(context.Background(), &opp, 5); !errors.Is(err, searchErr) {
		t.Errorf("expected search error, got %v", err)
	}
}
