package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/serendip/internal/domain"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

func TestLookup_LabelsDegrees(t *testing.T) {
	repo, persons := network(t)
	persons.byID["eve"] = domperson.Reconstruct("eve", "Eve", "Works on data pipelines", nil, nil, nil)
	svc := newTestService(t, repo, persons)

	hits, err := svc.Lookup(context.Background(), "poster", "A", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, h := range hits {
		ids = append(ids, h.Person.ID())
	}
	if !reflect.DeepEqual(ids, []string{"alice", "carol", "dave", "eve"}) {
		t.Fatalf("ids = %v", ids)
	}

	want := map[string]Degree{"alice": DegreeFirst, "carol": DegreeSecond, "dave": DegreeSecond, "eve": DegreeOther}
	for _, h := range hits {
		if h.Degree != want[h.Person.ID()] {
			t.Errorf("%s degree = %s, want %s", h.Person.ID(), h.Degree, want[h.Person.ID()])
		}
	}
	if !reflect.DeepEqual(hits[1].Shared, []string{"Alice", "Bob"}) {
		t.Errorf("carol shared = %v", hits[1].Shared)
	}
	if len(hits[0].Shared) != 0 {
		t.Errorf("first-degree hit should have no shared names, got %v", hits[0].Shared)
	}
	if hits[0].Connections != 3 {
		t.Errorf("alice connections = %d, want 3", hits[0].Connections)
	}
}

func TestLookup_ExcludesViewerAndHonorsLimit(t *testing.T) {
	repo, persons := network(t)
	svc := newTestService(t, repo, persons)

	hits, err := svc.Lookup(context.Background(), "alice", "o", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Person.ID() != "bob" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestLookup_NoViewerIsAllOther(t *testing.T) {
	repo, persons := network(t)
	svc := newTestService(t, repo, persons)

	hits, err := svc.Lookup(context.Background(), "", "bob", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Degree != DegreeOther {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestLookup_EmptyQuery(t *testing.T) {
	svc := newTestService(t, &memRepo{}, newMemPersons(nil))
	if _, err := svc.Lookup(context.Background(), "x", "   ", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
