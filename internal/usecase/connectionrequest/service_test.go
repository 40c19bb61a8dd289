package connectionrequest

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/serendip/internal/domain"
	domreq "github.com/kailas-cloud/serendip/internal/domain/connectionrequest"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

func TestCreate_ResolvesNames(t *testing.T) {
	f := newFixture(t)

	v := f.create(t, CreateInput{FromID: "ben", ToID: "ana", OpportunityID: "o1", MatchID: "m1"})
	if v.Request.Status() != domreq.StatusPending {
		t.Errorf("status = %s", v.Request.Status())
	}
	if v.FromName != "Ben" || v.ToName != "Ana" || v.OpportunityTitle != "Go mentor" {
		t.Errorf("unexpected view: %+v", v)
	}
	if len(f.repo.reqs) != 1 {
		t.Fatalf("expected 1 stored request, got %d", len(f.repo.reqs))
	}
}

func TestCreate_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"self", CreateInput{FromID: "ana", ToID: "ana"}, domain.ErrInvalidInput},
		{"unknown requester", CreateInput{FromID: "zed", ToID: "ana"}, domain.ErrPersonNotFound},
		{"unknown recipient", CreateInput{FromID: "ana", ToID: "zed"}, domain.ErrPersonNotFound},
		{"unknown opportunity", CreateInput{FromID: "ben", ToID: "ana", OpportunityID: "nope"}, domain.ErrOpportunityNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if _, err := f.svc.Create(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreate_DuplicatePerOpportunity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, CreateInput{FromID: "ben", ToID: "ana", OpportunityID: "o1"})

	if _, err := f.svc.Create(ctx, CreateInput{FromID: "ben", ToID: "ana", OpportunityID: "o1"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	// A different opportunity, or the reverse direction, is a new request.
	f.create(t, CreateInput{FromID: "ben", ToID: "ana"})
	f.create(t, CreateInput{FromID: "ana", ToID: "ben", OpportunityID: "o1"})

	exists, err := f.svc.Exists(ctx, "ben", "ana", "o1")
	if err != nil || !exists {
		t.Fatalf("exists = %v, %v", exists, err)
	}
	exists, err = f.svc.Exists(ctx, "cal", "ana", "o1")
	if err != nil || exists {
		t.Fatalf("exists = %v, %v", exists, err)
	}
}

func TestIncoming_OnlyPendingNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, CreateInput{FromID: "ben", ToID: "ana"})
	second := f.create(t, CreateInput{FromID: "cal", ToID: "ana"})
	declined := f.create(t, CreateInput{FromID: "ben", ToID: "ana", OpportunityID: "o1"})
	if _, err := f.svc.Decline(ctx, declined.Request.ID(), "ana"); err != nil {
		t.Fatalf("decline: %v", err)
	}

	got, err := f.svc.Incoming(ctx, "ana")
	if err != nil {
		t.Fatalf("incoming: %v", err)
	}
	if len(got) != 2 || got[0].Request.ID() != second.Request.ID() || got[1].Request.ID() != first.Request.ID() {
		t.Fatalf("unexpected incoming: %+v", got)
	}

	out, err := f.svc.Outgoing(ctx, "ben")
	if err != nil {
		t.Fatalf("outgoing: %v", err)
	}
	if len(out) != 2 || out[0].Request.Status() != domreq.StatusDeclined {
		t.Fatalf("outgoing should keep resolved requests newest first: %+v", out)
	}
}

func TestByOpportunity_PosterOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, CreateInput{FromID: "ben", ToID: "cal", OpportunityID: "o1"})

	got, err := f.svc.ByOpportunity(ctx, "o1", "ana")
	if err != nil || len(got) != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := f.svc.ByOpportunity(ctx, "o1", "ben"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.ByOpportunity(ctx, "nope", "ana"); !errors.Is(err, domain.ErrOpportunityNotFound) {
		t.Fatalf("expected ErrOpportunityNotFound, got %v", err)
	}
}

func TestAccept_CreatesMatchRelationship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, CreateInput{FromID: "ben", ToID: "ana", OpportunityID: "o1"})

	got, err := f.svc.Accept(ctx, v.Request.ID(), "ana")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Request.Status() != domreq.StatusAccepted {
		t.Errorf("status = %s", got.Request.Status())
	}
	if len(f.graph.calls) != 1 {
		t.Fatalf("expected one Connect call, got %d", len(f.graph.calls))
	}
	call := f.graph.calls[0]
	if call.a != "ben" || call.b != "ana" || call.source != domrel.SourceMatch || call.strength != domrel.DefaultStrength {
		t.Errorf("unexpected connect call: %+v", call)
	}

	stored, _ := f.repo.Get(ctx, v.Request.ID())
	if stored.Status() != domreq.StatusAccepted {
		t.Errorf("stored status = %s", stored.Status())
	}
}

func TestAccept_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, CreateInput{FromID: "ben", ToID: "ana"})

	if _, err := f.svc.Accept(ctx, v.Request.ID(), "ben"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Accept(ctx, "missing", "ana"); !errors.Is(err, domain.ErrConnectionRequestNotFound) {
		t.Fatalf("expected ErrConnectionRequestNotFound, got %v", err)
	}
	if len(f.graph.calls) != 0 {
		t.Fatal("no relationship expected for rejected accepts")
	}

	if _, err := f.svc.Accept(ctx, v.Request.ID(), "ana"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Accept(ctx, v.Request.ID(), "ana"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("second accept: expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.Decline(ctx, v.Request.ID(), "ana"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("decline after accept: expected ErrInvalidInput, got %v", err)
	}
}

func TestAccept_AlreadyConnectedStillAccepts(t *testing.T) {
	f := newFixture(t)
	f.graph.err = domain.ErrAlreadyExists
	v := f.create(t, CreateInput{FromID: "ben", ToID: "ana"})

	got, err := f.svc.Accept(context.Background(), v.Request.ID(), "ana")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Request.Status() != domreq.StatusAccepted {
		t.Errorf("status = %s", got.Request.Status())
	}
}

func TestAccept_ConnectFailureKeepsPending(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("valkey down")
	f.graph.err = boom
	v := f.create(t, CreateInput{FromID: "ben", ToID: "ana"})

	if _, err := f.svc.Accept(context.Background(), v.Request.ID(), "ana"); !errors.Is(err, boom) {
		t.Fatalf("expected connect error, got %v", err)
	}
	stored, _ := f.repo.Get(context.Background(), v.Request.ID())
	if stored.Status() != domreq.StatusPending {
		t.Errorf("stored status = %s, want pending", stored.Status())
	}
}

func TestDecline_NoRelationship(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, CreateInput{FromID: "ben", ToID: "ana"})

	if _, err := f.svc.Decline(context.Background(), v.Request.ID(), "cal"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	got, err := f.svc.Decline(context.Background(), v.Request.ID(), "ana")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if got.Request.Status() != domreq.StatusDeclined || len(f.graph.calls) != 0 {
		t.Errorf("unexpected decline result: %+v, calls %d", got, len(f.graph.calls))
	}
}
