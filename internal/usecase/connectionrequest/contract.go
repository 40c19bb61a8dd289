package connectionrequest

import (
	"context"

	domreq "github.com/kailas-cloud/serendip/internal/domain/connectionrequest"
	domopp "github.com/kailas-cloud/serendip/internal/domain/opportunity"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

// Repository defines the storage contract for connection requests.
type Repository interface {
	Create(ctx context.Context, req domreq.Request) error
	Get(ctx context.Context, id string) (domreq.Request, error)
	UpdateStatus(ctx context.Context, req domreq.Request) error
	ListIncoming(ctx context.Context, personID string) ([]domreq.Request, error)
	ListOutgoing(ctx context.Context, personID string) ([]domreq.Request, error)
	ListByOpportunity(ctx context.Context, opportunityID string) ([]domreq.Request, error)
}

// PersonReader checks that people exist and resolves their names.
type PersonReader interface {
	Get(ctx context.Context, id string) (domperson.Person, error)
}

// OpportunityReader resolves the opportunity a request was raised from.
type OpportunityReader interface {
	Get(ctx context.Context, id string) (domopp.Opportunity, error)
}

// Connector records the relationship created by an accepted request.
type Connector interface {
	Connect(
		ctx context.Context, personA, personB string, source domrel.Source, strength float64,
	) (domrel.Relationship, error)
}
