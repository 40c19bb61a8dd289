package opportunity

import (
	"context"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	domopp "github.com/kailas-cloud/serendip/internal/domain/opportunity"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

// Repository defines the storage contract for opportunities.
type Repository interface {
	Create(ctx context.Context, opp domopp.Opportunity) error
	Get(ctx context.Context, id string) (domopp.Opportunity, error)
	List(ctx context.Context) ([]domopp.Opportunity, error)
}

// PersonReader verifies the poster exists.
type PersonReader interface {
	Get(ctx context.Context, id string) (domperson.Person, error)
}

// Matcher runs and reads matching for an opportunity.
type Matcher interface {
	FindMatches(ctx context.Context, opp domopp.Opportunity, topK int) ([]dommatch.Match, error)
	GetMatches(ctx context.Context, opportunityID string) ([]dommatch.Match, error)
}
