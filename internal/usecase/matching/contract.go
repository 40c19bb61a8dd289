package matching

import (
	"context"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
	"github.com/kailas-cloud/serendip/internal/usecase/graph"
)

// Searcher finds the profiles most similar to a free-text query.
type Searcher interface {
	Search(ctx context.Context, text string, n int) ([]domperson.Neighbor, error)
}

// Graph answers proximity questions about the poster.
type Graph interface {
	DirectConnections(ctx context.Context, personID string) ([]domrel.Relationship, error)
	SecondDegree(ctx context.Context, personID string) (graph.SecondDegree, error)
}

// PersonReader resolves candidate profiles.
type PersonReader interface {
	GetMany(ctx context.Context, ids []string) ([]domperson.Person, error)
}

// Ranker orders and explains a shortlist. It must not fail.
type Ranker interface {
	RankAndExplain(
		ctx context.Context, opp opportunity.Opportunity, candidates []dommatch.CandidateScore,
	) []dommatch.RankedMatch
}

// Repository defines the storage contract for match records.
type Repository interface {
	CreateBatch(ctx context.Context, matches []dommatch.Match) error
	ListByOpportunity(ctx context.Context, opportunityID string) ([]dommatch.Match, error)
}
