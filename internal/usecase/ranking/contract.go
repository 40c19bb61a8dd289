package ranking

import (
	"context"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
)

// Oracle ranks a shortlist and explains each pick. Implementations may fail;
// the Stage turns any failure into the deterministic fallback.
type Oracle interface {
	RankAndExplain(
		ctx context.Context, opp opportunity.Opportunity, candidates []dommatch.CandidateScore,
	) ([]dommatch.RankedMatch, error)
}

// Limiter paces oracle calls. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}
