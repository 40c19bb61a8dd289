package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
	"github.com/kailas-cloud/serendip/internal/metrics"
)

// Fallback reasons recorded in metrics.
const (
	reasonDisabled = "disabled"
	reasonTimeout  = "timeout"
	reasonCanceled = "canceled"
	reasonError    = "error"
	reasonLength   = "length"
)

// Stage runs Phase 2. It never fails: any oracle problem yields the Phase 1 order.
type Stage struct {
	oracle  Oracle
	timeout time.Duration
	logger  *zap.Logger
}

// NewStage creates the ranking stage. A nil oracle always falls back;
// timeout <= 0 leaves the call bounded only by the caller's context.
func NewStage(oracle Oracle, timeout time.Duration, logger *zap.Logger) *Stage {
	return &Stage{oracle: oracle, timeout: timeout, logger: logger}
}

type oracleResult struct {
	ranked []dommatch.RankedMatch
	err    error
}

// RankAndExplain returns exactly one RankedMatch per candidate.
func (s *Stage) RankAndExplain(
	ctx context.Context, opp opportunity.Opportunity, candidates []dommatch.CandidateScore,
) []dommatch.RankedMatch {
	if len(candidates) == 0 {
		return []dommatch.RankedMatch{}
	}
	if s.oracle == nil {
		return s.fallback(opp.ID(), candidates, reasonDisabled, nil)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// Buffered so a late oracle reply never blocks the goroutine.
	done := make(chan oracleResult, 1)
	go func() {
		ranked, err := s.oracle.RankAndExplain(callCtx, opp, candidates)
		done <- oracleResult{ranked: ranked, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return s.fallback(opp.ID(), candidates, reasonFor(callCtx, res.err), res.err)
		}
		if len(res.ranked) != len(candidates) {
			err := fmt.Errorf("oracle returned %d entries for %d candidates", len(res.ranked), len(candidates))
			return s.fallback(opp.ID(), candidates, reasonLength, err)
		}
		metrics.RankingOutcomesTotal.WithLabelValues("oracle", "").Inc()
		return res.ranked
	case <-callCtx.Done():
		return s.fallback(opp.ID(), candidates, reasonFor(callCtx, callCtx.Err()), callCtx.Err())
	}
}

func reasonFor(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, context.Canceled):
		return reasonCanceled
	default:
		return reasonError
	}
}

func (s *Stage) fallback(
	opportunityID string, candidates []dommatch.CandidateScore, reason string, cause error,
) []dommatch.RankedMatch {
	metrics.RankingOutcomesTotal.WithLabelValues("fallback", reason).Inc()
	if cause != nil {
		s.logger.Warn("Ranking oracle failed, using similarity order",
			zap.String("opportunity_id", opportunityID),
			zap.String("reason", reason),
			zap.Int("candidates", len(candidates)),
			zap.Error(cause),
		)
	}
	return Fallback(candidates)
}

// Fallback ranks candidates in their given order with the combined score and
// a templated explanation.
func Fallback(candidates []dommatch.CandidateScore) []dommatch.RankedMatch {
	out := make([]dommatch.RankedMatch, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		out[i] = dommatch.RankedMatch{
			PersonID: c.Person.ID(),
			Rank:     i + 1,
			Score:    c.CombinedScore,
			Explanation: fmt.Sprintf("Matched based on profile similarity (%d%% skill match).",
				int(math.RoundToEven(c.EmbeddingScore*100))),
		}
	}
	return out
}
