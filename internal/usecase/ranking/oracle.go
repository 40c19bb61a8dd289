// Package ranking implements Phase 2: AI ranking with a deterministic fallback.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
	"github.com/kailas-cloud/serendip/internal/logger"
)

// LLMOracle asks a text generator to rank and explain a shortlist.
type LLMOracle struct {
	generator domain.Generator
	limiter   Limiter
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewLLMOracle creates an oracle over generator. A nil limiter disables pacing.
func NewLLMOracle(generator domain.Generator, limiter Limiter, logger *zap.Logger) *LLMOracle {
	return &LLMOracle{
		generator: generator,
		limiter:   limiter,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// RankAndExplain renders the prompt, calls the generator and validates the reply.
func (o *LLMOracle) RankAndExplain(
	ctx context.Context, opp opportunity.Opportunity, candidates []dommatch.CandidateScore,
) ([]dommatch.RankedMatch, error) {
	if len(candidates) == 0 {
		return []dommatch.RankedMatch{}, nil
	}

	prompt, err := buildPrompt(&opp, candidates)
	if err != nil {
		return nil, err
	}

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("ranking oracle: %w: %w", domain.ErrRateLimited, err)
		}
	}

	start := time.Now()
	raw, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ranking oracle: %w", err)
	}

	ranked, err := parseRanking(raw, candidates, o.validate)
	if err != nil {
		o.logger.Debug("Rejected oracle reply",
			zap.String("opportunity_id", opp.ID()),
			zap.String("reply", logger.Truncate(raw, 300)),
			zap.Error(err),
		)
		return nil, err
	}

	o.logger.Debug("Oracle ranked shortlist",
		zap.String("opportunity_id", opp.ID()),
		zap.Int("candidates", len(candidates)),
		zap.Duration("latency", time.Since(start)),
	)
	return ranked, nil
}
