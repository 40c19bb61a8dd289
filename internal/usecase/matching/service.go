// Package matching turns an opportunity into persisted, ranked matches.
package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
	"github.com/kailas-cloud/serendip/internal/logger"
	"github.com/kailas-cloud/serendip/internal/metrics"
)

// DefaultTopK is the shortlist size used when neither the caller nor config sets one.
const DefaultTopK = 5

// Options bounds shortlist sizes.
type Options struct {
	DefaultTopK int
	MaxTopK     int
}

// Service orchestrates retrieval, ranking and persistence. It keeps no
// per-call state, so concurrent FindMatches calls are independent.
type Service struct {
	searcher Searcher
	graph    Graph
	persons  PersonReader
	ranker   Ranker
	repo     Repository
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a matching service.
func New(
	searcher Searcher, g Graph, persons PersonReader, ranker Ranker, repo Repository,
	opts Options, logger *zap.Logger,
) *Service {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = DefaultTopK
	}
	return &Service{
		searcher: searcher,
		graph:    g,
		persons:  persons,
		ranker:   ranker,
		repo:     repo,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// FindMatches runs both phases for opp and persists the result. An empty
// shortlist returns an empty slice and writes nothing.
func (s *Service) FindMatches(ctx context.Context, opp opportunity.Opportunity, topK int) ([]dommatch.Match, error) {
	log := logger.FromContext(ctx, s.logger)
	topK = s.effectiveTopK(topK)

	candidates, err := s.Retrieve(ctx, &opp, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates for %s: %w", opp.ID(), err)
	}
	if len(candidates) == 0 {
		log.Info("No eligible candidates",
			zap.String("opportunity_id", opp.ID()),
			zap.String("type", opp.Type().String()),
		)
		return []dommatch.Match{}, nil
	}

	ranked := s.ranker.RankAndExplain(ctx, opp, candidates)

	byID := make(map[string]*dommatch.CandidateScore, len(candidates))
	for i := range candidates {
		byID[candidates[i].Person.ID()] = &candidates[i]
	}

	now := s.now()
	matches := make([]dommatch.Match, 0, len(ranked))
	for _, r := range ranked {
		c, ok := byID[r.PersonID]
		if !ok {
			log.Warn("Dropping ranking for unknown or repeated candidate",
				zap.String("opportunity_id", opp.ID()),
				zap.String("person_id", r.PersonID),
			)
			continue
		}
		delete(byID, r.PersonID)
		matches = append(matches, dommatch.New(opp.ID(), r, c, now))
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Rank() < matches[j].Rank() })

	if err := s.repo.CreateBatch(ctx, matches); err != nil {
		return nil, fmt.Errorf("persist matches for %s: %w", opp.ID(), err)
	}
	metrics.MatchesPersistedTotal.Add(float64(len(matches)))

	log.Info("Matches created",
		zap.String("opportunity_id", opp.ID()),
		zap.Int("shortlist", len(candidates)),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// GetMatches returns stored matches for an opportunity ordered by rank.
func (s *Service) GetMatches(ctx context.Context, opportunityID string) ([]dommatch.Match, error) {
	matches, err := s.repo.ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list matches for %s: %w", opportunityID, err)
	}
	return matches, nil
}

func (s *Service) effectiveTopK(topK int) int {
	if topK <= 0 {
		topK = s.opts.DefaultTopK
	}
	if s.opts.MaxTopK > 0 && topK > s.opts.MaxTopK {
		topK = s.opts.MaxTopK
	}
	return topK
}
