package matching

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
	"github.com/kailas-cloud/serendip/internal/metrics"
	"github.com/kailas-cloud/serendip/internal/usecase/graph"
)

// Network proximity bonuses added to the embedding score.
const (
	FirstDegreeBonus  = 0.15
	SecondDegreeBonus = 0.08
)

// OverFetchFactor widens the similarity search so filtering still leaves topK.
const OverFetchFactor = 3

// DirectConnectionLabel attributes a first-degree candidate.
const DirectConnectionLabel = "Direct connection"

// Retrieve runs Phase 1: similarity search, eligibility filter and network
// bonus. The result holds at most topK candidates, best first.
func (s *Service) Retrieve(
	ctx context.Context, opp *opportunity.Opportunity, topK int,
) ([]dommatch.CandidateScore, error) {
	if topK <= 0 {
		return []dommatch.CandidateScore{}, nil
	}
	poster := opp.PostedBy()

	var (
		neighbors []domperson.Neighbor
		direct    []domrel.Relationship
		second    graph.SecondDegree
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		neighbors, err = s.searcher.Search(gctx, opp.QueryText(), topK*OverFetchFactor)
		if err != nil {
			return fmt.Errorf("similarity search: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		direct, err = s.graph.DirectConnections(gctx, poster)
		return err
	})
	g.Go(func() error {
		var err error
		second, err = s.graph.SecondDegree(gctx, poster)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(neighbors))
	embedding := make(map[string]float64, len(neighbors))
	for _, n := range neighbors {
		if n.PersonID == poster {
			continue
		}
		if _, dup := embedding[n.PersonID]; dup {
			continue
		}
		embedding[n.PersonID] = dommatch.ClampScore(n.Score)
		ids = append(ids, n.PersonID)
	}
	if len(ids) == 0 {
		metrics.RetrievalCandidates.Observe(0)
		return []dommatch.CandidateScore{}, nil
	}

	// The poster rides along so the direct-connection label can require a resolvable profile.
	profiles, err := s.persons.GetMany(ctx, append(ids, poster))
	if err != nil {
		return nil, fmt.Errorf("load candidate profiles: %w", err)
	}
	byID := make(map[string]domperson.Person, len(profiles))
	for i := range profiles {
		byID[profiles[i].ID()] = profiles[i]
	}
	_, posterResolved := byID[poster]

	first := make(map[string]struct{}, len(direct))
	for i := range direct {
		if other, ok := direct[i].OtherSide(poster); ok {
			first[other] = struct{}{}
		}
	}

	out := make([]dommatch.CandidateScore, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if !p.IsOpenTo(opp.Type()) {
			continue
		}

		c := dommatch.CandidateScore{
			Person:            p,
			EmbeddingScore:    embedding[id],
			SharedConnections: []string{},
		}
		switch {
		case hasKey(first, id):
			c.NetworkScore = FirstDegreeBonus
			if posterResolved {
				c.SharedConnections = []string{DirectConnectionLabel}
			}
		case second.Has(id):
			c.NetworkScore = SecondDegreeBonus
			c.SharedConnections = second.Via(id)
		}
		c.CombinedScore = c.EmbeddingScore + c.NetworkScore
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		return out[i].Person.ID() < out[j].Person.ID()
	})
	if len(out) > topK {
		out = out[:topK]
	}

	metrics.RetrievalCandidates.Observe(float64(len(out)))
	s.logger.Debug("Candidates retrieved",
		zap.String("opportunity_id", opp.ID()),
		zap.Int("neighbors", len(neighbors)),
		zap.Int("shortlist", len(out)),
		zap.Int("first_degree", len(first)),
		zap.Int("second_degree", second.Len()),
	)
	return out, nil
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
