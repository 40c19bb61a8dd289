// Package opportunity creates opportunities and triggers matching for them.
package opportunity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	domopp "github.com/kailas-cloud/serendip/internal/domain/opportunity"
	"github.com/kailas-cloud/serendip/internal/logger"
)

// Input carries raw opportunity fields from the transport layer.
type Input struct {
	Title       string
	Description string
	Type        string
	PostedBy    string
	TopK        int
}

// Result is an opportunity with its ranked matches.
type Result struct {
	Opportunity domopp.Opportunity
	Matches     []dommatch.Match
}

// Listing is an opportunity with its poster's display name.
type Listing struct {
	Opportunity domopp.Opportunity
	PosterName  string
}

// Service handles the opportunity lifecycle.
type Service struct {
	repo    Repository
	persons PersonReader
	matcher Matcher
	logger  *zap.Logger
	now     func() time.Time
}

// New creates an opportunity service.
func New(repo Repository, persons PersonReader, matcher Matcher, logger *zap.Logger) *Service {
	return &Service{repo: repo, persons: persons, matcher: matcher, logger: logger, now: time.Now}
}

// Create validates and stores the opportunity, then matches it.
// A matching failure is returned with the already-stored opportunity.
func (s *Service) Create(ctx context.Context, in Input) (Result, error) {
	typ, err := domopp.ParseType(in.Type)
	if err != nil {
		return Result{}, err
	}
	opp, err := domopp.New(in.Title, in.Description, typ, in.PostedBy, s.now())
	if err != nil {
		return Result{}, err
	}

	if _, err := s.persons.Get(ctx, in.PostedBy); err != nil {
		if errors.Is(err, domain.ErrPersonNotFound) {
			return Result{}, fmt.Errorf("poster %s: %w", in.PostedBy, domain.ErrPersonNotFound)
		}
		return Result{}, fmt.Errorf("get poster %s: %w", in.PostedBy, err)
	}

	if err := s.repo.Create(ctx, opp); err != nil {
		return Result{}, fmt.Errorf("create opportunity: %w", err)
	}
	logger.FromContext(ctx, s.logger).Info("Opportunity created",
		zap.String("opportunity_id", opp.ID()),
		zap.String("type", typ.String()),
		zap.String("posted_by", opp.PostedBy()),
	)

	matches, err := s.matcher.FindMatches(ctx, opp, in.TopK)
	if err != nil {
		return Result{Opportunity: opp}, fmt.Errorf("match opportunity %s: %w", opp.ID(), err)
	}
	return Result{Opportunity: opp, Matches: matches}, nil
}

// Get returns the opportunity and its stored matches.
func (s *Service) Get(ctx context.Context, id string) (Result, error) {
	opp, err := s.repo.Get(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("get opportunity %s: %w", id, err)
	}
	matches, err := s.matcher.GetMatches(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Opportunity: opp, Matches: matches}, nil
}

// Matches returns the stored matches of an existing opportunity.
func (s *Service) Matches(ctx context.Context, id string) ([]dommatch.Match, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return res.Matches, nil
}

// List returns every opportunity, newest first. A poster that no longer
// exists leaves PosterName empty.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	opps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	names := make(map[string]string)
	out := make([]Listing, 0, len(opps))
	for _, opp := range opps {
		name, ok := names[opp.PostedBy()]
		if !ok {
			p, err := s.persons.Get(ctx, opp.PostedBy())
			switch {
			case err == nil:
				name = p.Name()
			case errors.Is(err, domain.ErrPersonNotFound):
			default:
				return nil, fmt.Errorf("get poster %s: %w", opp.PostedBy(), err)
			}
			names[opp.PostedBy()] = name
		}
		out = append(out, Listing{Opportunity: opp, PosterName: name})
	}
	return out, nil
}
