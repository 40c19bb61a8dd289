// Package graph reads and extends the social graph around a person.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

// Service answers first- and second-degree queries and records new links.
type Service struct {
	repo    Repository
	persons PersonReader
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a graph service.
func New(repo Repository, persons PersonReader, logger *zap.Logger) *Service {
	return &Service{repo: repo, persons: persons, logger: logger, now: time.Now}
}

// DirectConnections returns every relationship touching personID.
// A person without relationships gets an empty slice.
func (s *Service) DirectConnections(ctx context.Context, personID string) ([]domrel.Relationship, error) {
	rels, err := s.repo.ListByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list relationships for %s: %w", personID, err)
	}
	return rels, nil
}

// SecondDegree returns people exactly two hops from personID, each with the
// names of the first-degree connections bridging to them. Read-only.
func (s *Service) SecondDegree(ctx context.Context, personID string) (SecondDegree, error) {
	result := newSecondDegree()

	direct, err := s.DirectConnections(ctx, personID)
	if err != nil {
		return result, err
	}

	firstIDs := make([]string, 0, len(direct))
	first := make(map[string]struct{}, len(direct))
	for i := range direct {
		other, ok := direct[i].OtherSide(personID)
		if !ok {
			continue
		}
		if _, dup := first[other]; dup {
			continue
		}
		first[other] = struct{}{}
		firstIDs = append(firstIDs, other)
	}
	if len(firstIDs) == 0 {
		return result, nil
	}

	names, err := s.names(ctx, firstIDs)
	if err != nil {
		return result, err
	}

	for _, bridgeID := range firstIDs {
		rels, err := s.repo.ListByPerson(ctx, bridgeID)
		if err != nil {
			return newSecondDegree(), fmt.Errorf("list relationships for %s: %w", bridgeID, err)
		}
		for i := range rels {
			neighbor, ok := rels[i].OtherSide(bridgeID)
			if !ok || neighbor == personID {
				continue
			}
			if _, isFirst := first[neighbor]; isFirst {
				continue
			}
			result.add(neighbor, names[bridgeID])
		}
	}
	return result, nil
}

// Connect links two existing people. Both profiles must exist and an
// existing link between them is reported as ErrAlreadyExists.
func (s *Service) Connect(
	ctx context.Context, personA, personB string, source domrel.Source, strength float64,
) (domrel.Relationship, error) {
	rel, err := domrel.New(personA, personB, source, strength, s.now())
	if err != nil {
		return domrel.Relationship{}, err
	}

	for _, id := range []string{personA, personB} {
		if _, err := s.persons.Get(ctx, id); err != nil {
			if errors.Is(err, domain.ErrPersonNotFound) {
				return domrel.Relationship{}, fmt.Errorf("connect %s: %w", id, domain.ErrPersonNotFound)
			}
			return domrel.Relationship{}, fmt.Errorf("get person %s: %w", id, err)
		}
	}

	existing, err := s.DirectConnections(ctx, personA)
	if err != nil {
		return domrel.Relationship{}, err
	}
	for i := range existing {
		if existing[i].Involves(personB) {
			return domrel.Relationship{}, fmt.Errorf("%s and %s: %w", personA, personB, domain.ErrAlreadyExists)
		}
	}

	if err := s.repo.Create(ctx, rel); err != nil {
		return domrel.Relationship{}, fmt.Errorf("create relationship: %w", err)
	}

	s.logger.Info("Relationship created",
		zap.String("relationship_id", rel.ID()),
		zap.String("person_a", personA),
		zap.String("person_b", personB),
		zap.String("source", string(rel.Source())),
	)
	return rel, nil
}

// names resolves display names for ids; unresolved ids map to "".
func (s *Service) names(ctx context.Context, ids []string) (map[string]string, error) {
	persons, err := s.persons.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve bridge names: %w", err)
	}
	out := make(map[string]string, len(persons))
	for i := range persons {
		out[persons[i].ID()] = persons[i].Name()
	}
	return out, nil
}
