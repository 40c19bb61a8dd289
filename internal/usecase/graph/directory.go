package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/serendip/internal/domain"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

// Degree labels a directory hit relative to the viewer.
type Degree string

// Degree values.
const (
	DegreeFirst  Degree = "1st"
	DegreeSecond Degree = "2nd"
	DegreeOther  Degree = "other"
)

// DefaultLookupLimit caps directory hits when the caller passes no limit.
const DefaultLookupLimit = 20

// DirectoryHit is one person matched by a directory lookup.
type DirectoryHit struct {
	Person      domperson.Person
	Degree      Degree
	Shared      []string
	Connections int
}

// Lookup finds people whose name, bio, skills or interests contain query
// (case-insensitive), excluding viewerID, and labels each by its distance
// from the viewer. Second-degree hits carry the bridging names.
func (s *Service) Lookup(ctx context.Context, viewerID, query string, limit int) ([]DirectoryHit, error) {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultLookupLimit
	}

	all, err := s.persons.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}

	first := map[string]struct{}{}
	second := newSecondDegree()
	if viewerID != "" {
		direct, err := s.DirectConnections(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		for i := range direct {
			if other, ok := direct[i].OtherSide(viewerID); ok {
				first[other] = struct{}{}
			}
		}
		if second, err = s.SecondDegree(ctx, viewerID); err != nil {
			return nil, err
		}
	}

	hits := make([]DirectoryHit, 0, limit)
	for i := range all {
		p := all[i]
		if p.ID() == viewerID || !matchesTerm(&p, term) {
			continue
		}
		rels, err := s.DirectConnections(ctx, p.ID())
		if err != nil {
			return nil, err
		}
		hit := DirectoryHit{Person: p, Degree: DegreeOther, Shared: []string{}, Connections: len(rels)}
		if _, ok := first[p.ID()]; ok {
			hit.Degree = DegreeFirst
		} else if second.Has(p.ID()) {
			hit.Degree = DegreeSecond
			hit.Shared = second.Via(p.ID())
		}
		hits = append(hits, hit)
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

func matchesTerm(p *domperson.Person, term string) bool {
	if strings.Contains(strings.ToLower(p.Name()), term) || strings.Contains(strings.ToLower(p.Bio()), term) {
		return true
	}
	for _, list := range [][]string{p.Skills(), p.Interests()} {
		for _, v := range list {
			if strings.Contains(strings.ToLower(v), term) {
				return true
			}
		}
	}
	return false
}
