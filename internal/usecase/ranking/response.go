package ranking

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/serendip/internal/domain"
	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
)

// rankedEntry is one element of the oracle's JSON array.
type rankedEntry struct {
	PersonID    string  `json:"person_id"   validate:"required"`
	Rank        int     `json:"rank"        validate:"gte=1"`
	Score       float64 `json:"score"       validate:"gte=0,lte=1"`
	Explanation string  `json:"explanation" validate:"required,max=2000"`
}

// parseRanking decodes and validates the oracle reply. The reply must rank
// every candidate exactly once with ranks 1..n; anything else is malformed.
func parseRanking(
	raw string, candidates []dommatch.CandidateScore, v *validator.Validate,
) ([]dommatch.RankedMatch, error) {
	var entries []rankedEntry
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &entries); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", domain.ErrMalformedOracleResponse, err)
	}
	if len(entries) != len(candidates) {
		return nil, fmt.Errorf("%w: got %d entries for %d candidates",
			domain.ErrMalformedOracleResponse, len(entries), len(candidates))
	}

	known := make(map[string]struct{}, len(candidates))
	for i := range candidates {
		known[candidates[i].Person.ID()] = struct{}{}
	}

	seenIDs := make(map[string]struct{}, len(entries))
	seenRanks := make(map[int]struct{}, len(entries))
	out := make([]dommatch.RankedMatch, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if err := v.Struct(e); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", domain.ErrMalformedOracleResponse, i, err)
		}
		if _, ok := known[e.PersonID]; !ok {
			return nil, fmt.Errorf("%w: unknown person %q", domain.ErrMalformedOracleResponse, e.PersonID)
		}
		if _, dup := seenIDs[e.PersonID]; dup {
			return nil, fmt.Errorf("%w: person %q ranked twice", domain.ErrMalformedOracleResponse, e.PersonID)
		}
		if e.Rank > len(entries) {
			return nil, fmt.Errorf("%w: rank %d out of range", domain.ErrMalformedOracleResponse, e.Rank)
		}
		if _, dup := seenRanks[e.Rank]; dup {
			return nil, fmt.Errorf("%w: rank %d assigned twice", domain.ErrMalformedOracleResponse, e.Rank)
		}
		seenIDs[e.PersonID] = struct{}{}
		seenRanks[e.Rank] = struct{}{}

		out = append(out, dommatch.RankedMatch{
			PersonID:    e.PersonID,
			Rank:        e.Rank,
			Score:       e.Score,
			Explanation: strings.TrimSpace(e.Explanation),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence some models add despite instructions.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
