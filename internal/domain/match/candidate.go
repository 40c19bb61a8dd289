package match

import "github.com/kailas-cloud/serendip/internal/domain/person"

// CandidateScore is a Phase 1 shortlist entry. It lives only for one matching run.
type CandidateScore struct {
	Person            person.Person
	EmbeddingScore    float64  // [0, 1]
	NetworkScore      float64  // proximity bonus
	CombinedScore     float64  // EmbeddingScore + NetworkScore, may exceed 1
	SharedConnections []string // attribution shown to the ranker and the user
}

// RankedMatch is a Phase 2 ranking decision for one candidate.
type RankedMatch struct {
	PersonID    string
	Rank        int // 1-based
	Score       float64
	Explanation string
}

// ClampScore bounds a similarity score to [0,1].
func ClampScore(v float64) float64 {
	return max(0, min(1, v))
}
