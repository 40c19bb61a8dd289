package match

import (
	"time"

	"github.com/google/uuid"
)

// Match is a persisted pairing of an opportunity with a candidate. Immutable once written.
type Match struct {
	id             string
	opportunityID  string
	personID       string
	score          float64
	embeddingScore float64
	networkScore   float64
	explanation    string
	rank           int
	createdAt      time.Time
}

// New joins a ranking decision with the Phase 1 scores of the same candidate.
func New(opportunityID string, ranked RankedMatch, candidate *CandidateScore, now time.Time) Match {
	return Match{
		id:             uuid.NewString(),
		opportunityID:  opportunityID,
		personID:       ranked.PersonID,
		score:          ranked.Score,
		embeddingScore: candidate.EmbeddingScore,
		networkScore:   candidate.NetworkScore,
		explanation:    ranked.Explanation,
		rank:           ranked.Rank,
		createdAt:      now.UTC(),
	}
}

// Reconstruct creates a Match without validation (storage hydration).
func Reconstruct(
	id, opportunityID, personID string,
	score, embeddingScore, networkScore float64,
	explanation string, rank int, createdAt time.Time,
) Match {
	return Match{
		id:             id,
		opportunityID:  opportunityID,
		personID:       personID,
		score:          score,
		embeddingScore: embeddingScore,
		networkScore:   networkScore,
		explanation:    explanation,
		rank:           rank,
		createdAt:      createdAt,
	}
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// OpportunityID returns the matched opportunity.
func (m *Match) OpportunityID() string { return m.opportunityID }

// PersonID returns the matched candidate.
func (m *Match) PersonID() string { return m.personID }

// Score returns the final score.
func (m *Match) Score() float64 { return m.score }

// EmbeddingScore returns the profile similarity component.
func (m *Match) EmbeddingScore() float64 { return m.embeddingScore }

// NetworkScore returns the social proximity component.
func (m *Match) NetworkScore() float64 { return m.networkScore }

// Explanation returns the human-readable reason for the match.
func (m *Match) Explanation() string { return m.explanation }

// Rank returns the 1-based position.
func (m *Match) Rank() int { return m.rank }

// CreatedAt returns the creation timestamp.
func (m *Match) CreatedAt() time.Time { return m.createdAt }
