package impression

import "time"

// Impression summarizes what the community says about a person.
type Impression struct {
	PersonID      string            `json:"person_id"`
	Summary       string            `json:"summary"`
	ByContext     map[string]string `json:"by_context"`
	FeedbackCount int               `json:"feedback_count"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// Empty returns the impression of a person nobody has reviewed yet.
func Empty(personID string, now time.Time) Impression {
	return Impression{
		PersonID:    personID,
		ByContext:   map[string]string{},
		GeneratedAt: now.UTC(),
	}
}
