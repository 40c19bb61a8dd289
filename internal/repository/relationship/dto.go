package relationship

import (
	"fmt"
	"strconv"
	"time"

	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

func relationshipToHash(r *domrel.Relationship) map[string]string {
	return map[string]string{
		"id":         r.ID(),
		"person_a":   r.PersonA(),
		"person_b":   r.PersonB(),
		"source":     string(r.Source()),
		"strength":   strconv.FormatFloat(r.Strength(), 'f', -1, 64),
		"created_at": strconv.FormatInt(r.CreatedAt().UnixMilli(), 10),
	}
}

func relationshipFromHash(m map[string]string) (domrel.Relationship, error) {
	strength := domrel.DefaultStrength
	if s := m["strength"]; s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domrel.Relationship{}, fmt.Errorf("invalid strength: %w", err)
		}
		strength = parsed
	}

	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domrel.Relationship{}, fmt.Errorf("invalid created_at: %w", err)
	}

	return domrel.Reconstruct(
		m["id"], m["person_a"], m["person_b"],
		domrel.Source(m["source"]), strength,
		time.UnixMilli(createdAt).UTC(),
	), nil
}
