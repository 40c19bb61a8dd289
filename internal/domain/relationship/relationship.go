package relationship

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/serendip/internal/domain"
)

// Source records how a relationship came to exist.
type Source string

// Relationship sources.
const (
	SourceSeed   Source = "seed"
	SourceMatch  Source = "match"
	SourceManual Source = "manual"
)

// ParseSource validates a source string. Empty defaults to manual.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case "":
		return SourceManual, nil
	case SourceSeed, SourceMatch, SourceManual:
		return Source(s), nil
	default:
		return "", fmt.Errorf("%w: unknown relationship source %q", domain.ErrInvalidInput, s)
	}
}

// DefaultStrength is used when no strength is given.
const DefaultStrength = 1.0

// Relationship is an undirected link between two people.
type Relationship struct {
	id        string
	personA   string
	personB   string
	source    Source
	strength  float64
	createdAt time.Time
}

// New validates input and creates a Relationship. Strength 0 means DefaultStrength.
func New(personA, personB string, source Source, strength float64, now time.Time) (Relationship, error) {
	if personA == "" || personB == "" {
		return Relationship{}, fmt.Errorf("%w: both persons are required", domain.ErrInvalidInput)
	}
	if personA == personB {
		return Relationship{}, fmt.Errorf("%w: a person cannot be connected to themselves", domain.ErrInvalidInput)
	}
	if strength == 0 {
		strength = DefaultStrength
	}
	if strength < 0 || strength > 1 {
		return Relationship{}, fmt.Errorf("%w: strength must be in (0, 1], got %g", domain.ErrInvalidInput, strength)
	}
	if source == "" {
		source = SourceManual
	}

	return Relationship{
		id:        uuid.NewString(),
		personA:   personA,
		personB:   personB,
		source:    source,
		strength:  strength,
		createdAt: now.UTC(),
	}, nil
}

// Reconstruct creates a Relationship without validation (storage hydration).
func Reconstruct(id, personA, personB string, source Source, strength float64, createdAt time.Time) Relationship {
	return Relationship{
		id:        id,
		personA:   personA,
		personB:   personB,
		source:    source,
		strength:  strength,
		createdAt: createdAt,
	}
}

// ID returns the relationship identifier.
func (r *Relationship) ID() string { return r.id }

// PersonA returns the first endpoint as stored.
func (r *Relationship) PersonA() string { return r.personA }

// PersonB returns the second endpoint as stored.
func (r *Relationship) PersonB() string { return r.personB }

// Source returns how the relationship was created.
func (r *Relationship) Source() Source { return r.source }

// Strength returns the link weight in (0, 1].
func (r *Relationship) Strength() float64 { return r.strength }

// CreatedAt returns the creation timestamp.
func (r *Relationship) CreatedAt() time.Time { return r.createdAt }

// Involves reports whether personID is one of the endpoints.
func (r *Relationship) Involves(personID string) bool {
	return r.personA == personID || r.personB == personID
}

// OtherSide returns the endpoint opposite personID.
// ok is false when personID is not an endpoint.
func (r *Relationship) OtherSide(personID string) (other string, ok bool) {
	switch personID {
	case r.personA:
		return r.personB, true
	case r.personB:
		return r.personA, true
	default:
		return "", false
	}
}
