package opportunity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/serendip/internal/domain"
)

// Size limits for user-supplied text.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 5000
)

// Opportunity is something a person posts that others can be matched to. Immutable once created.
type Opportunity struct {
	id          string
	title       string
	description string
	typ         Type
	postedBy    string
	createdAt   time.Time
}

// New validates input and creates an Opportunity with a fresh ID.
func New(title, description string, typ Type, postedBy string, now time.Time) (Opportunity, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	switch {
	case title == "":
		return Opportunity{}, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	case len(title) > MaxTitleLen:
		return Opportunity{}, fmt.Errorf("%w: title too long (max %d)", domain.ErrInvalidInput, MaxTitleLen)
	case len(description) > MaxDescriptionLen:
		return Opportunity{}, fmt.Errorf("%w: description too long (max %d)", domain.ErrInvalidInput, MaxDescriptionLen)
	case postedBy == "":
		return Opportunity{}, fmt.Errorf("%w: poster is required", domain.ErrInvalidInput)
	case typ == "":
		return Opportunity{}, fmt.Errorf("%w: type is required", domain.ErrInvalidInput)
	}

	return Opportunity{
		id:          uuid.NewString(),
		title:       title,
		description: description,
		typ:         typ,
		postedBy:    postedBy,
		createdAt:   now.UTC(),
	}, nil
}

// Reconstruct creates an Opportunity without validation (storage hydration).
func Reconstruct(id, title, description string, typ Type, postedBy string, createdAt time.Time) Opportunity {
	return Opportunity{
		id:          id,
		title:       title,
		description: description,
		typ:         typ,
		postedBy:    postedBy,
		createdAt:   createdAt,
	}
}

// ID returns the opportunity identifier.
func (o *Opportunity) ID() string { return o.id }

// Title returns the short title.
func (o *Opportunity) Title() string { return o.title }

// Description returns the free-text description.
func (o *Opportunity) Description() string { return o.description }

// Type returns the opportunity kind.
func (o *Opportunity) Type() Type { return o.typ }

// PostedBy returns the poster's person ID.
func (o *Opportunity) PostedBy() string { return o.postedBy }

// CreatedAt returns the creation timestamp (UTC).
func (o *Opportunity) CreatedAt() time.Time { return o.createdAt }

// QueryText is the text embedded to search for matching profiles.
func (o *Opportunity) QueryText() string {
	return o.title + ". " + o.description
}
