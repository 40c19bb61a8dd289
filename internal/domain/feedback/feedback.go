package feedback

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/serendip/internal/domain"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
)

// MaxTextLen bounds a single feedback note.
const MaxTextLen = 2000

// Feedback is one person's note about another, scoped to an opportunity type.
type Feedback struct {
	id        string
	fromID    string
	toID      string
	context   opportunity.Type
	text      string
	createdAt time.Time
}

// New validates input and creates Feedback.
func New(fromID, toID string, context opportunity.Type, text string, now time.Time) (Feedback, error) {
	text = strings.TrimSpace(text)
	switch {
	case fromID == "" || toID == "":
		return Feedback{}, fmt.Errorf("%w: author and subject are required", domain.ErrInvalidInput)
	case fromID == toID:
		return Feedback{}, fmt.Errorf("%w: cannot leave feedback about yourself", domain.ErrInvalidInput)
	case context == "":
		return Feedback{}, fmt.Errorf("%w: context type is required", domain.ErrInvalidInput)
	case text == "":
		return Feedback{}, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	case len(text) > MaxTextLen:
		return Feedback{}, fmt.Errorf("%w: text too long (max %d)", domain.ErrInvalidInput, MaxTextLen)
	}

	return Feedback{
		id:        uuid.NewString(),
		fromID:    fromID,
		toID:      toID,
		context:   context,
		text:      text,
		createdAt: now.UTC(),
	}, nil
}

// Reconstruct creates Feedback without validation (storage hydration).
func Reconstruct(id, fromID, toID string, context opportunity.Type, text string, createdAt time.Time) Feedback {
	return Feedback{id: id, fromID: fromID, toID: toID, context: context, text: text, createdAt: createdAt}
}

// ID returns the feedback identifier.
func (f *Feedback) ID() string { return f.id }

// FromID returns the author.
func (f *Feedback) FromID() string { return f.fromID }

// ToID returns the subject.
func (f *Feedback) ToID() string { return f.toID }

// Context returns the opportunity type the feedback refers to.
func (f *Feedback) Context() opportunity.Type { return f.context }

// Text returns the note.
func (f *Feedback) Text() string { return f.text }

// CreatedAt returns the creation timestamp.
func (f *Feedback) CreatedAt() time.Time { return f.createdAt }
