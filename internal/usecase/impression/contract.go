package impression

import (
	"context"

	domfb "github.com/kailas-cloud/serendip/internal/domain/feedback"
	domimp "github.com/kailas-cloud/serendip/internal/domain/impression"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

// FeedbackRepository defines the storage contract for feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, fb domfb.Feedback) error
	ListForPerson(ctx context.Context, personID string) ([]domfb.Feedback, error)
}

// Cache holds generated impressions keyed by person id.
type Cache interface {
	Get(ctx context.Context, personID string) (domimp.Impression, bool, error)
	Set(ctx context.Context, imp domimp.Impression) error
	Invalidate(ctx context.Context, personID string) error
}

// PersonReader checks that people exist.
type PersonReader interface {
	Get(ctx context.Context, id string) (domperson.Person, error)
}
