package chi

import (
	"context"

	domfb "github.com/kailas-cloud/serendip/internal/domain/feedback"
	domimp "github.com/kailas-cloud/serendip/internal/domain/impression"
	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
	connrequc "github.com/kailas-cloud/serendip/internal/usecase/connectionrequest"
	"github.com/kailas-cloud/serendip/internal/usecase/graph"
	healthuc "github.com/kailas-cloud/serendip/internal/usecase/health"
	impressionuc "github.com/kailas-cloud/serendip/internal/usecase/impression"
	opportunityuc "github.com/kailas-cloud/serendip/internal/usecase/opportunity"
	profileuc "github.com/kailas-cloud/serendip/internal/usecase/profile"
)

// ProfileService manages profiles.
type ProfileService interface {
	Upsert(ctx context.Context, in profileuc.Input) (domperson.Person, error)
	Get(ctx context.Context, id string) (domperson.Person, error)
	List(ctx context.Context) ([]domperson.Person, error)
}

// GraphService reads and extends the social graph.
type GraphService interface {
	DirectConnections(ctx context.Context, personID string) ([]domrel.Relationship, error)
	SecondDegree(ctx context.Context, personID string) (graph.SecondDegree, error)
	Connect(
		ctx context.Context, personA, personB string, source domrel.Source, strength float64,
	) (domrel.Relationship, error)
	Lookup(ctx context.Context, viewerID, query string, limit int) ([]graph.DirectoryHit, error)
}

// OpportunityService creates opportunities and serves their matches.
type OpportunityService interface {
	Create(ctx context.Context, in opportunityuc.Input) (opportunityuc.Result, error)
	Get(ctx context.Context, id string) (opportunityuc.Result, error)
	Matches(ctx context.Context, id string) ([]dommatch.Match, error)
	List(ctx context.Context) ([]opportunityuc.Listing, error)
}

// ConnectionRequestService runs the request/accept workflow.
type ConnectionRequestService interface {
	Create(ctx context.Context, in connrequc.CreateInput) (connrequc.View, error)
	Exists(ctx context.Context, fromID, toID, opportunityID string) (bool, error)
	Incoming(ctx context.Context, personID string) ([]connrequc.View, error)
	Outgoing(ctx context.Context, personID string) ([]connrequc.View, error)
	ByOpportunity(ctx context.Context, opportunityID, actorID string) ([]connrequc.View, error)
	Accept(ctx context.Context, id, actorID string) (connrequc.View, error)
	Decline(ctx context.Context, id, actorID string) (connrequc.View, error)
}

// ImpressionService records feedback and serves impressions.
type ImpressionService interface {
	AddFeedback(ctx context.Context, in impressionuc.FeedbackInput) (domfb.Feedback, error)
	Get(ctx context.Context, personID string) (domimp.Impression, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
