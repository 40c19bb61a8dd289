package chi

import (
	"time"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	domopp "github.com/kailas-cloud/serendip/internal/domain/opportunity"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
	connrequc "github.com/kailas-cloud/serendip/internal/usecase/connectionrequest"
	"github.com/kailas-cloud/serendip/internal/usecase/graph"
	"github.com/kailas-cloud/serendip/internal/version"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodePersonNotFound         ErrorCode = "person_not_found"
	ErrorCodeOpportunityNotFound    ErrorCode = "opportunity_not_found"
	ErrorCodeRequestNotFound        ErrorCode = "connection_request_not_found"
	ErrorCodeForbidden              ErrorCode = "forbidden"
	ErrorCodeAlreadyExists          ErrorCode = "already_exists"
	ErrorCodeRateLimited            ErrorCode = "rate_limited"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeGeneratorError         ErrorCode = "generator_error"
	ErrorCodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// UpsertPersonRequest is the body of POST /persons.
type UpsertPersonRequest struct {
	ID        string   `json:"id,omitempty" validate:"omitempty,max=128"`
	Name      string   `json:"name"         validate:"required,max=200"`
	Bio       string   `json:"bio"`
	Skills    []string `json:"skills"       validate:"max=50,dive,max=100"`
	Interests []string `json:"interests"    validate:"max=50,dive,max=100"`
	OpenTo    []string `json:"open_to"      validate:"max=10"`
}

// PersonResponse describes a profile.
type PersonResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Bio       string   `json:"bio"`
	Skills    []string `json:"skills"`
	Interests []string `json:"interests"`
	OpenTo    []string `json:"open_to"`
}

// PersonListResponse is the body of GET /persons.
type PersonListResponse struct {
	Items []PersonResponse `json:"items"`
}

// DirectoryHitResponse is one result of GET /persons/search.
type DirectoryHitResponse struct {
	Person      PersonResponse `json:"person"`
	Degree      string         `json:"degree"`
	Shared      []string       `json:"shared_connections"`
	Connections int            `json:"connection_count"`
}

// DirectoryResponse is the body of GET /persons/search.
type DirectoryResponse struct {
	Items []DirectoryHitResponse `json:"items"`
}

// CreateRelationshipRequest is the body of POST /relationships.
type CreateRelationshipRequest struct {
	PersonA  string  `json:"person_a" validate:"required"`
	PersonB  string  `json:"person_b" validate:"required,nefield=PersonA"`
	Source   string  `json:"source"`
	Strength float64 `json:"strength" validate:"gte=0,lte=1"`
}

// RelationshipResponse describes a stored relationship.
type RelationshipResponse struct {
	ID        string    `json:"id"`
	PersonA   string    `json:"person_a"`
	PersonB   string    `json:"person_b"`
	Source    string    `json:"source"`
	Strength  float64   `json:"strength"`
	CreatedAt time.Time `json:"created_at"`
}

// ConnectionResponse is one first-degree entry of a network view.
type ConnectionResponse struct {
	PersonID       string  `json:"person_id"`
	RelationshipID string  `json:"relationship_id"`
	Source         string  `json:"source"`
	Strength       float64 `json:"strength"`
}

// SecondDegreeResponse is one second-degree entry of a network view.
type SecondDegreeResponse struct {
	PersonID string   `json:"person_id"`
	Via      []string `json:"via"`
}

// NetworkResponse is the body of GET /persons/{id}/network.
type NetworkResponse struct {
	PersonID     string                 `json:"person_id"`
	FirstDegree  []ConnectionResponse   `json:"first_degree"`
	SecondDegree []SecondDegreeResponse `json:"second_degree"`
}

// CreateOpportunityRequest is the body of POST /opportunities.
type CreateOpportunityRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type"        validate:"required"`
	PostedBy    string `json:"posted_by"   validate:"required"`
	TopK        int    `json:"top_k"       validate:"gte=0"`
}

// OpportunityResponse describes an opportunity.
type OpportunityResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	PostedBy    string    `json:"posted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// OpportunityListItem is one entry of GET /opportunities.
type OpportunityListItem struct {
	OpportunityResponse
	PosterName string `json:"poster_name"`
}

// OpportunityListResponse is the body of GET /opportunities.
type OpportunityListResponse struct {
	Items []OpportunityListItem `json:"items"`
}

// MatchResponse describes one ranked match.
type MatchResponse struct {
	ID             string    `json:"id"`
	PersonID       string    `json:"person_id"`
	Rank           int       `json:"rank"`
	Score          float64   `json:"score"`
	EmbeddingScore float64   `json:"embedding_score"`
	NetworkScore   float64   `json:"network_score"`
	Explanation    string    `json:"explanation"`
	CreatedAt      time.Time `json:"created_at"`
}

// OpportunityWithMatchesResponse is returned by create and get.
type OpportunityWithMatchesResponse struct {
	Opportunity OpportunityResponse `json:"opportunity"`
	Matches     []MatchResponse     `json:"matches"`
}

// MatchListResponse is the body of GET /opportunities/{id}/matches.
type MatchListResponse struct {
	Items []MatchResponse `json:"items"`
}

// CreateFeedbackRequest is the body of POST /feedback.
type CreateFeedbackRequest struct {
	FromID  string `json:"from_id" validate:"required"`
	ToID    string `json:"to_id"   validate:"required"`
	Context string `json:"context" validate:"required"`
	Text    string `json:"text"    validate:"required"`
}

// FeedbackResponse acknowledges stored feedback.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	ToID      string    `json:"to_id"`
	Context   string    `json:"context"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateConnectionRequestRequest is the body of POST /connection-requests.
type CreateConnectionRequestRequest struct {
	FromID        string `json:"from_id"        validate:"required"`
	ToID          string `json:"to_id"          validate:"required,nefield=FromID"`
	OpportunityID string `json:"opportunity_id"`
	MatchID       string `json:"match_id"`
}

// RespondConnectionRequestRequest is the body of accept and decline.
type RespondConnectionRequestRequest struct {
	PersonID string `json:"person_id" validate:"required"`
}

// ConnectionRequestResponse describes a connection request.
type ConnectionRequestResponse struct {
	ID               string    `json:"id"`
	FromID           string    `json:"from_id"`
	FromName         string    `json:"from_name"`
	ToID             string    `json:"to_id"`
	ToName           string    `json:"to_name"`
	OpportunityID    string    `json:"opportunity_id,omitempty"`
	OpportunityTitle string    `json:"opportunity_title,omitempty"`
	MatchID          string    `json:"match_id,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// ConnectionRequestListResponse wraps a list of connection requests.
type ConnectionRequestListResponse struct {
	Items []ConnectionRequestResponse `json:"items"`
}

// ConnectionRequestCheckResponse is the body of GET /connection-requests/check.
type ConnectionRequestCheckResponse struct {
	Exists bool `json:"exists"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version version.Info      `json:"version"`
}

func personToResponse(p *domperson.Person) PersonResponse {
	openTo := make([]string, len(p.OpenTo()))
	for i, t := range p.OpenTo() {
		openTo[i] = t.String()
	}
	return PersonResponse{
		ID:        p.ID(),
		Name:      p.Name(),
		Bio:       p.Bio(),
		Skills:    nonNil(p.Skills()),
		Interests: nonNil(p.Interests()),
		OpenTo:    openTo,
	}
}

func relationshipToResponse(r *domrel.Relationship) RelationshipResponse {
	return RelationshipResponse{
		ID:        r.ID(),
		PersonA:   r.PersonA(),
		PersonB:   r.PersonB(),
		Source:    string(r.Source()),
		Strength:  r.Strength(),
		CreatedAt: r.CreatedAt(),
	}
}

func opportunityToResponse(o *domopp.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:          o.ID(),
		Title:       o.Title(),
		Description: o.Description(),
		Type:        o.Type().String(),
		PostedBy:    o.PostedBy(),
		CreatedAt:   o.CreatedAt(),
	}
}

func directoryToResponse(hits []graph.DirectoryHit) DirectoryResponse {
	out := DirectoryResponse{Items: make([]DirectoryHitResponse, len(hits))}
	for i := range hits {
		h := &hits[i]
		out.Items[i] = DirectoryHitResponse{
			Person:      personToResponse(&h.Person),
			Degree:      string(h.Degree),
			Shared:      nonNil(h.Shared),
			Connections: h.Connections,
		}
	}
	return out
}

func connectionRequestToResponse(v *connrequc.View) ConnectionRequestResponse {
	r := &v.Request
	return ConnectionRequestResponse{
		ID:               r.ID(),
		FromID:           r.FromID(),
		FromName:         v.FromName,
		ToID:             r.ToID(),
		ToName:           v.ToName,
		OpportunityID:    r.OpportunityID(),
		OpportunityTitle: v.OpportunityTitle,
		MatchID:          r.MatchID(),
		Status:           string(r.Status()),
		CreatedAt:        r.CreatedAt(),
	}
}

func connectionRequestsToResponse(vs []connrequc.View) ConnectionRequestListResponse {
	out := ConnectionRequestListResponse{Items: make([]ConnectionRequestResponse, len(vs))}
	for i := range vs {
		out.Items[i] = connectionRequestToResponse(&vs[i])
	}
	return out
}

func matchesToResponse(ms []dommatch.Match) []MatchResponse {
	out := make([]MatchResponse, len(ms))
	for i := range ms {
		m := &ms[i]
		out[i] = MatchResponse{
			ID:             m.ID(),
			PersonID:       m.PersonID(),
			Rank:           m.Rank(),
			Score:          m.Score(),
			EmbeddingScore: m.EmbeddingScore(),
			NetworkScore:   m.NetworkScore(),
			Explanation:    m.Explanation(),
			CreatedAt:      m.CreatedAt(),
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
