package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
	connrequc "github.com/kailas-cloud/serendip/internal/usecase/connectionrequest"
	healthuc "github.com/kailas-cloud/serendip/internal/usecase/health"
	impressionuc "github.com/kailas-cloud/serendip/internal/usecase/impression"
	opportunityuc "github.com/kailas-cloud/serendip/internal/usecase/opportunity"
	profileuc "github.com/kailas-cloud/serendip/internal/usecase/profile"
	"github.com/kailas-cloud/serendip/internal/version"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	profiles      ProfileService
	graph         GraphService
	opportunities OpportunityService
	impressions   ImpressionService
	requests      ConnectionRequestService
	health        HealthService
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	profiles ProfileService,
	graph GraphService,
	opportunities OpportunityService,
	impressions ImpressionService,
	requests ConnectionRequestService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		profiles:      profiles,
		graph:         graph,
		opportunities: opportunities,
		impressions:   impressions,
		requests:      requests,
		health:        health,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrPersonNotFound, http.StatusNotFound, ErrorCodePersonNotFound),
		sentinelHandler(domain.ErrOpportunityNotFound, http.StatusNotFound, ErrorCodeOpportunityNotFound),
		sentinelHandler(domain.ErrConnectionRequestNotFound, http.StatusNotFound, ErrorCodeRequestNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorCodeAlreadyExists),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorCodeForbidden),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrGeneratorError, http.StatusBadGateway, ErrorCodeGeneratorError),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, ErrorCodeVectorDimMismatch),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Post("/persons", s.UpsertPerson)
	r.Get("/persons", s.ListPersons)
	r.Get("/persons/search", s.SearchPersons)
	r.Get("/persons/{id}", s.GetPerson)
	r.Get("/persons/{id}/network", s.GetNetwork)
	r.Get("/persons/{id}/impression", s.GetImpression)
	r.Get("/persons/{id}/connection-requests/incoming", s.IncomingRequests)
	r.Get("/persons/{id}/connection-requests/outgoing", s.OutgoingRequests)

	r.Post("/relationships", s.CreateRelationship)

	r.Post("/opportunities", s.CreateOpportunity)
	r.Get("/opportunities", s.ListOpportunities)
	r.Get("/opportunities/{id}", s.GetOpportunity)
	r.Get("/opportunities/{id}/matches", s.ListMatches)
	r.Get("/opportunities/{id}/connection-requests", s.OpportunityRequests)

	r.Post("/connection-requests", s.CreateConnectionRequest)
	r.Get("/connection-requests/check", s.CheckConnectionRequest)
	r.Post("/connection-requests/{id}/accept", s.AcceptConnectionRequest)
	r.Post("/connection-requests/{id}/decline", s.DeclineConnectionRequest)

	r.Post("/feedback", s.CreateFeedback)
}

// UpsertPerson handles POST /persons.
func (s *Server) UpsertPerson(w http.ResponseWriter, r *http.Request) {
	var req UpsertPersonRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.profiles.Upsert(r.Context(), profileuc.Input{
		ID:        req.ID,
		Name:      req.Name,
		Bio:       req.Bio,
		Skills:    req.Skills,
		Interests: req.Interests,
		OpenTo:    req.OpenTo,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, personToResponse(&p))
}

// ListPersons handles GET /persons.
func (s *Server) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := s.profiles.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp := PersonListResponse{Items: make([]PersonResponse, len(persons))}
	for i := range persons {
		resp.Items[i] = personToResponse(&persons[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchPersons handles GET /persons/search?q=&viewer_id=&limit=.
func (s *Server) SearchPersons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	hits, err := s.graph.Lookup(r.Context(), q.Get("viewer_id"), q.Get("q"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directoryToResponse(hits))
}

// GetPerson handles GET /persons/{id}.
func (s *Server) GetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, personToResponse(&p))
}

// GetNetwork handles GET /persons/{id}/network.
func (s *Server) GetNetwork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.profiles.Get(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	direct, err := s.graph.DirectConnections(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	second, err := s.graph.SecondDegree(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := NetworkResponse{
		PersonID:     id,
		FirstDegree:  make([]ConnectionResponse, 0, len(direct)),
		SecondDegree: make([]SecondDegreeResponse, 0, second.Len()),
	}
	for i := range direct {
		other, ok := direct[i].OtherSide(id)
		if !ok {
			continue
		}
		resp.FirstDegree = append(resp.FirstDegree, ConnectionResponse{
			PersonID:       other,
			RelationshipID: direct[i].ID(),
			Source:         string(direct[i].Source()),
			Strength:       direct[i].Strength(),
		})
	}
	for _, pid := range second.IDs() {
		resp.SecondDegree = append(resp.SecondDegree, SecondDegreeResponse{PersonID: pid, Via: second.Via(pid)})
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateRelationship handles POST /relationships.
func (s *Server) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req CreateRelationshipRequest
	if !s.decode(w, r, &req) {
		return
	}
	source, err := domrel.ParseSource(req.Source)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	rel, err := s.graph.Connect(r.Context(), req.PersonA, req.PersonB, source, req.Strength)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, relationshipToResponse(&rel))
}

// CreateOpportunity handles POST /opportunities. Matching runs synchronously.
func (s *Server) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	var req CreateOpportunityRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.opportunities.Create(r.Context(), opportunityuc.Input{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		PostedBy:    req.PostedBy,
		TopK:        req.TopK,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/opportunities/"+res.Opportunity.ID())
	writeJSON(w, http.StatusCreated, OpportunityWithMatchesResponse{
		Opportunity: opportunityToResponse(&res.Opportunity),
		Matches:     matchesToResponse(res.Matches),
	})
}

// ListOpportunities handles GET /opportunities.
func (s *Server) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	listings, err := s.opportunities.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp := OpportunityListResponse{Items: make([]OpportunityListItem, len(listings))}
	for i := range listings {
		resp.Items[i] = OpportunityListItem{
			OpportunityResponse: opportunityToResponse(&listings[i].Opportunity),
			PosterName:          listings[i].PosterName,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOpportunity handles GET /opportunities/{id}.
func (s *Server) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	res, err := s.opportunities.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OpportunityWithMatchesResponse{
		Opportunity: opportunityToResponse(&res.Opportunity),
		Matches:     matchesToResponse(res.Matches),
	})
}

// ListMatches handles GET /opportunities/{id}/matches.
func (s *Server) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.opportunities.Matches(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MatchListResponse{Items: matchesToResponse(matches)})
}

// CreateConnectionRequest handles POST /connection-requests.
func (s *Server) CreateConnectionRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequestRequest
	if !s.decode(w, r, &req) {
		return
	}

	v, err := s.requests.Create(r.Context(), connrequc.CreateInput{
		FromID:        req.FromID,
		ToID:          req.ToID,
		OpportunityID: req.OpportunityID,
		MatchID:       req.MatchID,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, connectionRequestToResponse(&v))
}

// CheckConnectionRequest handles GET /connection-requests/check?from_id=&to_id=&opportunity_id=.
func (s *Server) CheckConnectionRequest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("from_id") == "" || q.Get("to_id") == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "from_id and to_id are required")
		return
	}
	exists, err := s.requests.Exists(r.Context(), q.Get("from_id"), q.Get("to_id"), q.Get("opportunity_id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConnectionRequestCheckResponse{Exists: exists})
}

// IncomingRequests handles GET /persons/{id}/connection-requests/incoming.
func (s *Server) IncomingRequests(w http.ResponseWriter, r *http.Request) {
	views, err := s.requests.Incoming(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, connectionRequestsToResponse(views))
}

// OutgoingRequests handles GET /persons/{id}/connection-requests/outgoing.
func (s *Server) OutgoingRequests(w http.ResponseWriter, r *http.Request) {
	views, err := s.requests.Outgoing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, connectionRequestsToResponse(views))
}

// OpportunityRequests handles GET /opportunities/{id}/connection-requests?person_id=.
// person_id must be the opportunity's poster.
func (s *Server) OpportunityRequests(w http.ResponseWriter, r *http.Request) {
	actor := r.URL.Query().Get("person_id")
	if actor == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "person_id is required")
		return
	}
	views, err := s.requests.ByOpportunity(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, connectionRequestsToResponse(views))
}

// AcceptConnectionRequest handles POST /connection-requests/{id}/accept.
func (s *Server) AcceptConnectionRequest(w http.ResponseWriter, r *http.Request) {
	s.respondToRequest(w, r, s.requests.Accept)
}

// DeclineConnectionRequest handles POST /connection-requests/{id}/decline.
func (s *Server) DeclineConnectionRequest(w http.ResponseWriter, r *http.Request) {
	s.respondToRequest(w, r, s.requests.Decline)
}

func (s *Server) respondToRequest(
	w http.ResponseWriter, r *http.Request,
	resolve func(ctx context.Context, id, actorID string) (connrequc.View, error),
) {
	var req RespondConnectionRequestRequest
	if !s.decode(w, r, &req) {
		return
	}
	v, err := resolve(r.Context(), chi.URLParam(r, "id"), req.PersonID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, connectionRequestToResponse(&v))
}

// CreateFeedback handles POST /feedback.
func (s *Server) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedbackRequest
	if !s.decode(w, r, &req) {
		return
	}

	fb, err := s.impressions.AddFeedback(r.Context(), impressionuc.FeedbackInput{
		FromID:  req.FromID,
		ToID:    req.ToID,
		Context: req.Context,
		Text:    req.Text,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FeedbackResponse{
		ID:        fb.ID(),
		ToID:      fb.ToID(),
		Context:   fb.Context().String(),
		CreatedAt: fb.CreatedAt(),
	})
}

// GetImpression handles GET /persons/{id}/impression.
func (s *Server) GetImpression(w http.ResponseWriter, r *http.Request) {
	imp, err := s.impressions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if imp.ByContext == nil {
		imp.ByContext = map[string]string{}
	}
	writeJSON(w, http.StatusOK, imp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks, Version: version.Get()})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

// validationMessage lists the failing fields without echoing values.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	msg := "invalid fields:"
	for _, fe := range verrs {
		msg += " " + fe.Field() + " (" + fe.Tag() + ")"
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message. Validation errors carry
// the user-facing reason; everything else is reduced to its sentinel.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrPersonNotFound,
		domain.ErrOpportunityNotFound,
		domain.ErrConnectionRequestNotFound,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrForbidden,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrGeneratorError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
