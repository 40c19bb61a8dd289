// Package connectionrequest runs the request/accept workflow that turns a
// match into a relationship.
package connectionrequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	domreq "github.com/kailas-cloud/serendip/internal/domain/connectionrequest"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
	"github.com/kailas-cloud/serendip/internal/logger"
	"github.com/kailas-cloud/serendip/internal/metrics"
)

// CreateInput carries raw request fields from the transport layer.
type CreateInput struct {
	FromID        string
	ToID          string
	OpportunityID string
	MatchID       string
}

// View is a request with the display names of the people and opportunity it refers to.
type View struct {
	Request          domreq.Request
	FromName         string
	ToName           string
	OpportunityTitle string
}

// Service handles the connection request lifecycle.
type Service struct {
	repo          Repository
	persons       PersonReader
	opportunities OpportunityReader
	graph         Connector
	logger        *zap.Logger
	now           func() time.Time
}

// New creates a connection request service.
func New(
	repo Repository, persons PersonReader, opportunities OpportunityReader, graph Connector, logger *zap.Logger,
) *Service {
	return &Service{
		repo:          repo,
		persons:       persons,
		opportunities: opportunities,
		graph:         graph,
		logger:        logger,
		now:           time.Now,
	}
}

// Create raises a pending request. Both people and, when given, the
// opportunity must exist; one request per (from, to, opportunity) triple.
func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	req, err := domreq.New(in.FromID, in.ToID, in.OpportunityID, in.MatchID, s.now())
	if err != nil {
		return View{}, err
	}

	for _, id := range []string{in.FromID, in.ToID} {
		if _, err := s.persons.Get(ctx, id); err != nil {
			if errors.Is(err, domain.ErrPersonNotFound) {
				return View{}, fmt.Errorf("person %s: %w", id, domain.ErrPersonNotFound)
			}
			return View{}, fmt.Errorf("get person %s: %w", id, err)
		}
	}
	if in.OpportunityID != "" {
		if _, err := s.opportunities.Get(ctx, in.OpportunityID); err != nil {
			return View{}, fmt.Errorf("opportunity %s: %w", in.OpportunityID, err)
		}
	}

	exists, err := s.Exists(ctx, in.FromID, in.ToID, in.OpportunityID)
	if err != nil {
		return View{}, err
	}
	if exists {
		return View{}, fmt.Errorf("request from %s to %s: %w", in.FromID, in.ToID, domain.ErrAlreadyExists)
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return View{}, fmt.Errorf("create connection request: %w", err)
	}
	metrics.ConnectionRequestsTotal.WithLabelValues("created").Inc()
	logger.FromContext(ctx, s.logger).Info("Connection request created",
		zap.String("request_id", req.ID()),
		zap.String("from_id", req.FromID()),
		zap.String("to_id", req.ToID()),
		zap.String("opportunity_id", req.OpportunityID()),
	)
	return s.view(ctx, req), nil
}

// Exists reports whether fromID already asked toID about opportunityID,
// whatever the request's status.
func (s *Service) Exists(ctx context.Context, fromID, toID, opportunityID string) (bool, error) {
	outgoing, err := s.repo.ListOutgoing(ctx, fromID)
	if err != nil {
		return false, fmt.Errorf("list outgoing for %s: %w", fromID, err)
	}
	for i := range outgoing {
		if outgoing[i].ToID() == toID && outgoing[i].OpportunityID() == opportunityID {
			return true, nil
		}
	}
	return false, nil
}

// Incoming returns pending requests addressed to personID, newest first.
func (s *Service) Incoming(ctx context.Context, personID string) ([]View, error) {
	reqs, err := s.repo.ListIncoming(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list incoming for %s: %w", personID, err)
	}
	pending := reqs[:0]
	for i := range reqs {
		if reqs[i].Status() == domreq.StatusPending {
			pending = append(pending, reqs[i])
		}
	}
	return s.views(ctx, pending), nil
}

// Outgoing returns every request personID raised, newest first.
func (s *Service) Outgoing(ctx context.Context, personID string) ([]View, error) {
	reqs, err := s.repo.ListOutgoing(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing for %s: %w", personID, err)
	}
	return s.views(ctx, reqs), nil
}

// ByOpportunity returns the requests raised from an opportunity. Only its
// poster may read them.
func (s *Service) ByOpportunity(ctx context.Context, opportunityID, actorID string) ([]View, error) {
	opp, err := s.opportunities.Get(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("get opportunity %s: %w", opportunityID, err)
	}
	if opp.PostedBy() != actorID {
		return nil, fmt.Errorf("%w: only the poster can list requests for an opportunity", domain.ErrForbidden)
	}
	reqs, err := s.repo.ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list requests for %s: %w", opportunityID, err)
	}
	return s.views(ctx, reqs), nil
}

// Accept resolves a pending request on behalf of its recipient and links
// the two people with a match relationship.
func (s *Service) Accept(ctx context.Context, id, actorID string) (View, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, fmt.Errorf("get connection request %s: %w", id, err)
	}
	if err := req.Accept(actorID); err != nil {
		return View{}, err
	}

	// The link goes first so a failed status write can be retried; an
	// existing link between the two is kept as is.
	_, err = s.graph.Connect(ctx, req.FromID(), req.ToID(), domrel.SourceMatch, domrel.DefaultStrength)
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return View{}, fmt.Errorf("connect %s and %s: %w", req.FromID(), req.ToID(), err)
	}

	if err := s.repo.UpdateStatus(ctx, req); err != nil {
		return View{}, err
	}
	metrics.ConnectionRequestsTotal.WithLabelValues("accepted").Inc()
	logger.FromContext(ctx, s.logger).Info("Connection request accepted",
		zap.String("request_id", req.ID()),
		zap.String("from_id", req.FromID()),
		zap.String("to_id", req.ToID()),
	)
	return s.view(ctx, req), nil
}

// Decline resolves a pending request on behalf of its recipient.
func (s *Service) Decline(ctx context.Context, id, actorID string) (View, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, fmt.Errorf("get connection request %s: %w", id, err)
	}
	if err := req.Decline(actorID); err != nil {
		return View{}, err
	}
	if err := s.repo.UpdateStatus(ctx, req); err != nil {
		return View{}, err
	}
	metrics.ConnectionRequestsTotal.WithLabelValues("declined").Inc()
	return s.view(ctx, req), nil
}

func (s *Service) views(ctx context.Context, reqs []domreq.Request) []View {
	out := make([]View, 0, len(reqs))
	for i := range reqs {
		out = append(out, s.view(ctx, reqs[i]))
	}
	return out
}

// view resolves display names; lookups that fail leave them empty.
func (s *Service) view(ctx context.Context, req domreq.Request) View {
	v := View{Request: req}
	if p, err := s.persons.Get(ctx, req.FromID()); err == nil {
		v.FromName = p.Name()
	}
	if p, err := s.persons.Get(ctx, req.ToID()); err == nil {
		v.ToName = p.Name()
	}
	if req.OpportunityID() != "" {
		if opp, err := s.opportunities.Get(ctx, req.OpportunityID()); err == nil {
			v.OpportunityTitle = opp.Title()
		}
	}
	return v
}
