// Package connectionrequest models an introduction request between two people,
// usually raised from a match on an opportunity.
package connectionrequest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/serendip/internal/domain"
)

// Status is the lifecycle state of a request.
type Status string

// Status values. Only pending requests can change state.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Request asks toID to connect with fromID.
type Request struct {
	id            string
	fromID        string
	toID          string
	opportunityID string
	matchID       string
	status        Status
	createdAt     time.Time
}

// New validates input and creates a pending request. opportunityID and
// matchID are optional.
func New(fromID, toID, opportunityID, matchID string, now time.Time) (Request, error) {
	switch {
	case fromID == "" || toID == "":
		return Request{}, fmt.Errorf("%w: requester and recipient are required", domain.ErrInvalidInput)
	case fromID == toID:
		return Request{}, fmt.Errorf("%w: cannot request a connection with yourself", domain.ErrInvalidInput)
	}
	return Request{
		id:            uuid.NewString(),
		fromID:        fromID,
		toID:          toID,
		opportunityID: opportunityID,
		matchID:       matchID,
		status:        StatusPending,
		createdAt:     now.UTC(),
	}, nil
}

// Reconstruct creates a Request without validation (storage hydration).
func Reconstruct(id, fromID, toID, opportunityID, matchID string, status Status, createdAt time.Time) Request {
	return Request{
		id:            id,
		fromID:        fromID,
		toID:          toID,
		opportunityID: opportunityID,
		matchID:       matchID,
		status:        status,
		createdAt:     createdAt,
	}
}

// ID returns the request identifier.
func (r *Request) ID() string { return r.id }

// FromID returns the requester.
func (r *Request) FromID() string { return r.fromID }

// ToID returns the recipient.
func (r *Request) ToID() string { return r.toID }

// OpportunityID returns the opportunity the request was raised from, if any.
func (r *Request) OpportunityID() string { return r.opportunityID }

// MatchID returns the match the request was raised from, if any.
func (r *Request) MatchID() string { return r.matchID }

// Status returns the lifecycle state.
func (r *Request) Status() Status { return r.status }

// CreatedAt returns the creation timestamp.
func (r *Request) CreatedAt() time.Time { return r.createdAt }

// Accept marks the request accepted on behalf of actorID.
func (r *Request) Accept(actorID string) error {
	return r.resolve(actorID, StatusAccepted)
}

// Decline marks the request declined on behalf of actorID.
func (r *Request) Decline(actorID string) error {
	return r.resolve(actorID, StatusDeclined)
}

func (r *Request) resolve(actorID string, to Status) error {
	if actorID != r.toID {
		return fmt.Errorf("%w: only the recipient can respond to a request", domain.ErrForbidden)
	}
	if r.status != StatusPending {
		return fmt.Errorf("%w: request already %s", domain.ErrInvalidInput, r.status)
	}
	r.status = to
	return nil
}
