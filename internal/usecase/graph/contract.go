package graph

import (
	"context"

	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
	domrel "github.com/kailas-cloud/serendip/internal/domain/relationship"
)

// Repository defines the storage contract for relationships.
type Repository interface {
	Create(ctx context.Context, rel domrel.Relationship) error
	ListByPerson(ctx context.Context, personID string) ([]domrel.Relationship, error)
}

// PersonReader resolves profiles for bridge names, link validation and directory lookups.
type PersonReader interface {
	Get(ctx context.Context, id string) (domperson.Person, error)
	GetMany(ctx context.Context, ids []string) ([]domperson.Person, error)
	List(ctx context.Context) ([]domperson.Person, error)
}
