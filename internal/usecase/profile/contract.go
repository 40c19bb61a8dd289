package profile

import (
	"context"

	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

// Repository defines the storage contract for profiles and their vectors.
type Repository interface {
	Upsert(ctx context.Context, p domperson.Person, vector []float32) error
	Get(ctx context.Context, id string) (domperson.Person, error)
	GetMany(ctx context.Context, ids []string) ([]domperson.Person, error)
	List(ctx context.Context) ([]domperson.Person, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, vector []float32, k int) ([]domperson.Neighbor, error)
	EnsureIndex(ctx context.Context) error
}
