// Package profile manages person profiles and answers similarity searches over them.
package profile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serendip/internal/domain"
	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
	domperson "github.com/kailas-cloud/serendip/internal/domain/person"
)

// Input carries raw profile fields from the transport layer.
type Input struct {
	ID        string
	Name      string
	Bio       string
	Skills    []string
	Interests []string
	OpenTo    []string
}

// Service handles profile writes and implements the embedding similarity search.
type Service struct {
	repo          Repository
	docEmbedder   domain.Embedder
	queryEmbedder domain.Embedder
	logger        *zap.Logger
}

// New creates a profile service. Profiles are embedded with docEmbedder,
// search text with queryEmbedder; asymmetric models need both.
func New(repo Repository, docEmbedder, queryEmbedder domain.Embedder, logger *zap.Logger) *Service {
	return &Service{
		repo:          repo,
		docEmbedder:   docEmbedder,
		queryEmbedder: queryEmbedder,
		logger:        logger,
	}
}

// EnsureIndex creates the profile vector index when missing.
func (s *Service) EnsureIndex(ctx context.Context) error {
	if err := s.repo.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure profile index: %w", err)
	}
	return nil
}

// Upsert validates the profile, embeds its text and stores both.
func (s *Service) Upsert(ctx context.Context, in Input) (domperson.Person, error) {
	openTo, err := opportunity.ParseTypes(in.OpenTo)
	if err != nil {
		return domperson.Person{}, err
	}
	p, err := domperson.New(in.ID, in.Name, in.Bio, in.Skills, in.Interests, openTo)
	if err != nil {
		return domperson.Person{}, err
	}

	emb, err := s.docEmbedder.Embed(ctx, p.EmbeddingText())
	if err != nil {
		return domperson.Person{}, fmt.Errorf("embed profile %s: %w", p.ID(), err)
	}

	if err := s.repo.Upsert(ctx, p, emb.Embedding); err != nil {
		return domperson.Person{}, fmt.Errorf("upsert profile: %w", err)
	}

	s.logger.Debug("Profile upserted",
		zap.String("person_id", p.ID()),
		zap.Int("dimensions", len(emb.Embedding)),
		zap.Int("total_tokens", emb.TotalTokens),
	)
	return p, nil
}

// Get retrieves a profile by id.
func (s *Service) Get(ctx context.Context, id string) (domperson.Person, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domperson.Person{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetMany retrieves the profiles that exist among ids, in input order.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]domperson.Person, error) {
	persons, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	return persons, nil
}

// List returns every profile ordered by name.
func (s *Service) List(ctx context.Context) ([]domperson.Person, error) {
	persons, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return persons, nil
}

// Delete removes a profile and its vector.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// Search embeds text and returns up to n nearest profiles, best first,
// with similarity clamped to [0,1].
func (s *Service) Search(ctx context.Context, text string, n int) ([]domperson.Neighbor, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: search text is required", domain.ErrInvalidInput)
	}
	if n <= 0 {
		return []domperson.Neighbor{}, nil
	}

	emb, err := s.queryEmbedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	neighbors, err := s.repo.Search(ctx, emb.Embedding, n)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	for i := range neighbors {
		neighbors[i].Score = dommatch.ClampScore(neighbors[i].Score)
	}
	return neighbors, nil
}
