// Package impression collects feedback and summarizes it into reputation impressions.
package impression

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/serendip/internal/domain"
	domfb "github.com/kailas-cloud/serendip/internal/domain/feedback"
	domimp "github.com/kailas-cloud/serendip/internal/domain/impression"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
	"github.com/kailas-cloud/serendip/internal/logger"
	"github.com/kailas-cloud/serendip/internal/metrics"
)

var errNoGenerator = errors.New("no generator configured")

const defaultGenerateTimeout = 30 * time.Second

// FeedbackInput carries raw feedback fields from the transport layer.
type FeedbackInput struct {
	FromID  string
	ToID    string
	Context string
	Text    string
}

// Service records feedback and serves cached impressions.
type Service struct {
	feedback  FeedbackRepository
	cache     Cache
	persons   PersonReader
	generator domain.Generator
	validate  *validator.Validate
	group     singleflight.Group
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time

	// generations counts feedback writes per person; a build only caches
	// its result if no write happened since it read the feedback list.
	genMu       sync.Mutex
	generations map[string]uint64
}

// New creates an impression service. A nil generator always yields the count-only summary.
func New(
	feedback FeedbackRepository, cache Cache, persons PersonReader, generator domain.Generator, logger *zap.Logger,
) *Service {
	return &Service{
		feedback:  feedback,
		cache:     cache,
		persons:   persons,
		generator: generator,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		timeout:   defaultGenerateTimeout,
		logger:    logger,
		now:       time.Now,

		generations: make(map[string]uint64),
	}
}

// WithTimeout bounds one impression build. Non-positive values keep the default.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// AddFeedback stores feedback about a person and drops their cached impression.
func (s *Service) AddFeedback(ctx context.Context, in FeedbackInput) (domfb.Feedback, error) {
	typ, err := opportunity.ParseType(in.Context)
	if err != nil {
		return domfb.Feedback{}, err
	}
	fb, err := domfb.New(in.FromID, in.ToID, typ, in.Text, s.now())
	if err != nil {
		return domfb.Feedback{}, err
	}

	for _, id := range []string{in.FromID, in.ToID} {
		if err := s.requirePerson(ctx, id); err != nil {
			return domfb.Feedback{}, err
		}
	}

	if err := s.feedback.Create(ctx, fb); err != nil {
		return domfb.Feedback{}, fmt.Errorf("create feedback: %w", err)
	}
	s.bumpGeneration(fb.ToID())
	s.group.Forget(fb.ToID())
	if err := s.cache.Invalidate(ctx, fb.ToID()); err != nil {
		s.logger.Error("Failed to invalidate impression", zap.String("person_id", fb.ToID()), zap.Error(err))
	}

	s.logger.Info("Feedback recorded",
		zap.String("feedback_id", fb.ID()),
		zap.String("to_id", fb.ToID()),
		zap.String("context", typ.String()),
	)
	return fb, nil
}

// Get returns the impression of personID, generating and caching it on a miss.
func (s *Service) Get(ctx context.Context, personID string) (domimp.Impression, error) {
	if err := s.requirePerson(ctx, personID); err != nil {
		return domimp.Impression{}, err
	}

	imp, ok, err := s.cache.Get(ctx, personID)
	if err != nil {
		s.logger.Warn("Impression cache read failed", zap.String("person_id", personID), zap.Error(err))
	}
	if ok {
		metrics.ImpressionCacheTotal.WithLabelValues("hit").Inc()
		return imp, nil
	}
	metrics.ImpressionCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := s.group.Do(personID, func() (any, error) {
		// Shared by every waiter, so one caller's cancellation must not abort it.
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.build(buildCtx, personID)
	})
	if err != nil {
		return domimp.Impression{}, err
	}
	return v.(domimp.Impression), nil //nolint:forcetypeassert // singleflight returns what build returns
}

func (s *Service) build(ctx context.Context, personID string) (domimp.Impression, error) {
	gen := s.generation(personID)
	items, err := s.feedback.ListForPerson(ctx, personID)
	if err != nil {
		return domimp.Impression{}, fmt.Errorf("list feedback for %s: %w", personID, err)
	}
	if len(items) == 0 {
		return domimp.Empty(personID, s.now()), nil
	}

	groups := groupByContext(items)
	imp := domimp.Impression{
		PersonID:      personID,
		FeedbackCount: len(items),
		GeneratedAt:   s.now().UTC(),
	}
	summary, byContext, err := s.summarize(ctx, groups)
	if err != nil {
		if !errors.Is(err, errNoGenerator) {
			s.logger.Warn("Impression generation failed, using count summary",
				zap.String("person_id", personID),
				zap.Int("feedback", len(items)),
				zap.Error(err),
			)
		}
		summary = fmt.Sprintf("Based on %d community interactions.", len(items))
		byContext = map[string]string{}
	}
	imp.Summary = summary
	imp.ByContext = byContext

	if s.generation(personID) != gen {
		s.logger.Debug("Feedback changed during build, impression not cached", zap.String("person_id", personID))
		return imp, nil
	}
	if err := s.cache.Set(ctx, imp); err != nil {
		s.logger.Warn("Impression cache write failed", zap.String("person_id", personID), zap.Error(err))
	}
	return imp, nil
}

func (s *Service) generation(personID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[personID]
}

func (s *Service) bumpGeneration(personID string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[personID]++
}

func (s *Service) summarize(ctx context.Context, groups []group) (string, map[string]string, error) {
	if s.generator == nil {
		return "", nil, errNoGenerator
	}
	prompt, err := buildPrompt(groups)
	if err != nil {
		return "", nil, err
	}
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("generate impression: %w", err)
	}
	summary, byContext, err := parseReply(raw, groups, s.validate)
	if err != nil {
		s.logger.Debug("Rejected impression reply", zap.String("reply", logger.Truncate(raw, 300)))
		return "", nil, err
	}
	return summary, byContext, nil
}

func (s *Service) requirePerson(ctx context.Context, id string) error {
	if _, err := s.persons.Get(ctx, id); err != nil {
		if errors.Is(err, domain.ErrPersonNotFound) {
			return fmt.Errorf("person %s: %w", id, domain.ErrPersonNotFound)
		}
		return fmt.Errorf("get person %s: %w", id, err)
	}
	return nil
}
