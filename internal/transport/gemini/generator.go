// Package gemini adapts the Google GenAI SDK to the domain.Generator contract.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/serendip/internal/domain"
	"github.com/kailas-cloud/serendip/internal/metrics"
)

const (
	defaultModel = "gemini-2.5-flash"
	providerName = "gemini"
	maxAttempts  = 3
)

var sleep = time.Sleep

// models is the subset of genai.Models the generator depends on.
type models interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Config holds Gemini generator settings.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      *zap.Logger
}

// Generator produces text with the Gemini API.
type Generator struct {
	models    models
	modelName string
	config    *genai.GenerateContentConfig
	logger    *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGenerator(client.Models, cfg), nil
}

func newGenerator(m models, cfg *Config) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	genCfg := &genai.GenerateContentConfig{}
	if cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(cfg.MaxTokens) //nolint:gosec // bounded by config validation
	}
	temp := cfg.Temperature
	genCfg.Temperature = &temp

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{models: m, modelName: model, config: genCfg, logger: logger}
}

// Generate implements domain.Generator. Temporary upstream failures are retried with backoff.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), g.config)
		if err == nil {
			text := collectText(resp)
			if text == "" {
				metrics.GeneratorRequestsTotal.WithLabelValues(providerName, g.modelName, "empty").Inc()
				return "", fmt.Errorf("gemini api returned empty response: %w", domain.ErrGeneratorError)
			}
			metrics.GeneratorRequestsTotal.WithLabelValues(providerName, g.modelName, "success").Inc()
			metrics.GeneratorRequestDuration.WithLabelValues(providerName, g.modelName).
				Observe(time.Since(start).Seconds())
			return text, nil
		}

		lastErr = err
		if !isTemporary(err) || attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		backoff := time.Duration(attempt) * time.Second
		g.logger.Warn("Gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		sleep(backoff)
	}

	metrics.GeneratorRequestsTotal.WithLabelValues(providerName, g.modelName, "error").Inc()
	return "", fmt.Errorf("generate content: %w: %w", lastErr, domain.ErrGeneratorError)
}

// HealthCheck verifies the configured model is reachable.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.models.Get(ctx, g.modelName, nil); err != nil {
		return fmt.Errorf("gemini health check: %w", err)
	}
	return nil
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.modelName }

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

func isTemporary(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Code >= http.StatusInternalServerError
	}
	return false
}
