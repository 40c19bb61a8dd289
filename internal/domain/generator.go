package domain

import "context"

// Generator produces free text from a prompt. Ranking and impressions share it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
