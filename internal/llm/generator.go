package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyCompletion means the upstream answered but carried no text.
	ErrEmptyCompletion = errors.New("generation API returned no completion text")
	// ErrNotConfigured means no API key was provided.
	ErrNotConfigured = errors.New("generation API key not configured")
)

// Generator produces a single text completion for a prompt. Implementations
// own their timeout and retry policy so callers stay policy-free and tests
// can substitute a fake without network access.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
