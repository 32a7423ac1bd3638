// Package llm connects the pipeline to the model service: a chat model for
// planning and critique, and an image model for pictures.
//
// [OpenAI] talks to any OpenAI-compatible API. Transient failures (rate
// limits, 5xx responses, transport errors) are retried with exponential
// backoff; everything else is returned at once as a structured error.
//
// The decorators in this package add caching ([CachedCompleter],
// [CachedImager]) and pacing ([PacedImager]) to any implementation.
package llm

import (
	"context"
)

// Completer returns the model's reply to a single-turn prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Imager generates one raster image for a prompt and returns its bytes.
type Imager interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ImagerFunc adapts a function to the Imager interface.
type ImagerFunc func(ctx context.Context, prompt string) ([]byte, error)

// Generate calls f.
func (f ImagerFunc) Generate(ctx context.Context, prompt string) ([]byte, error) {
	return f(ctx, prompt)
}
