package service

import (
	"context"
	"errors"

	"github.com/angelahq/angela/internal/ollama"
	"github.com/angelahq/angela/internal/pkg/circuitbreaker"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// LLM is the model surface chat and memory services depend on.
type LLM interface {
	Chat(ctx context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error)
	Embed(ctx context.Context, model, prompt string) ([]float32, error)
}

// GuardedLLM wraps the Ollama client with circuit breakers so a down
// model server fails fast instead of stalling every request behind the
// HTTP timeout. Chat and embedding trip independently.
type GuardedLLM struct {
	client *ollama.Client
	chat   *circuitbreaker.Breaker
	embed  *circuitbreaker.Breaker
}

// NewGuardedLLM creates a breaker-guarded wrapper around an Ollama client.
func NewGuardedLLM(client *ollama.Client) *GuardedLLM {
	return &GuardedLLM{
		client: client,
		chat:   circuitbreaker.New(circuitbreaker.DefaultSettings("ollama-chat")),
		embed:  circuitbreaker.New(circuitbreaker.DefaultSettings("ollama-embed")),
	}
}

// Chat runs a guarded chat completion.
func (l *GuardedLLM) Chat(ctx context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error) {
	resp, err := circuitbreaker.DoValue(l.chat, ctx, func(ctx context.Context) (*ollama.ChatResponse, error) {
		return l.client.Chat(ctx, req)
	})
	if err != nil {
		return nil, wrapModelError(err)
	}
	return resp, nil
}

// Embed runs a guarded embedding request.
func (l *GuardedLLM) Embed(ctx context.Context, model, prompt string) ([]float32, error) {
	vec, err := circuitbreaker.DoValue(l.embed, ctx, func(ctx context.Context) ([]float32, error) {
		return l.client.Embed(ctx, model, prompt)
	})
	if err != nil {
		return nil, wrapModelError(err)
	}
	return vec, nil
}

// wrapModelError maps model server failures to a 503 the handlers can
// surface. Context cancellation passes through untouched.
func wrapModelError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, circuitbreaker.ErrProbeInFlight) {
		return apperrors.Unavailable("model server unavailable")
	}
	return apperrors.Unavailable("model server unavailable").WithError(err)
}
