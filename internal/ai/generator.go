// Package ai wraps the text generation provider behind a small interface so
// the pipeline and tests can substitute fakes.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Options control a single completion call.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// TextGenerator is the blocking text-completion contract consumed by the
// check-in extractor and the coach.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// ErrDisabled is returned by the disabled generator when no provider
// credentials are configured.
var ErrDisabled = errors.New("text generation provider not configured")

// Disabled is a TextGenerator that always fails. Callers degrade to their
// fixed fallback text, so the service stays usable without credentials.
type Disabled struct{}

func (Disabled) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	return "", ErrDisabled
}

// Generator calls an eino chat model with a bounded timeout and a small
// retry budget for transient provider failures.
type Generator struct {
	chatModel  model.ChatModel
	timeout    time.Duration
	maxRetries int
}

// NewGenerator wraps a chat model. timeout bounds each attempt; maxRetries
// is the number of re-attempts after the first failure.
func NewGenerator(chatModel model.ChatModel, timeout time.Duration, maxRetries int) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Generator{chatModel: chatModel, timeout: timeout, maxRetries: maxRetries}
}

// Complete runs one completion. Provider errors are retried with exponential
// backoff; a canceled context stops the retry loop immediately.
func (g *Generator) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}

	var callOpts []model.Option
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, model.WithMaxTokens(opts.MaxTokens))
	}
	callOpts = append(callOpts, model.WithTemperature(opts.Temperature))

	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		response, err := g.chatModel.Generate(attemptCtx, messages, callOpts...)
		cancel()
		if err == nil {
			return strings.TrimSpace(response.Content), nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", g.maxRetries+1, lastErr)
}
