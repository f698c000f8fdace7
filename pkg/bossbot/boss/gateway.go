package boss

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jholhewres/bossbot/pkg/bossbot/llm"
	"github.com/jholhewres/bossbot/pkg/bossbot/memory"
	"github.com/jholhewres/bossbot/pkg/bossbot/persona"
)

// Gateway turns a chat message into a persona reply via the LLM. It never
// fails: every provider error ends in a canned clarification.
type Gateway struct {
	completer    llm.Completer
	store        *memory.Store
	instructions string
	timeout      time.Duration
	fallback     []string
	picker       persona.Picker
	composer     *persona.Composer
	logger       *slog.Logger
}

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	Instructions string
	Timeout      time.Duration
	Fallback     []string
}

// NewGateway creates an LLM gateway reading history from store.
func NewGateway(c llm.Completer, store *memory.Store, cfg GatewayConfig, picker persona.Picker, composer *persona.Composer, logger *slog.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Fallback) == 0 {
		cfg.Fallback = persona.LLMFallbackPhrases
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		completer:    c,
		store:        store,
		instructions: cfg.Instructions,
		timeout:      cfg.Timeout,
		fallback:     cfg.Fallback,
		picker:       picker,
		composer:     composer,
		logger:       logger.With("component", "gateway"),
	}
}

// Complete asks the provider for a reply to message in chat key and
// returns it composed for speaker.
func (g *Gateway) Complete(ctx context.Context, key memory.ChatKey, message, speaker string) string {
	prompt := persona.BuildPrompt(g.store.Render(key), speaker, message)

	start := time.Now()
	raw, err := g.call(ctx, prompt)
	if err != nil {
		g.logger.Warn("completion failed, using fallback",
			"chat", key.String(),
			"kind", llm.Classify(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		raw = g.picker.Pick(g.fallback)
	} else {
		g.logger.Debug("completion ok",
			"chat", key.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return g.composer.Compose(raw, speaker)
}

type completion struct {
	reply string
	err   error
}

// call runs one completion bounded by the gateway timeout, even when the
// provider ignores ctx. Provider panics become errors.
func (g *Gateway) call(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		reply, err := g.completer.Complete(ctx, g.instructions, prompt)
		done <- completion{reply: reply, err: err}
	}()

	select {
	case c := <-done:
		if c.err == nil && c.reply == "" {
			c.err = llm.ErrEmptyResponse
		}
		return c.reply, c.err
	case <-ctx.Done():
		return "", fmt.Errorf("completion: %w", ctx.Err())
	}
}
