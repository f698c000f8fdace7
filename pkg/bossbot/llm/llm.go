// Package llm wraps the text completion providers the bot can talk to.
// Every provider reduces to a single call: system instruction plus prompt
// in, reply text out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Completer produces a completion for a prompt under a system instruction.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	// Provider is "gemini" (default) or "openai".
	Provider string `yaml:"provider"`

	// Model is the model identifier passed to the provider.
	Model string `yaml:"model"`

	// APIKey authenticates against the provider.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint (proxies, compatible APIs).
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single completion.
	Timeout time.Duration `yaml:"timeout"`
}

// New builds the Completer named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required for provider %q", cfg.Provider)
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		return NewGemini(ctx, cfg, logger)
	case ProviderOpenAI:
		return NewOpenAI(cfg, logger), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// ModelName returns cfg.Model, or the provider default when it is empty.
func (c Config) ModelName() string {
	switch {
	case c.Model != "":
		return c.Model
	case strings.EqualFold(c.Provider, ProviderOpenAI):
		return DefaultOpenAIModel
	default:
		return DefaultGeminiModel
	}
}

// Func adapts a plain function to Completer.
type Func func(ctx context.Context, system, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}
