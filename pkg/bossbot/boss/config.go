// Package boss wires the persona, memory, LLM and channels into the running
// bot. config.go defines all configuration structures.
package boss

import (
	"errors"
	"fmt"
	"time"

	"github.com/jholhewres/bossbot/pkg/bossbot/channels/discord"
	"github.com/jholhewres/bossbot/pkg/bossbot/channels/telegram"
	"github.com/jholhewres/bossbot/pkg/bossbot/llm"
	"github.com/jholhewres/bossbot/pkg/bossbot/memory"
	"github.com/jholhewres/bossbot/pkg/bossbot/persona"
)

// Config holds all bot configuration.
type Config struct {
	// Name is the persona display name.
	Name string `yaml:"name"`

	// Instructions is the system instruction sent with every LLM request.
	Instructions string `yaml:"instructions"`

	// Aliases are the names that address the bot in group chats.
	Aliases []string `yaml:"aliases"`

	// MaxChars caps reply length in characters.
	MaxChars int `yaml:"max_chars"`

	// MaxHistory is how many lines each chat remembers.
	MaxHistory int `yaml:"max_history"`

	// Phrases overrides the built-in phrase sets. Empty lists keep the defaults.
	Phrases PhrasesConfig `yaml:"phrases"`

	// LLM configures the completion provider.
	LLM llm.Config `yaml:"llm"`

	// Idle configures unsolicited nudges in quiet chats.
	Idle IdleConfig `yaml:"idle"`

	// State configures optional persistence of chat state.
	State StateConfig `yaml:"state"`

	// Channels configures the chat transports.
	Channels ChannelsConfig `yaml:"channels"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// PhrasesConfig overrides phrase sets.
type PhrasesConfig struct {
	GameScold []string `yaml:"game_scold"`
	Tests     []string `yaml:"tests"`
	Code      []string `yaml:"code"`
	Idle      []string `yaml:"idle"`
	Status    []string `yaml:"status"`
	Fallback  []string `yaml:"fallback"`
}

// IdleConfig configures the idle nudger.
type IdleConfig struct {
	// Enabled turns nudges on/off.
	Enabled bool `yaml:"enabled"`

	// MinInterval and MaxInterval bound the random period between checks.
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`

	// Threshold is how long a chat must be quiet before it is nudged.
	Threshold time.Duration `yaml:"threshold"`
}

// StateConfig configures chat state persistence.
type StateConfig struct {
	// Path is the SQLite database file. Empty keeps state in memory only.
	Path string `yaml:"path"`
}

// ChannelsConfig holds configuration for all channels. A channel is
// enabled when its token is set.
type ChannelsConfig struct {
	Telegram telegram.Config `yaml:"telegram"`
	Discord  discord.Config  `yaml:"discord"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the log format ("json", "text").
	Format string `yaml:"format"`

	// File additionally writes logs to a size-rotated file.
	File string `yaml:"file"`

	// MaxSizeMB is the rotation threshold for File.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `yaml:"max_backups"`
}

// DefaultConfig returns the default bot configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:         "Александр Барашкин",
		Instructions: persona.DefaultInstructions,
		Aliases:      append([]string(nil), persona.DefaultAliases...),
		MaxChars:     persona.DefaultMaxChars,
		MaxHistory:   memory.DefaultMaxHistory,
		LLM: llm.Config{
			Provider: llm.ProviderGemini,
			Timeout:  30 * time.Second,
		},
		Idle: IdleConfig{
			Enabled:     true,
			MinInterval: 30 * time.Minute,
			MaxInterval: time.Hour,
			Threshold:   30 * time.Minute,
		},
		Channels: ChannelsConfig{
			Telegram: telegram.DefaultConfig(),
			Discord:  discord.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Validation errors.
var (
	ErrNoPlatformToken = errors.New("no platform token configured (set TELEGRAM_TOKEN or DISCORD_TOKEN)")
	ErrNoLLMKey        = errors.New("no LLM API key configured (set GOOGLE_AI_API_KEY, OPENAI_API_KEY or BOSSBOT_API_KEY)")
)

// Validate checks everything serve needs, including a platform token.
func (c *Config) Validate() error {
	if !c.HasPlatform() {
		return ErrNoPlatformToken
	}
	return c.ValidateLocal()
}

// ValidateLocal checks everything except platform tokens; enough for the
// console channel.
func (c *Config) ValidateLocal() error {
	if c.LLM.APIKey == "" || IsEnvReference(c.LLM.APIKey) {
		return ErrNoLLMKey
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.Idle.Enabled {
		if c.Idle.MinInterval <= 0 || c.Idle.MaxInterval < c.Idle.MinInterval {
			return fmt.Errorf("idle interval must satisfy 0 < min_interval <= max_interval, got [%s, %s]",
				c.Idle.MinInterval, c.Idle.MaxInterval)
		}
		if c.Idle.Threshold <= 0 {
			return fmt.Errorf("idle.threshold must be positive, got %s", c.Idle.Threshold)
		}
	}
	return nil
}

// HasPlatform reports whether any chat platform token is configured.
func (c *Config) HasPlatform() bool {
	return usable(c.Channels.Telegram.Token) || usable(c.Channels.Discord.Token)
}

// PhraseSet merges configured phrase overrides over the defaults.
func (c *Config) PhraseSet() persona.PhraseSet {
	ps := persona.DefaultPhraseSet()
	if len(c.Phrases.GameScold) > 0 {
		ps.GameScold = c.Phrases.GameScold
	}
	if len(c.Phrases.Tests) > 0 {
		ps.Test = c.Phrases.Tests
	}
	if len(c.Phrases.Code) > 0 {
		ps.Code = c.Phrases.Code
	}
	return ps
}

// IdlePhrases returns the configured idle phrases or the defaults.
func (c *Config) IdlePhrases() []string {
	return orDefault(c.Phrases.Idle, persona.IdlePhrases)
}

// StatusPhrases returns the configured /status phrases or the defaults.
func (c *Config) StatusPhrases() []string {
	return orDefault(c.Phrases.Status, persona.StatusPhrases)
}

// FallbackPhrases returns the configured LLM fallback phrases or the defaults.
func (c *Config) FallbackPhrases() []string {
	return orDefault(c.Phrases.Fallback, persona.LLMFallbackPhrases)
}

func orDefault(set, def []string) []string {
	if len(set) > 0 {
		return set
	}
	return def
}

func usable(secret string) bool {
	return secret != "" && !IsEnvReference(secret)
}
