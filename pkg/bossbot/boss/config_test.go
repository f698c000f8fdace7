package boss

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/jholhewres/bossbot/pkg/bossbot/persona"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	os.Exit(m.Run())
}

func TestParseConfig_OverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig([]byte(`
aliases: [шеф]
max_chars: 300
llm:
  provider: openai
  model: gpt-4o-mini
  timeout: 10s
idle:
  min_interval: 5m
  max_interval: 10m
phrases:
  status: ["всё горит"]
channels:
  telegram:
    token: abc
    allowed_chats: [1, -100]
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.MaxChars != 300 || cfg.LLM.Provider != "openai" || cfg.LLM.Timeout != 10*time.Second {
		t.Errorf("scalars not parsed: %+v", cfg)
	}
	if cfg.Idle.MinInterval != 5*time.Minute || cfg.Idle.Threshold != 30*time.Minute {
		t.Errorf("idle = %+v", cfg.Idle)
	}
	if !cfg.Idle.Enabled {
		t.Error("unset idle.enabled lost its default")
	}
	if got := cfg.StatusPhrases(); len(got) != 1 || got[0] != "всё горит" {
		t.Errorf("status phrases = %q", got)
	}
	if got := cfg.IdlePhrases(); len(got) != len(persona.IdlePhrases) {
		t.Errorf("idle phrases should keep defaults")
	}
	if cfg.Channels.Telegram.Token != "abc" || len(cfg.Channels.Telegram.AllowedChats) != 2 {
		t.Errorf("telegram = %+v", cfg.Channels.Telegram)
	}
	if !cfg.Channels.Telegram.SendTyping {
		t.Error("telegram defaults lost")
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()
	if _, err := ParseConfig([]byte("llm: [")); err == nil {
		t.Error("expected YAML error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		c := DefaultConfig()
		c.LLM.APIKey = "key"
		c.Channels.Telegram.Token = "tok"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		local   bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no platform", mutate: func(c *Config) { c.Channels.Telegram.Token = "" }, wantErr: ErrNoPlatformToken},
		{name: "unexpanded token", mutate: func(c *Config) { c.Channels.Telegram.Token = "${TELEGRAM_TOKEN}" }, wantErr: ErrNoPlatformToken},
		{name: "discord only", mutate: func(c *Config) {
			c.Channels.Telegram.Token = ""
			c.Channels.Discord.Token = "d"
		}},
		{name: "no llm key", mutate: func(c *Config) { c.LLM.APIKey = "" }, wantErr: ErrNoLLMKey},
		{name: "console without platform", mutate: func(c *Config) { c.Channels.Telegram.Token = "" }, local: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tt.mutate(c)

			var err error
			if tt.local {
				err = c.ValidateLocal()
			} else {
				err = c.Validate()
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Bounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.LLM.Timeout = 0 }},
		{"inverted interval", func(c *Config) { c.Idle.MinInterval, c.Idle.MaxInterval = time.Hour, time.Minute }},
		{"zero threshold", func(c *Config) { c.Idle.Threshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := DefaultConfig()
			c.LLM.APIKey = "key"
			tt.mutate(c)
			if err := c.ValidateLocal(); err == nil {
				t.Error("expected error")
			}
		})
	}

	c := DefaultConfig()
	c.LLM.APIKey = "key"
	c.Idle.Enabled = false
	c.Idle.Threshold = 0
	if err := c.ValidateLocal(); err != nil {
		t.Errorf("disabled idle should skip its checks: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("BOSSBOT_TEST_SET", "value")
	t.Setenv("BOSSBOT_TEST_EMPTY", "")

	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{in: "a: ${BOSSBOT_TEST_SET}", want: "a: value"},
		{in: "a: $BOSSBOT_TEST_SET", want: "a: value"},
		{in: "a: ${BOSSBOT_TEST_UNSET}", want: "a: ${BOSSBOT_TEST_UNSET}"},
		{in: "a: ${BOSSBOT_TEST_UNSET:-fallback}", want: "a: fallback"},
		{in: "a: ${BOSSBOT_TEST_EMPTY:-fallback}", want: "a: fallback"},
		{in: "a: ${BOSSBOT_TEST_SET:-fallback}", want: "a: value"},
		{in: "a: ${BOSSBOT_TEST_UNSET:?token needed}", wantErr: true},
		{in: "a: ${BOSSBOT_TEST_SET:?token needed}", want: "a: value"},
	}

	for _, tt := range tests {
		got, err := expandEnvVars(tt.in)
		if tt.wantErr {
			if err == nil || !strings.Contains(err.Error(), "token needed") {
				t.Errorf("%q: err = %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: got %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestLoadConfig_SecretPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "llm:\n  api_key: from-config\nchannels:\n  telegram:\n    token: ${TELEGRAM_TOKEN}\n  discord:\n    token: discord-from-config\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvTelegramToken, "tg-from-env")
	t.Setenv(EnvDiscordToken, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvGoogleAPIKey, "")

	if err := StoreKeyring(KeyringDiscordToken, "discord-from-keyring"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = DeleteKeyring(KeyringDiscordToken) })

	cfg, err := LoadConfig(path, quietLogger())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Channels.Telegram.Token != "tg-from-env" {
		t.Errorf("telegram = %q, want env value", cfg.Channels.Telegram.Token)
	}
	if cfg.Channels.Discord.Token != "discord-from-keyring" {
		t.Errorf("discord = %q, want keyring value", cfg.Channels.Discord.Token)
	}
	if cfg.LLM.APIKey != "from-config" {
		t.Errorf("api key = %q, want config value", cfg.LLM.APIKey)
	}

	t.Setenv(EnvGoogleAPIKey, "google-from-env")
	cfg, err = LoadConfig(path, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "google-from-env" {
		t.Errorf("api key = %q, env must win over config", cfg.LLM.APIKey)
	}
}

func TestLoadConfig_NoFileUsesEnv(t *testing.T) {
	t.Setenv(EnvTelegramToken, "tg")
	t.Setenv(EnvAPIKey, "generic")

	cfg, err := LoadConfig("", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if cfg.LLM.APIKey != "generic" {
		t.Errorf("api key = %q", cfg.LLM.APIKey)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), quietLogger()); err == nil {
		t.Error("expected error")
	}
}

func TestSaveConfigToFile_SanitizesEnvSecrets(t *testing.T) {
	t.Setenv(EnvTelegramToken, "tg-secret")

	cfg := DefaultConfig()
	cfg.Channels.Telegram.Token = "tg-secret"
	cfg.LLM.APIKey = "typed-in-key"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := SaveConfigToFile(cfg, path); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %04o", perm)
	}

	raw, _ := os.ReadFile(path)
	var back Config
	if err := yaml.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.Channels.Telegram.Token != "${TELEGRAM_TOKEN}" {
		t.Errorf("token written as %q", back.Channels.Telegram.Token)
	}
	if back.LLM.APIKey != "typed-in-key" {
		t.Errorf("api key written as %q", back.LLM.APIKey)
	}
	if back.Idle.MaxInterval != time.Hour {
		t.Errorf("durations not round-tripped: %s", back.Idle.MaxInterval)
	}
	if cfg.Channels.Telegram.Token != "tg-secret" {
		t.Error("SaveConfigToFile mutated its input")
	}
}

func TestRedact(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"":                 "",
		"short":            "****",
		"1234567890abcdef": "****cdef",
	} {
		if got := Redact(in); got != want {
			t.Errorf("Redact(%q) = %q, want %q", in, got, want)
		}
	}
}
