package boss

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted for secrets.
const (
	EnvTelegramToken = "TELEGRAM_TOKEN"
	EnvDiscordToken  = "DISCORD_TOKEN"
	EnvGoogleAPIKey  = "GOOGLE_AI_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvAPIKey        = "BOSSBOT_API_KEY"
)

// envVarPattern matches ${VAR}, ${VAR:-default}, ${VAR:?message} and $VAR.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}|\$([A-Z_][A-Z0-9_]*)`)

// LoadConfig loads the config file at path, or defaults plus environment
// when path is empty. .env files are loaded first.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loadEnvFiles()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded, err := expandEnvVars(string(data))
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", path, err)
		}

		cfg, err = ParseConfig([]byte(expanded))
		if err != nil {
			return nil, err
		}
		checkFilePermissions(path, logger)
	}

	resolveSecrets(cfg, logger)
	return cfg, nil
}

// ParseConfig parses YAML bytes into a Config, starting from defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// SaveConfigToFile writes cfg as YAML. Secrets that came from the
// environment are written back as ${VAR} references.
func SaveConfigToFile(cfg *Config, path string) error {
	sanitized := *cfg
	sanitized.LLM.APIKey = sanitizeSecret(cfg.LLM.APIKey, llmKeyEnvs(cfg.LLM.Provider)...)
	sanitized.Channels.Telegram.Token = sanitizeSecret(cfg.Channels.Telegram.Token, EnvTelegramToken)
	sanitized.Channels.Discord.Token = sanitizeSecret(cfg.Channels.Discord.Token, EnvDiscordToken)

	data, err := yaml.Marshal(&sanitized)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Owner read/write only.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// FindConfigFile searches for config files in standard locations.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"bossbot.yaml",
		"bossbot.yml",
		"configs/config.yaml",
		"configs/bossbot.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// IsEnvReference checks if a string is an unexpanded environment reference.
func IsEnvReference(s string) bool {
	return strings.HasPrefix(s, "$")
}

// Redact hides all but the last four characters of a secret.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// ---------- Internal ----------

// loadEnvFiles loads .env files; existing variables are never overwritten.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces environment references. Unset ${VAR} and $VAR
// references are left in place; ${VAR:?msg} fails when VAR is unset or empty.
func expandEnvVars(input string) (string, error) {
	var firstErr error
	out := envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		if m[4] != "" {
			if val, ok := os.LookupEnv(m[4]); ok {
				return val
			}
			return match
		}

		name, op, arg := m[1], m[2], m[3]
		val, ok := os.LookupEnv(name)
		switch op {
		case ":-":
			if !ok || val == "" {
				return arg
			}
			return val
		case ":?":
			if !ok || val == "" {
				if firstErr == nil {
					if arg == "" {
						arg = "required"
					}
					firstErr = fmt.Errorf("%s: %s", name, arg)
				}
				return ""
			}
			return val
		default:
			if ok {
				return val
			}
			return match
		}
	})
	return out, firstErr
}

// resolveSecrets fills secrets using env → keyring → config priority.
func resolveSecrets(cfg *Config, logger *slog.Logger) {
	var src string

	cfg.Channels.Telegram.Token, src = resolveSecret(cfg.Channels.Telegram.Token, KeyringTelegramToken, EnvTelegramToken)
	logSecretSource(logger, "telegram token", src)

	cfg.Channels.Discord.Token, src = resolveSecret(cfg.Channels.Discord.Token, KeyringDiscordToken, EnvDiscordToken)
	logSecretSource(logger, "discord token", src)

	cfg.LLM.APIKey, src = resolveSecret(cfg.LLM.APIKey, KeyringAPIKey, llmKeyEnvs(cfg.LLM.Provider)...)
	logSecretSource(logger, "llm api key", src)
}

// resolveSecret returns the first non-empty value from envs, then the
// keyring, then the current value.
func resolveSecret(current, keyringKey string, envs ...string) (value, source string) {
	for _, env := range envs {
		if v := os.Getenv(env); v != "" {
			return v, "env:" + env
		}
	}
	if v := GetKeyring(keyringKey); v != "" {
		return v, "keyring"
	}
	if usable(current) {
		return current, "config"
	}
	return current, ""
}

func logSecretSource(logger *slog.Logger, what, source string) {
	if source != "" {
		logger.Debug("secret resolved", "secret", what, "source", source)
	}
}

// llmKeyEnvs lists the env vars holding the API key for provider.
func llmKeyEnvs(provider string) []string {
	switch strings.ToLower(provider) {
	case "openai":
		return []string{EnvAPIKey, EnvOpenAIAPIKey}
	default:
		return []string{EnvAPIKey, EnvGoogleAPIKey}
	}
}

// sanitizeSecret replaces a secret with an env reference when the
// environment already holds that exact value.
func sanitizeSecret(value string, envs ...string) string {
	if value == "" || IsEnvReference(value) {
		return value
	}
	for _, env := range envs {
		if os.Getenv(env) == value {
			return "${" + env + "}"
		}
	}
	return value
}

// checkFilePermissions warns if the config file is group/world readable.
func checkFilePermissions(path string, logger *slog.Logger) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	mode := info.Mode().Perm()
	if mode&0o044 != 0 {
		logger.Warn("config file has open permissions, consider restricting",
			"path", path,
			"current", fmt.Sprintf("%04o", mode),
			"recommended", "0600",
		)
	}
}
