package boss

// keyring.go stores credentials in the operating system's native keyring
// (Linux: Secret Service, macOS: Keychain, Windows: Credential Manager).
//
// Priority for resolving secrets:
//  1. Environment variable (TELEGRAM_TOKEN, GOOGLE_AI_API_KEY, ...)
//  2. .env file (loaded by godotenv into the environment)
//  3. OS keyring
//  4. config.yaml value (plaintext on disk)

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name used in the OS keyring.
	KeyringService = "bossbot"

	KeyringAPIKey        = "api_key"
	KeyringTelegramToken = "telegram_token"
	KeyringDiscordToken  = "discord_token"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	if err := keyring.Set(KeyringService, key, value); err != nil {
		return fmt.Errorf("storing %s in keyring: %w", key, err)
	}
	return nil
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found or the keyring is unavailable.
func GetKeyring(key string) string {
	val, err := keyring.Get(KeyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(KeyringService, key)
}

// KeyringAvailable checks if the OS keyring is accessible.
func KeyringAvailable() bool {
	testKey := "__bossbot_test__"
	if err := keyring.Set(KeyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(KeyringService, testKey)
	return true
}
