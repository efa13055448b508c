// Package config provides configuration management for rulesynth commands.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// ServerConfig holds configuration for the gRPC lookup service.
type ServerConfig struct {
	Host           string
	Port           int
	MaxConnections int
	RequestTimeout time.Duration
}

// GeneratorConfig holds defaults for rule synthesis.
type GeneratorConfig struct {
	Policy      string
	Count       int
	Seed        uint64
	MaxAttempts int
	DataDir     string
}

// ExactConfig holds configuration for the exact-match index.
type ExactConfig struct {
	MaxResults int
}

// LogConfig selects log level and handler format.
type LogConfig struct {
	Level  string
	Format string
}

// Config is the full rulesynth configuration.
type Config struct {
	Server    ServerConfig
	Generator GeneratorConfig
	Exact     ExactConfig
	Log       LogConfig
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50051,
			MaxConnections: 1000,
			RequestTimeout: 30 * time.Second,
		},
		Generator: GeneratorConfig{
			Policy:      "uniform",
			Count:       100,
			MaxAttempts: 100,
			DataDir:     "./data",
		},
		Exact: ExactConfig{
			MaxResults: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports RS_HMAC_SECRET (single) and RS_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' in %s (check RS_HMAC_SECRET and RS_HMAC_SECRET_* for conflicts)", secretID, key)
		}
		secrets[secretID] = decoded
		return nil
	}

	if val := os.Getenv("RS_HMAC_SECRET"); val != "" {
		if err := add("RS_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets stop at the first gap.
	for i := 1; ; i++ {
		key := fmt.Sprintf("RS_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 lower-case hex chars.
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	secretID, encoded, ok := strings.Cut(strings.TrimSpace(envValue), ":")
	if !ok {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars")
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(secret) < 32 {
		return "", nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(secret))
	}

	return secretID, secret, nil
}
