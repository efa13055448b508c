package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrSecretInConfig rejects HMAC secrets placed in a config file.
var ErrSecretInConfig = errors.New("HMAC secrets not allowed in config files (use RS_HMAC_SECRET environment variable)")

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; commands
// apply their flags on top of the returned config.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("generator.policy", d.Generator.Policy)
	v.SetDefault("generator.count", d.Generator.Count)
	v.SetDefault("generator.seed", d.Generator.Seed)
	v.SetDefault("generator.max_attempts", d.Generator.MaxAttempts)
	v.SetDefault("generator.data_dir", d.Generator.DataDir)
	v.SetDefault("exact.max_results", d.Exact.MaxResults)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	// RS_SERVER_PORT, RS_GENERATOR_POLICY, ...
	v.SetEnvPrefix("RS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			MaxConnections: v.GetInt("server.max_connections"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Generator: GeneratorConfig{
			Policy:      v.GetString("generator.policy"),
			Count:       v.GetInt("generator.count"),
			Seed:        v.GetUint64("generator.seed"),
			MaxAttempts: v.GetInt("generator.max_attempts"),
			DataDir:     v.GetString("generator.data_dir"),
		},
		Exact: ExactConfig{
			MaxResults: v.GetInt("exact.max_results"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges. Policy names are checked by the generator.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", c.Server.MaxConnections)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.Server.RequestTimeout)
	}
	if c.Generator.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", c.Generator.Count)
	}
	if c.Generator.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.Generator.MaxAttempts)
	}
	if c.Exact.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Exact.MaxResults)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return ErrSecretInConfig
	}
	return nil
}
