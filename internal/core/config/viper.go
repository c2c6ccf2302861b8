package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*RelayConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultRelayConfig
	def := DefaultRelayConfig()
	v.SetDefault("server.host", def.Host)
	v.SetDefault("server.port", def.Port)
	v.SetDefault("server.health_port", def.HealthPort)
	v.SetDefault("server.max_body_bytes", def.MaxBodyBytes)
	v.SetDefault("url_base", def.URLBase)
	v.SetDefault("request_timeout", def.RequestTimeout.String())

	// Bind environment variables with NTFY_ prefix (NTFY_URL_BASE, NTFY_SERVER_PORT)
	v.SetEnvPrefix("NTFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &RelayConfig{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		HealthPort:     v.GetInt("server.health_port"),
		MaxBodyBytes:   v.GetInt64("server.max_body_bytes"),
		URLBase:        strings.TrimRight(v.GetString("url_base"), "/"),
		RequestTimeout: v.GetDuration("request_timeout"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port ranges, body limit, timeout and the ntfy base URL.
func validateConfig(cfg *RelayConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.HealthPort < 0 || cfg.HealthPort > 65535 {
		return fmt.Errorf("health_port must be between 0 and 65535, got %d", cfg.HealthPort)
	}
	if cfg.HealthPort != 0 && cfg.HealthPort == cfg.Port {
		return fmt.Errorf("health_port must differ from port %d", cfg.Port)
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", cfg.MaxBodyBytes)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	u, err := url.Parse(cfg.URLBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url_base must be an absolute http(s) URL, got %q", cfg.URLBase)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
// InConfig only inspects the file, so a NTFY_API_KEY env value is not flagged.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("api_key") || v.InConfig("server.api_key") {
		return fmt.Errorf("API keys not allowed in config files (use %s environment variable)", APIKeyEnv)
	}
	return nil
}
