// Package config provides configuration management for ntfyrelay.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/solatis/ntfyrelay/internal/types"
)

// APIKeyEnv names the environment variable holding the ntfy access token.
const APIKeyEnv = "NTFY_API_KEY"

// RelayConfig holds configuration for the webhook relay service.
type RelayConfig struct {
	Host           string
	Port           int
	HealthPort     int // gRPC health server port, 0 disables it
	MaxBodyBytes   int64
	URLBase        string
	RequestTimeout time.Duration
}

// DefaultRelayConfig returns configuration with default values.
func DefaultRelayConfig() *RelayConfig {
	return &RelayConfig{
		Host:           "0.0.0.0",
		Port:           5000,
		HealthPort:     0,
		MaxBodyBytes:   types.MaxPayloadSize,
		URLBase:        "https://ntfy.sh",
		RequestTimeout: 10 * time.Second,
	}
}

// APIKey returns the ntfy access token from the environment.
// Empty when unset; deliveries are then sent without an Authorization header.
func APIKey() string {
	return strings.TrimSpace(os.Getenv(APIKeyEnv))
}
