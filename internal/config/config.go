// Package config holds the service configuration for spyglass, loaded
// from the environment and validated before any network use.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pkgconfig "spyglass/pkg/config"
)

// minCredentialLength is the shortest value we accept for an API
// credential. Real token IDs and secrets are far longer; anything this
// short is a placeholder or a paste error.
const minCredentialLength = 8

var (
	ErrMissingCredential     = errors.New("credential is not set")
	ErrCredentialTooShort    = errors.New("credential is too short")
	ErrPlaceholderCredential = errors.New("credential looks like a placeholder")
)

// Config is the resolved runtime configuration for the service.
type Config struct {
	Port        string
	ServiceName string

	// Analytics backend (Mux Data).
	MuxTokenID     string
	MuxTokenSecret string
	MuxBaseURL     string
	MuxTimeout     time.Duration

	// Optional MCP mirror of the analytics backend. Empty disables the
	// mirror and the fallback chain runs REST only.
	MCPMirrorURL string

	// Optional speech-to-text backend for the transcribe proxy.
	STTBaseURL string

	// Service-to-service bearer token guarding the API group. Empty
	// disables auth (local development).
	ServiceToken string
	JWTSecret    string
}

// Load reads the service configuration from the environment. It does
// not validate credentials; call Validate before using them.
func Load() *Config {
	return &Config{
		Port:           pkgconfig.GetEnv("PORT", "18020"),
		ServiceName:    pkgconfig.GetEnv("SERVICE_NAME", "spyglass"),
		MuxTokenID:     pkgconfig.GetEnv("MUX_TOKEN_ID", ""),
		MuxTokenSecret: pkgconfig.GetEnv("MUX_TOKEN_SECRET", ""),
		MuxBaseURL:     pkgconfig.GetEnv("MUX_BASE_URL", "https://api.mux.com"),
		MuxTimeout:     pkgconfig.GetEnvDuration("MUX_TIMEOUT", 30*time.Second),
		MCPMirrorURL:   pkgconfig.GetEnv("MCP_MIRROR_URL", ""),
		STTBaseURL:     pkgconfig.GetEnv("STT_BASE_URL", ""),
		ServiceToken:   pkgconfig.GetEnv("SERVICE_TOKEN", ""),
		JWTSecret:      pkgconfig.GetEnv("JWT_SECRET", ""),
	}
}

// Validate checks the analytics credentials against the placeholder
// heuristics. It runs before any network call so a misconfigured
// deployment fails at startup instead of on the first request.
func (c *Config) Validate() error {
	if err := checkCredential(c.MuxTokenID); err != nil {
		return fmt.Errorf("MUX_TOKEN_ID: %w", err)
	}
	if err := checkCredential(c.MuxTokenSecret); err != nil {
		return fmt.Errorf("MUX_TOKEN_SECRET: %w", err)
	}
	return nil
}

// checkCredential applies format heuristics that catch values copied
// straight from documentation: empty, too short, or containing the
// placeholder fragments "your_" or "_here" in any case.
func checkCredential(v string) error {
	if v == "" {
		return ErrMissingCredential
	}
	if len(v) < minCredentialLength {
		return ErrCredentialTooShort
	}
	lower := strings.ToLower(v)
	if strings.Contains(lower, "your_") || strings.Contains(lower, "_here") {
		return ErrPlaceholderCredential
	}
	return nil
}
