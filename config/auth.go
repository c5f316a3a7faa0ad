package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication backend for the application.
type AuthMode string

const (
	// AuthModeLive talks to the real admissions platform API.
	AuthModeLive AuthMode = "live"
	// AuthModeMock uses the in-memory fixture API (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "live", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: live, mock)", v)
	}
}

// SocialProviderConfig contains OIDC configuration for one social
// identity provider (Google, Apple, ...).
type SocialProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8484/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	IssuerURL    string `env:"ISSUER_URL"`
}

// Configured reports whether the provider has the fields needed to run a
// real OIDC flow.
func (c SocialProviderConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.IssuerURL != ""
}

// MockAuthConfig controls the fixture identity used when AUTH_MODE=mock.
type MockAuthConfig struct {
	Email     string `env:"EMAIL"      envDefault:"dev@uniapply.test"`
	Password  string `env:"PASSWORD"   envDefault:"DevPassw0rd!"`
	FirstName string `env:"FIRST_NAME" envDefault:"Dev"`
	LastName  string `env:"LAST_NAME"  envDefault:"User"`
	Role      string `env:"ROLE"       envDefault:"student"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication backend to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"live"`

	// RefreshWindow is how far ahead of expiry the credential is
	// refreshed proactively.
	RefreshWindow time.Duration `env:"AUTH_REFRESH_WINDOW" envDefault:"5m"`

	// Social identity providers (used for social login in live mode).
	Google SocialProviderConfig `envPrefix:"GOOGLE_"`
	Apple  SocialProviderConfig `envPrefix:"APPLE_"`

	// Mock identity configuration (used when Mode=mock).
	Mock MockAuthConfig `envPrefix:"MOCK_AUTH_"`
}

// Sanitize applies guardrails to auth configuration values.
func (c *AuthConfig) Sanitize() {
	if c.RefreshWindow <= 0 {
		c.RefreshWindow = 5 * time.Minute
	}
}
