package config

import "time"

// APIConfig contains the admissions platform API endpoint configuration.
type APIConfig struct {
	// BaseURL is the root of the external authentication API.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3001/api"`

	// Timeout is the fixed request timeout enforced by the transport.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to API configuration values.
func (c *APIConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}
