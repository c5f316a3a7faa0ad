package config

import (
	"fmt"
	"strings"
)

// StorageBackend selects where session state is persisted.
type StorageBackend string

const (
	// StorageFile keeps the session in a JSON file under the user
	// config directory.
	StorageFile StorageBackend = "file"
	// StorageKeyring keeps the session in the OS keychain.
	StorageKeyring StorageBackend = "keyring"
	// StorageRedis keeps the session in Redis, for headless deployments
	// sharing one session across processes.
	StorageRedis StorageBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "keyring", "redis":
		*b = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: file, keyring, redis)", v)
	}
}

// StorageConfig contains session storage configuration.
type StorageConfig struct {
	// Backend selects the session store implementation.
	Backend StorageBackend `env:"BACKEND" envDefault:"file"`

	// Path overrides the session file location (file backend only).
	Path string `env:"PATH"`

	// KeyringService is the keychain service name (keyring backend only).
	KeyringService string `env:"KEYRING_SERVICE" envDefault:"uniapply"`

	// RedisAddr is the Redis address (redis backend only).
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// RedisProfile namespaces the session key so separate logical
	// sessions can share one Redis instance.
	RedisProfile string `env:"REDIS_PROFILE" envDefault:"default"`
}

// Sanitize applies guardrails to storage configuration values.
func (c *StorageConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StorageFile
	}
}
