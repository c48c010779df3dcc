// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"net/netip"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvironmentProduction disables the GraphQL explorer and introspection.
const EnvironmentProduction = "production"

// Config holds all settings consumed by the gateway and its collaborators.
// It is immutable once loaded.
type Config struct {
	ApplicationPort int    `env:"APPLICATION_PORT" envDefault:"8000"`
	Environment     string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`

	DBPath            string        `env:"DB_PATH" envDefault:"./data/expenses.db"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBCheckoutTimeout time.Duration `env:"DB_CHECKOUT_TIMEOUT" envDefault:"5s"`

	Security Security

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// TrustedProxies lists the addresses or CIDRs whose forwarding headers
	// are believed. Empty means clients are identified by socket peer only.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// Security groups the token and password hashing settings.
type Security struct {
	SecretKeyValue         string `env:"SECRET_KEY,required"`
	HashSaltValue          string `env:"HASH_SALT"`
	TokenExpirationSeconds int64  `env:"TOKEN_EXPIRATION_SECONDS" envDefault:"3600"`

	HashMemoryKiB   uint32 `env:"HASH_MEMORY_KIB" envDefault:"65536"`
	HashIterations  uint32 `env:"HASH_ITERATIONS" envDefault:"1"`
	HashParallelism uint8  `env:"HASH_PARALLELISM" envDefault:"4"`
	HashSaltLength  uint32 `env:"HASH_SALT_LENGTH" envDefault:"16"`
	HashKeyLength   uint32 `env:"HASH_KEY_LENGTH" envDefault:"32"`
	HashWorkers     int    `env:"HASH_WORKERS" envDefault:"0"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants env tags cannot express.
func (c *Config) Validate() error {
	if c.Security.SecretKeyValue == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}
	if c.Security.TokenExpirationSeconds <= 0 {
		return fmt.Errorf("TOKEN_EXPIRATION_SECONDS must be positive, got %d", c.Security.TokenExpirationSeconds)
	}
	if c.DBMaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DBMaxOpenConns)
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	if c.Security.HashIterations == 0 || c.Security.HashParallelism == 0 || c.Security.HashKeyLength == 0 {
		return fmt.Errorf("hash iterations, parallelism and key length must be positive")
	}
	return nil
}

// SecretKey is the HMAC key used to sign tokens.
func (c *Config) SecretKey() []byte {
	return []byte(c.Security.SecretKeyValue)
}

// HashSalt is the fixed legacy salt, or nil when salts are generated per hash.
func (c *Config) HashSalt() []byte {
	if c.Security.HashSaltValue == "" {
		return nil
	}
	return []byte(c.Security.HashSaltValue)
}

// TokenExpiration is the lifetime of issued tokens.
func (c *Config) TokenExpiration() time.Duration {
	return time.Duration(c.Security.TokenExpirationSeconds) * time.Second
}

// HashWorkers is the size of the password hashing pool.
func (c *Config) HashWorkers() int {
	if c.Security.HashWorkers > 0 {
		return c.Security.HashWorkers
	}
	return runtime.NumCPU()
}

// Production reports whether the process runs in production.
func (c *Config) Production() bool {
	return c.Environment == EnvironmentProduction
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is taken as a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ApplicationPort)
}
