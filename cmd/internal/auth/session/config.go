package session

import (
	"fmt"
	"time"

	"tasker/cmd/internal/envx"
	"tasker/cmd/security/token"
)

// MinSecretBytes is the shortest signing secret accepted at startup.
const MinSecretBytes = 32

// Config defines all runtime configuration for the session subsystem.
//
// It is constructed once at startup and passed by value; nothing in this
// package reads the environment after LoadConfigFromEnv returns.
type Config struct {
	// AccessSecret signs access tokens (HS256).
	AccessSecret string `env:"JWT_ACCESS_SECRET"`
	// AccessTokenTTL is the lifetime of access tokens.
	AccessTokenTTL time.Duration `env:"JWT_ACCESS_EXPIRES_IN" envDefault:"15m"`

	// RefreshSecret signs refresh tokens. It must differ from AccessSecret.
	RefreshSecret string `env:"JWT_REFRESH_SECRET"`
	// RefreshTokenTTL is the lifetime of refresh tokens and their records.
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_EXPIRES_IN" envDefault:"7d"`

	// Issuer is the value set in (and required of) the "iss" claim.
	Issuer string `env:"JWT_ISSUER" envDefault:"tasker"`

	// ClockSkew is the leeway applied to JWT time claims during verification.
	// It never applies to the stored record expiry.
	ClockSkew time.Duration `env:"JWT_CLOCK_SKEW" envDefault:"30s"`

	// TokenHMACKey switches refresh-token hashing to HMAC-SHA256 when set.
	TokenHMACKey string `env:"TOKEN_HMAC_KEY"`
}

// DefaultConfig returns defaults for everything except the secrets.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "tasker",
		ClockSkew:       30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - JWT_ACCESS_SECRET  (>= 32 bytes)
//   - JWT_REFRESH_SECRET (>= 32 bytes, distinct from the access secret)
//
// Optional (durations accept Go syntax or a "d" suffix):
//   - JWT_ACCESS_EXPIRES_IN
//   - JWT_REFRESH_EXPIRES_IN
//   - JWT_ISSUER
//   - JWT_CLOCK_SKEW
//   - TOKEN_HMAC_KEY (>= 32 bytes when set)
//
// Returns an error wrapping ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envx.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the startup invariants.
func (c Config) Validate() error {
	switch {
	case c.AccessSecret == "":
		return fmt.Errorf("%w: JWT_ACCESS_SECRET is required", ErrConfig)
	case len(c.AccessSecret) < MinSecretBytes:
		return fmt.Errorf("%w: JWT_ACCESS_SECRET must be at least %d bytes", ErrConfig, MinSecretBytes)
	case c.RefreshSecret == "":
		return fmt.Errorf("%w: JWT_REFRESH_SECRET is required", ErrConfig)
	case len(c.RefreshSecret) < MinSecretBytes:
		return fmt.Errorf("%w: JWT_REFRESH_SECRET must be at least %d bytes", ErrConfig, MinSecretBytes)
	case c.AccessSecret == c.RefreshSecret:
		return fmt.Errorf("%w: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ", ErrConfig)
	case c.AccessTokenTTL <= 0:
		return fmt.Errorf("%w: JWT_ACCESS_EXPIRES_IN must be positive", ErrConfig)
	case c.RefreshTokenTTL <= 0:
		return fmt.Errorf("%w: JWT_REFRESH_EXPIRES_IN must be positive", ErrConfig)
	case c.ClockSkew < 0 || c.ClockSkew > 5*time.Minute:
		return fmt.Errorf("%w: JWT_CLOCK_SKEW out of range [0..5m]", ErrConfig)
	case c.Issuer == "":
		return fmt.Errorf("%w: JWT_ISSUER must not be empty", ErrConfig)
	}
	if c.TokenHMACKey != "" && len(c.TokenHMACKey) < token.MinHMACKeyBytes {
		return fmt.Errorf("%w: TOKEN_HMAC_KEY must be at least %d bytes", ErrConfig, token.MinHMACKeyBytes)
	}
	return nil
}
