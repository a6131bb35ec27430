package password

import (
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"

	"tasker/cmd/internal/envx"
)

const (
	// MinCost is the lowest bcrypt cost accepted from configuration.
	MinCost = 10
	// MaxCost bounds configured cost to keep login latency sane.
	MaxCost = 16
	// maxBcryptBytes is the number of input bytes bcrypt actually reads.
	maxBcryptBytes = 72
)

// Policy controls password validation.
type Policy struct {
	MinLength int `env:"PASSWORD_MIN_LEN" envDefault:"6"`
	MaxLength int `env:"PASSWORD_MAX_LEN" envDefault:"72"`
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool `env:"PASSWORD_REJECT_VERY_WEAK" envDefault:"false"`
}

// Config is the single configuration surface for this package.
type Config struct {
	// Cost is the bcrypt work factor.
	Cost int `env:"PASSWORD_BCRYPT_COST" envDefault:"12"`

	// Workers bounds concurrent hash/verify operations. Zero means NumCPU.
	Workers int `env:"PASSWORD_HASH_WORKERS" envDefault:"0"`

	Policy Policy
}

// DefaultConfig returns a baseline suitable for interactive logins.
func DefaultConfig() Config {
	return Config{
		Cost:    12,
		Workers: defaultWorkers(),
		Policy: Policy{
			MinLength: 6,
			MaxLength: maxBcryptBytes,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - PASSWORD_BCRYPT_COST
// - PASSWORD_HASH_WORKERS
// - PASSWORD_MIN_LEN
// - PASSWORD_MAX_LEN
// - PASSWORD_REJECT_VERY_WEAK (true/false)
func FromEnv() (Config, error) {
	var cfg Config
	if err := envx.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers()
	}
	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) check() error {
	if c.Cost < MinCost || c.Cost > MaxCost {
		return fmt.Errorf("%w: PASSWORD_BCRYPT_COST out of range [%d..%d]", ErrConfig, MinCost, MaxCost)
	}
	if c.Policy.MinLength < 1 {
		return fmt.Errorf("%w: PASSWORD_MIN_LEN must be positive", ErrConfig)
	}
	if c.Policy.MaxLength < 1 || c.Policy.MaxLength > maxBcryptBytes {
		return fmt.Errorf("%w: PASSWORD_MAX_LEN out of range [1..%d]", ErrConfig, maxBcryptBytes)
	}
	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"%w: min_len(%d) > max_len(%d)",
			ErrConfig,
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}
	return nil
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n <= 0 {
		n = 1
	}
	return n
}

// effectiveCost guards against a zero-value Config reaching bcrypt.
func (c Config) effectiveCost() int {
	if c.Cost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return c.Cost
}
