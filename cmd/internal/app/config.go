package app

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"tasker/cmd/internal/envx"
)

// ErrConfig marks invalid runtime configuration.
var ErrConfig = errors.New("app: invalid config")

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Log formats.
const (
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

// Config contains the server runtime configuration loaded from environment variables.
// Auth and password settings live in their own packages.
type Config struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"3000"`

	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"0"`
	DBMigrate   bool   `env:"DB_MIGRATE" envDefault:"true"`

	// RequireTokenHMAC refuses to start unless refresh-token hashes are keyed.
	// Without it, production only logs a warning.
	RequireTokenHMAC bool `env:"REQUIRE_TOKEN_HMAC" envDefault:"false"`
}

// LoadConfig loads Config from environment variables with defaults and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envx.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = LogFormatPretty
		if cfg.AppEnv == EnvProduction {
			cfg.LogFormat = LogFormatJSON
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules.
func (c Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("%w: DATABASE_URL is required", ErrConfig)
	case c.AppEnv != EnvDevelopment && c.AppEnv != EnvProduction:
		return fmt.Errorf("%w: APP_ENV must be %q or %q", ErrConfig, EnvDevelopment, EnvProduction)
	case c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatPretty:
		return fmt.Errorf("%w: LOG_FORMAT must be %q or %q", ErrConfig, LogFormatJSON, LogFormatPretty)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: PORT out of range", ErrConfig)
	case c.DBMaxConns <= 0:
		return fmt.Errorf("%w: DB_MAX_CONNS must be positive", ErrConfig)
	case c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns:
		return fmt.Errorf("%w: DB_MIN_CONNS out of range [0..DB_MAX_CONNS]", ErrConfig)
	}
	return nil
}

// Production reports whether APP_ENV is production.
func (c Config) Production() bool { return c.AppEnv == EnvProduction }

// Addr is the listen address.
func (c Config) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }
