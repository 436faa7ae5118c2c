package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
	"github.com/davidleathers/ledger-insights/internal/service/analytics"
)

const (
	// DefaultPath is read when no explicit config file is given
	DefaultPath = "configs/config.yaml"
	envPrefix   = "LI_"
)

// Ledger sources
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type Config struct {
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `koanf:"log_format" validate:"oneof=json console"`

	Ledger    LedgerConfig     `koanf:"ledger"`
	Database  DatabaseConfig   `koanf:"database"`
	Redis     RedisConfig      `koanf:"redis"`
	Telemetry TelemetryConfig  `koanf:"telemetry"`
	Analysis  analytics.Config `koanf:"analysis"`
}

// LedgerConfig selects where ledger data comes from
type LedgerConfig struct {
	Source  string          `koanf:"source" validate:"oneof=csv postgres"`
	CSVPath string          `koanf:"csv_path"`
	Rate    RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig bounds ledger queries per second. Zero disables limiting.
type RateLimitConfig struct {
	QueriesPerSecond float64 `koanf:"queries_per_second" validate:"gte=0"`
	Burst            int     `koanf:"burst" validate:"gte=0"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns" validate:"gte=1"`
	MinConns        int32         `koanf:"min_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// RedisConfig configures the optional aggregate cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	TTL          time.Duration `koanf:"ttl"`
	KeyPrefix    string        `koanf:"key_prefix"`
}

// Enabled reports whether a Redis address is configured
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	ServiceName  string  `koanf:"service_name"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	Insecure     bool    `koanf:"insecure"`
	SampleRate   float64 `koanf:"sample_rate" validate:"gte=0,lte=1"`
}

// Default returns the configuration used before any file or environment overrides
func Default() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   "json",
		Ledger: LedgerConfig{
			Source: SourceCSV,
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    30 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			TTL:          10 * time.Minute,
			KeyPrefix:    "li:ledger:",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "ledger-insights",
			SampleRate:  1.0,
		},
		Analysis: analytics.DefaultConfig(),
	}
}

// Load reads defaults, then the YAML file at path (DefaultPath when empty), then
// a .env file, then LI_ environment variables. A double underscore separates
// nesting levels, so LI_ANALYSIS__CONFIDENCE_THRESHOLD sets
// analysis.confidence_threshold. A missing config file is only an error when
// path was given explicitly.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the process
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

var validate = validator.New()

// Validate checks field ranges, including the analysis thresholds
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewValidationError("INVALID_CONFIG", fmt.Sprintf("invalid configuration: %v", err)).WithCause(err)
	}
	return nil
}

// ValidateSource checks that the selected ledger source has what it needs. It
// is separate from Validate because command-line flags may fill these in after
// Load.
func (c *Config) ValidateSource() error {
	switch c.Ledger.Source {
	case SourceCSV:
		if c.Ledger.CSVPath == "" {
			return errors.NewValidationError("INVALID_CONFIG", "ledger.csv_path is required for the csv source")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return errors.NewValidationError("INVALID_CONFIG", "database.url is required for the postgres source")
		}
	}
	return nil
}
