// Package config loads the application configuration used by the entrybatch
// command: a YAML file with ${VAR} placeholders, expanded from the process
// environment after an optional .env file has been loaded.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jdziat/entrybatch/pkg/browser"
	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/orchestrator"
	"github.com/jdziat/entrybatch/pkg/processor"
	"github.com/jdziat/entrybatch/pkg/retry"
	"github.com/jdziat/entrybatch/pkg/security"
	"github.com/jdziat/entrybatch/pkg/source"
	"github.com/jdziat/entrybatch/pkg/storage"
)

// Config is the root of the configuration file.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Browser  browser.Config `yaml:"browser"`
	Run      RunConfig      `yaml:"run"`
	Source   source.Columns `yaml:"source"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// RunConfig controls the orchestrator.
type RunConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	RecordDelay    time.Duration `yaml:"record_delay"`
	PauseOnFailure bool          `yaml:"pause_on_failure"`
	Backoff        BackoffConfig `yaml:"backoff"`

	// Strategies lists chain modes in fallback order.
	Strategies []string `yaml:"strategies"`
}

// BackoffConfig is the pause between attempts of one record.
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
	Jitter     float64       `yaml:"jitter"`
}

// StorageConfig locates the SQLite database that records run history.
// An empty Path disables persistence.
type StorageConfig struct {
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr    string `yaml:"addr"`
	Runtime bool   `yaml:"runtime"`
}

// Default returns the configuration used for any key the file omits.
func Default() Config {
	policy := retry.DefaultPolicy()
	pool := storage.SQLitePoolConfig()

	return Config{
		LogLevel: "info",
		Browser:  browser.DefaultConfig(),
		Run: RunConfig{
			MaxAttempts:    policy.MaxAttempts,
			RecordDelay:    orchestrator.DefaultRecordDelay,
			PauseOnFailure: true,
			Backoff: BackoffConfig{
				Initial:    policy.InitialBackoff,
				Max:        policy.MaxBackoff,
				Multiplier: policy.Multiplier,
				Jitter:     policy.JitterFraction,
			},
			Strategies: []string{string(core.ModePrimary), string(core.ModeAlternative)},
		},
		Storage: StorageConfig{
			Path:            "entrybatch.db",
			MaxOpenConns:    pool.MaxOpenConns,
			ConnMaxLifetime: pool.ConnMaxLifetime,
		},
	}
}

// Load reads envFile (when non-empty) into the process environment, then
// parses path over Default and validates the result.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} placeholders in data and decodes it over Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem in c.
func (c Config) Validate() error {
	var result *multierror.Error

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("config: unknown log_level %q", c.LogLevel))
	}

	if err := c.Browser.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Source.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Run.MaxAttempts < 1 || c.Run.MaxAttempts > security.MaxAttempts {
		result = multierror.Append(result, fmt.Errorf("config: run.max_attempts must be between 1 and %d", security.MaxAttempts))
	}
	if c.Run.RecordDelay < 0 || c.Run.RecordDelay > security.MaxRecordDelay {
		result = multierror.Append(result, fmt.Errorf("config: run.record_delay must be between 0 and %s", security.MaxRecordDelay))
	}
	if c.Run.Backoff.Jitter < 0 || c.Run.Backoff.Jitter > 1 {
		result = multierror.Append(result, errors.New("config: run.backoff.jitter must be between 0 and 1"))
	}
	if _, err := c.Run.StrategyTable(); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Storage.MaxOpenConns < 0 {
		result = multierror.Append(result, errors.New("config: storage.max_open_conns must not be negative"))
	}

	return result.ErrorOrNil()
}

// Policy returns the retry policy described by r.
func (r RunConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    r.MaxAttempts,
		InitialBackoff: r.Backoff.Initial,
		MaxBackoff:     r.Backoff.Max,
		Multiplier:     r.Backoff.Multiplier,
		JitterFraction: r.Backoff.Jitter,
	}
}

// StrategyTable reorders the built-in chain strategies as listed in
// Strategies.
func (r RunConfig) StrategyTable() (processor.StrategyTable, error) {
	builtin := processor.DefaultStrategies()
	byMode := make(map[core.StrategyMode]processor.Strategy, len(builtin))
	for _, s := range builtin {
		byMode[s.Mode] = s
	}

	table := make(processor.StrategyTable, 0, len(r.Strategies))
	for _, name := range r.Strategies {
		s, ok := byMode[core.StrategyMode(strings.ToLower(strings.TrimSpace(name)))]
		if !ok {
			return nil, fmt.Errorf("config: run.strategies: %w: %q", core.ErrUnknownMode, name)
		}
		table = append(table, s)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("config: run.strategies: %w", err)
	}
	return table, nil
}

// Options converts r into orchestrator options.
func (r RunConfig) Options() ([]orchestrator.Option, error) {
	table, err := r.StrategyTable()
	if err != nil {
		return nil, err
	}
	return []orchestrator.Option{
		orchestrator.Retry(r.Policy()),
		orchestrator.WithStrategies(table),
		orchestrator.RecordDelay(r.RecordDelay),
		orchestrator.PauseOnFailure(r.PauseOnFailure),
	}, nil
}

// PoolOptions converts s into storage pool options.
func (s StorageConfig) PoolOptions() []storage.PoolOption {
	opts := []storage.PoolOption{storage.SQLitePool()}
	if s.MaxOpenConns > 0 {
		opts = append(opts, storage.MaxOpenConns(s.MaxOpenConns), storage.MaxIdleConns(s.MaxOpenConns))
	}
	if s.ConnMaxLifetime > 0 {
		opts = append(opts, storage.ConnMaxLifetime(s.ConnMaxLifetime))
	}
	return opts
}
