package processor

import (
	"log/slog"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/retry"
	"github.com/jdziat/entrybatch/pkg/security"
)

// Option configures a processor.
type Option interface {
	ApplyProcessor(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) ApplyProcessor(c *Config) { f(c) }

// Config holds processor configuration.
type Config struct {
	Retry      retry.Policy
	Strategies StrategyTable
	Observer   core.Observer
	Logger     *slog.Logger
}

// DefaultConfig returns the default processor configuration.
func DefaultConfig() Config {
	return Config{
		Retry:      retry.DefaultPolicy(),
		Strategies: DefaultStrategies(),
		Observer:   core.NopObserver{},
		Logger:     slog.Default(),
	}
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt.ApplyProcessor(&cfg)
	}
	return cfg
}

func (c Config) normalized() Config {
	if c.Observer == nil {
		c.Observer = core.NopObserver{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if len(c.Strategies) == 0 {
		c.Strategies = DefaultStrategies()
	}
	return c
}

// MaxAttempts sets the attempts per record, clamped to [1, security.MaxAttempts].
func MaxAttempts(n int) Option {
	return optionFunc(func(c *Config) {
		c.Retry.MaxAttempts = security.ClampAttempts(n)
	})
}

// Retry replaces the retry policy.
func Retry(p retry.Policy) Option {
	return optionFunc(func(c *Config) {
		c.Retry = p
	})
}

// WithStrategies replaces the chain strategy table.
func WithStrategies(t StrategyTable) Option {
	return optionFunc(func(c *Config) {
		c.Strategies = t
	})
}

// WithObserver sets the observer that receives attempt and chain events.
func WithObserver(o core.Observer) Option {
	return optionFunc(func(c *Config) {
		c.Observer = o
	})
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		c.Logger = l
	})
}
