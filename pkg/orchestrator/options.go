package orchestrator

import (
	"log/slog"
	"time"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/processor"
	"github.com/jdziat/entrybatch/pkg/retry"
	"github.com/jdziat/entrybatch/pkg/security"
)

// DefaultRecordDelay is the pause between consecutive records.
const DefaultRecordDelay = 2 * time.Second

// Option configures an Orchestrator.
type Option interface {
	ApplyOrchestrator(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) ApplyOrchestrator(c *Config) { f(c) }

// Config holds orchestrator configuration.
type Config struct {
	Processor      processor.Config
	RecordDelay    time.Duration
	PauseOnFailure bool
	RunID          string
	Observers      []core.Observer
	Logger         *slog.Logger
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Processor:      processor.DefaultConfig(),
		RecordDelay:    DefaultRecordDelay,
		PauseOnFailure: true,
		Logger:         slog.Default(),
	}
}

// MaxAttempts sets the attempts per record, clamped to [1, security.MaxAttempts].
func MaxAttempts(n int) Option {
	return optionFunc(func(c *Config) {
		c.Processor.Retry.MaxAttempts = security.ClampAttempts(n)
	})
}

// Retry replaces the retry policy.
func Retry(p retry.Policy) Option {
	return optionFunc(func(c *Config) {
		c.Processor.Retry = p
	})
}

// WithStrategies replaces the chain strategy table.
func WithStrategies(t processor.StrategyTable) Option {
	return optionFunc(func(c *Config) {
		c.Processor.Strategies = t
	})
}

// RecordDelay sets the pause between records, clamped to
// [0, security.MaxRecordDelay].
func RecordDelay(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.RecordDelay = security.ClampDelay(d)
	})
}

// PauseOnFailure controls whether a Failed result pauses the run.
// Default: true
func PauseOnFailure(enabled bool) Option {
	return optionFunc(func(c *Config) {
		c.PauseOnFailure = enabled
	})
}

// WithRunID sets the run ID. A random UUID is used otherwise.
func WithRunID(id string) Option {
	return optionFunc(func(c *Config) {
		c.RunID = id
	})
}

// WithObserver adds an observer. Observers are called in registration order.
func WithObserver(o core.Observer) Option {
	return optionFunc(func(c *Config) {
		if o != nil {
			c.Observers = append(c.Observers, o)
		}
	})
}

// WithLogger sets the logger used by the orchestrator and its processors.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		c.Logger = l
		c.Processor.Logger = l
	})
}
