package stamper

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/stamper/metrics"
)

// config holds Pool and BatchDispatcher configuration.
type config struct {
	// Workers defines the number of persistent workers (pool) or executors (batch).
	// Must be > 0.
	// Default: 2
	Workers uint

	// Logger receives worker exit records and task diagnostics.
	// Default: a logger discarding everything.
	Logger *slog.Logger

	// Metrics provides instruments for queue and task accounting.
	// Default: metrics.NoopProvider.
	Metrics metrics.Provider

	// RunID correlates log records and reports of a single run.
	// Default: a random UUID.
	RunID string
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Workers: 2,
		Logger:  slog.New(slog.DiscardHandler),
		Metrics: metrics.NewNoopProvider(),
		RunID:   "",
	}
}

// validateConfig checks invariants options cannot enforce on their own
// and fills in values that are generated per instance.
func validateConfig(cfg *config) error {
	if cfg.Workers == 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("workers", "must be > 0"))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopProvider()
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return nil
}

// buildConfig applies opts over the defaults and validates the result.
func buildConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// Option configures a Pool or a BatchDispatcher.
type Option func(*config) error

// WithWorkers sets the number of concurrent workers (must be > 0).
func WithWorkers(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithWorkers requires n > 0"))
		}
		cfg.Workers = n
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(cfg *config) error { cfg.RunID = id; return nil }
}
