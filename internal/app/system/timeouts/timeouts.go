// Package timeouts provides the deadlines used for store I/O, outbound
// completion calls and the refresh worker.
//
// Values start at the defaults below and can be replaced once at startup
// with Configure.
//
//   - Ping: health checks (storage probe, Mongo ping)
//   - Short: single credential or plan lookups
//   - Medium: writes touching one family (restrictions, one plan version)
//   - Long: a whole intake submission minus the completion call
//   - Generation: one completion request
//   - Batch: one family inside a refresh cycle, generation included
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing       = 2 * time.Second
	DefaultShort      = 5 * time.Second
	DefaultMedium     = 10 * time.Second
	DefaultLong       = 30 * time.Second
	DefaultGeneration = 2 * time.Minute
	DefaultBatch      = 3 * time.Minute
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping       = DefaultPing
	short      = DefaultShort
	medium     = DefaultMedium
	long       = DefaultLong
	generation = DefaultGeneration
	batch      = DefaultBatch
)

func get(v *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *v
}

// Ping returns the timeout for health checks.
func Ping() time.Duration { return get(&ping) }

// Short returns the timeout for single lookups such as a login.
func Short() time.Duration { return get(&short) }

// Medium returns the timeout for single-family writes.
func Medium() time.Duration { return get(&medium) }

// Long returns the timeout for multi-step writes.
func Long() time.Duration { return get(&long) }

// Generation returns the deadline for one completion request.
func Generation() time.Duration { return get(&generation) }

// Batch returns the per-family deadline inside a refresh cycle.
func Batch() time.Duration { return get(&batch) }

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping       time.Duration
	Short      time.Duration
	Medium     time.Duration
	Long       time.Duration
	Generation time.Duration
	Batch      time.Duration
}

// Configure sets custom timeout values. Zero values keep the current value.
// Call it during startup before handlers are registered.
//
// When Generation is raised above Batch, Batch follows it so a refresh never
// cuts a completion call shorter than an intake would.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&long, cfg.Long)
	set(&generation, cfg.Generation)
	set(&batch, cfg.Batch)
	if batch < generation {
		batch = generation + time.Minute
	}
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	long = DefaultLong
	generation = DefaultGeneration
	batch = DefaultBatch
}

// Current returns the current timeout configuration as a Config struct.
// Useful for logging or debugging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:       ping,
		Short:      short,
		Medium:     medium,
		Long:       long,
		Generation: generation,
		Batch:      batch,
	}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
// Example:
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Generation(), w.Log, "generate meal plan")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
