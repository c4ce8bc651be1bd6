// Package timeouts holds the process-wide deadlines handlers put on store
// calls.
//
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads and counter updates
//   - Medium: per-pair progress reads, validation sweeps, catalog pages
//   - Long: obligation snapshots that read several collections
package timeouts

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Config is one full set of timeouts.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

func defaults() *Config {
	return &Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

var current atomic.Pointer[Config]

func init() { current.Store(defaults()) }

func Ping() time.Duration   { return current.Load().Ping }
func Short() time.Duration  { return current.Load().Short }
func Medium() time.Duration { return current.Load().Medium }
func Long() time.Duration   { return current.Load().Long }

// Configure overrides the non-zero fields of cfg and keeps the rest.
func Configure(cfg Config) {
	for {
		old := current.Load()
		next := *old
		if cfg.Ping > 0 {
			next.Ping = cfg.Ping
		}
		if cfg.Short > 0 {
			next.Short = cfg.Short
		}
		if cfg.Medium > 0 {
			next.Medium = cfg.Medium
		}
		if cfg.Long > 0 {
			next.Long = cfg.Long
		}
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Reset restores the defaults.
func Reset() { current.Store(defaults()) }

// Current returns a copy of the active configuration.
func Current() Config { return *current.Load() }

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline, not the caller, ended the context.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "compute obligations")
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
