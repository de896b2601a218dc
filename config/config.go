// Package config loads optional TOML-backed tunables for the runtime's
// constructors (spec SPEC_FULL.md §1 domain stack). It is deliberately thin:
// a process may choose to construct every WorkerPool/RateLimiter/Retryable
// directly with Go literals instead, ignoring this package entirely - config
// exists to read operator-facing defaults once at startup, not to carry any
// scheduling policy of its own.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// WorkerPoolTunables mirrors workerpool.New's constructor arguments.
type WorkerPoolTunables struct {
	MaxConcurrency int `toml:"max_concurrency"`
	MaxQueueLength int `toml:"max_queue_length"`
}

// RateLimitTunables mirrors a single ratelimit.Limit (Bucket plus per-call
// cost), expressed in TOML-friendly scalar fields rather than a
// clock.Clock-carrying struct.
type RateLimitTunables struct {
	MaxBalance          int64         `toml:"max_balance"`
	ReplenishInterval   time.Duration `toml:"replenish_interval"`
	Cost                int64         `toml:"cost"`
}

// RetryTunables mirrors retry.New's constructor arguments.
type RetryTunables struct {
	MaxRetries int           `toml:"max_retries"`
	MaxDelay   time.Duration `toml:"max_delay"`
}

// Config is the root document a TOML file may populate. Every section is
// optional; a zero Config is valid and simply carries no overrides.
type Config struct {
	WorkerPool *WorkerPoolTunables  `toml:"worker_pool"`
	RateLimit  []RateLimitTunables  `toml:"rate_limit"`
	Retry      *RetryTunables       `toml:"retry"`
}

// Load reads and decodes a TOML file at path. A missing or malformed file is
// reported as an error - callers that want to treat config as fully optional
// should fall back to a zero Config on error rather than have Load silently
// swallow it.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
