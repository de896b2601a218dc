// Package deadline implements Deadline (spec §3/§4), a monotonic instant
// that later-executed code measures its remaining budget against. Adapted
// from the teacher's eventloop.AbortTimeout pattern of deriving a
// fire-after-duration control surface from the injectable clock, but
// expressed here as a plain value (no signal/callback machinery - Retryable
// and other consumers poll RemainingMillis/IsExpired directly).
package deadline

import (
	"time"

	"github.com/joeycumines/asyncrt/internal/clock"
)

// Deadline is a monotonic instant (spec §3 Deadline).
type Deadline struct {
	clk clock.Clock
	at  time.Time
}

// New creates a Deadline d from now, as measured by clk.
func New(clk clock.Clock, d time.Duration) Deadline {
	if clk == nil {
		clk = clock.Real
	}
	return Deadline{clk: clk, at: clk.Now().Add(d)}
}

// At creates a Deadline at the fixed instant t, as measured by clk.
func At(clk clock.Clock, t time.Time) Deadline {
	if clk == nil {
		clk = clock.Real
	}
	return Deadline{clk: clk, at: t}
}

// Remaining returns the time left until the deadline, clamped to 0.
func (d Deadline) Remaining() time.Duration {
	if d.clk == nil {
		return 0
	}
	r := d.at.Sub(d.clk.Now())
	if r < 0 {
		return 0
	}
	return r
}

// IsExpired reports whether Remaining() == 0.
func (d Deadline) IsExpired() bool {
	return d.Remaining() == 0
}

// Instant returns the underlying instant.
func (d Deadline) Instant() time.Time { return d.at }
