package cancel

import (
	"github.com/joeycumines/asyncrt/internal/clock"
)

// Combine derives a token that cancels when any of tokens cancels (spec
// §4.1 Combine). Rules, applied in order:
//
//  1. None tokens are filtered out.
//  2. If any remaining token is already cancelled, that token is returned
//     directly (first one found wins).
//  3. Among the remaining timeout tokens, only the one with the largest
//     remaining duration is kept; the others are subsumed (their firing
//     cannot pre-empt the retained one deterministically - see spec §9
//     Open Questions; this implementation preserves the source behavior
//     rather than inverting it to earliest-wins, per DESIGN.md).
//  4. The retained timeout (if any) plus every non-timeout token register a
//     callback that cancels the combined token on first firing, carrying
//     that firing's reason.
//  5. If nothing remains after filtering, None() is returned.
//
// clk is used only to compare timeout tokens' remaining durations; pass nil
// to use clock.Real.
func Combine(clk clock.Clock, tokens ...*Token) *Token {
	if clk == nil {
		clk = clock.Real
	}

	var live []*Token
	for _, t := range tokens {
		if t == nil || t == none {
			continue
		}
		if t.IsCancelled() {
			return t
		}
		live = append(live, t)
	}

	if len(live) == 0 {
		return none
	}

	var (
		nonTimeout    []*Token
		bestTimeout   *Token
		bestRemaining int64 = -1
	)
	for _, t := range live {
		remaining, isTimeout := t.remaining(clk)
		if !isTimeout {
			nonTimeout = append(nonTimeout, t)
			continue
		}
		if int64(remaining) > int64(bestRemaining) {
			bestRemaining = int64(remaining)
			bestTimeout = t
		}
	}

	combined, controller := New()

	register := func(t *Token) {
		t.Register(func(reason error) {
			controller.Cancel(reason)
		})
	}
	for _, t := range nonTimeout {
		register(t)
	}
	if bestTimeout != nil {
		register(bestTimeout)
	}

	return combined
}
