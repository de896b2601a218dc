package cancel

import (
	"sync"
	"time"

	"github.com/joeycumines/asyncrt/internal/clock"
)

// Controller exclusively owns a Token and is the only way to cancel it
// (spec §4.1 CancellationController). After Cancel, the token transitions
// to Cancelled exactly once; the controller retains no further obligations.
type Controller struct {
	token *Token
	once  sync.Once
}

// Token returns the token owned by this controller.
func (c *Controller) Token() *Token { return c.token }

// Cancel cancels the owned token with reason (nil becomes a generic
// CancellationError). Idempotent; only the first call's reason is kept.
func (c *Controller) Cancel(reason error) {
	c.once.Do(func() {
		c.token.cancel(reason)
	})
}

// CancelAfter schedules Cancel(reason) to run once d elapses, using clk
// (clock.Real if nil) to schedule the timer. Returns a dispose function
// that cancels the pending timer (but not the token) if called first.
func (c *Controller) CancelAfter(clk clock.Clock, d time.Duration, reason error) (dispose func()) {
	if clk == nil {
		clk = clock.Real
	}
	timer := clk.NewTimer(d)
	stop := make(chan struct{})
	go func() {
		select {
		case <-timer.C():
			c.Cancel(reason)
		case <-stop:
			timer.Stop()
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}
