package session

import (
	"context"
	"time"
)

// Ticker is the subset of *time.Ticker the controller uses. Tests substitute
// a manual implementation.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// run drives tick on every ticker fire until ctx is cancelled or tick
// returns false. The ticker is always stopped on exit.
func (c *Controller) run(ctx context.Context, t Ticker, tick func() bool) {
	defer c.wg.Done()
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if !tick() {
				return
			}
		}
	}
}

// startTickerLocked launches a ticker goroutine and returns its cancel func.
func (c *Controller) startTickerLocked(tick func() bool) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	t := c.opts.NewTicker(c.opts.TickInterval)
	c.wg.Add(1)
	go c.run(ctx, t, tick)
	return cancel
}
