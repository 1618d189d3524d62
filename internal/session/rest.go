package session

import "github.com/claude/fitcoach/internal/models"

type restTimer struct {
	total     int
	remaining int
	state     models.RestState
}

// StartRestTimer starts a countdown from the current exercise's rest time,
// falling back to Options.DefaultRest. It returns the countdown length.
func (c *Controller) StartRestTimer() (int, error) {
	const op = "start_rest"
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireCurrentLocked(op); err != nil {
		return 0, err
	}
	secs := c.progress[c.cursor].RestSeconds
	if secs <= 0 {
		secs = c.opts.DefaultRest
	}
	if secs <= 0 {
		return 0, &Error{Kind: KindValidation, Op: op, Err: ErrNoRestTime}
	}
	c.startRestLocked(secs, models.RestRunning)
	return secs, nil
}

// ToggleRestTimerPause flips a running countdown to paused and back.
func (c *Controller) ToggleRestTimerPause() (models.RestState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.rest.state {
	case models.RestRunning:
		c.rest.state = models.RestPaused
	case models.RestPaused:
		c.rest.state = models.RestRunning
	default:
		return c.rest.state, stateErr("toggle_rest", ErrNoRestTimer)
	}
	return c.rest.state, nil
}

// ResetRestTimer restores the full countdown. A paused timer stays paused; a
// finished one starts running again.
func (c *Controller) ResetRestTimer() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rest.state == models.RestIdle {
		return stateErr("reset_rest", ErrNoRestTimer)
	}
	state := c.rest.state
	if state == models.RestComplete {
		state = models.RestRunning
	}
	c.startRestLocked(c.rest.total, state)
	return nil
}

// CancelRestTimer stops the countdown. Calling it with no timer is a no-op.
func (c *Controller) CancelRestTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelRestLocked()
}

func (c *Controller) startRestLocked(secs int, state models.RestState) {
	c.cancelRestLocked()
	c.rest = restTimer{total: secs, remaining: secs, state: state}
	gen := c.restGen
	c.stopRest = c.startTickerLocked(func() bool { return c.onRestTick(gen) })
}

func (c *Controller) cancelRestLocked() {
	c.restGen++
	if c.stopRest != nil {
		c.stopRest()
		c.stopRest = nil
	}
	c.rest = restTimer{state: models.RestIdle}
}

// onRestTick counts down one second while running. At zero the timer
// completes and stops itself.
func (c *Controller) onRestTick(gen uint64) bool {
	c.mu.Lock()
	if gen != c.restGen {
		c.mu.Unlock()
		return false
	}
	switch c.rest.state {
	case models.RestPaused:
		c.mu.Unlock()
		return true
	case models.RestRunning:
	default:
		c.mu.Unlock()
		return false
	}
	if c.rest.remaining > 0 {
		c.rest.remaining--
	}
	if c.rest.remaining > 0 {
		c.mu.Unlock()
		return true
	}
	c.rest.state = models.RestComplete
	if c.stopRest != nil {
		c.stopRest()
		c.stopRest = nil
	}
	idx := c.cursor
	c.mu.Unlock()

	c.log.Debug("rest complete", "index", idx)
	c.opts.Observer.RestCompleted()
	c.emit(Event{Type: EventRestComplete, Index: idx})
	return false
}
