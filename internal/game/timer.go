package game

// Countdown is the round timer: idle, or running with whole seconds left.
// It owns no goroutine; something outside calls Tick once per second.
type Countdown struct {
	remaining int
	running   bool
}

// Start seeds the countdown, overwriting any timer already running
func (c *Countdown) Start(seconds int) error {
	if seconds <= 0 {
		return ErrInvalidAmount
	}
	c.remaining = seconds
	c.running = true
	return nil
}

// Stop returns to idle. Returns false if the timer was already idle.
func (c *Countdown) Stop() bool {
	if !c.running {
		return false
	}
	c.running = false
	c.remaining = 0
	return true
}

// Tick removes one second. expired is true exactly once, on the tick that
// reaches zero; the countdown is idle afterwards. Ticking while idle is a no-op.
func (c *Countdown) Tick() (remaining int, expired bool) {
	if !c.running {
		return 0, false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		return 0, true
	}
	return c.remaining, false
}

// Remaining returns the seconds left (zero when idle)
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Running reports whether a countdown is in progress
func (c *Countdown) Running() bool {
	return c.running
}
