package core

import "time"

// Clock measures elapsed seconds since Start. The time source is injectable
// so the render loop can be driven deterministically in tests.
type Clock struct {
	now func() time.Time

	start   time.Time
	last    time.Time
	elapsed float64
	delta   float64
	running bool
	stopped bool
}

func NewClock() *Clock {
	return NewClockWithSource(time.Now)
}

func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Start resets elapsed time and begins measuring.
func (c *Clock) Start() {
	c.start = c.now()
	c.last = c.start
	c.elapsed = 0
	c.delta = 0
	c.running = true
	c.stopped = false
}

// Update advances the clock. Should be called once per frame, before
// reading Elapsed or Delta. The first Update on a fresh clock starts it; a
// stopped clock stays frozen.
func (c *Clock) Update() {
	if !c.running {
		if !c.stopped {
			c.Start()
		}
		return
	}
	t := c.now()
	c.delta = t.Sub(c.last).Seconds()
	c.elapsed = t.Sub(c.start).Seconds()
	c.last = t
}

// Stop freezes the clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
	c.stopped = true
	c.delta = 0
}

// Elapsed returns seconds since Start as of the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// Delta returns seconds between the last two Updates.
func (c *Clock) Delta() float64 {
	return c.delta
}
