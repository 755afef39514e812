// Package sim runs the firing engine against virtual hardware on a
// deterministic microsecond clock. Tests and the godim-sim tool use it to
// reproduce whole mains cycles without a scope.
package sim

// Event is a scheduled callback. Cancel keeps a not-yet-run event from
// firing.
type Event struct {
	at        uint32
	run       func()
	next      *Event
	cancelled bool
}

// Cancel marks the event so Advance skips it.
func (e *Event) Cancel() {
	e.cancelled = true
}

// Clock is a deterministic virtual microsecond clock with a sorted event
// queue.
type Clock struct {
	now  uint32
	head *Event
}

// Now returns the current virtual time in microseconds.
func (c *Clock) Now() uint32 {
	return c.now
}

// Schedule queues fn to run at the absolute virtual time at.
func (c *Clock) Schedule(at uint32, fn func()) *Event {
	e := &Event{at: at, run: fn}
	c.insert(e)
	return e
}

// insert keeps the queue sorted by time; equal timestamps run in
// insertion order.
func (c *Clock) insert(e *Event) {
	if c.head == nil || e.at < c.head.at {
		e.next = c.head
		c.head = e
		return
	}

	current := c.head
	for current.next != nil && current.next.at <= e.at {
		current = current.next
	}

	e.next = current.next
	current.next = e
}

// Advance moves the clock forward by d microseconds, running every due
// event in timestamp order. Events scheduled while advancing run too when
// they fall inside the window.
func (c *Clock) Advance(d uint32) {
	target := c.now + d
	for c.head != nil && c.head.at <= target {
		e := c.head
		c.head = e.next
		e.next = nil

		c.now = e.at
		if !e.cancelled {
			e.run()
		}
	}
	c.now = target
}
