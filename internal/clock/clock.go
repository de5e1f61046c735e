// Package clock provides the virtual bank clock. Every timestamp in the
// system comes from here, so simulations and catch-up runs can move time
// without touching the wall clock.
package clock

import (
	"sync"
	"time"
)

// Timestamp formats used across snapshots and the activity log.
const (
	DateTimeFormat = "02-01-2006 15:04:05"
	DateFormat     = "02-01-2006"
	ISODateFormat  = "2006-01-02"
)

// Clock is a settable virtual clock. The zero value is not usable; construct
// with New.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// New returns a clock initialized to the current wall time.
func New() *Clock {
	return &Clock{now: time.Now()}
}

// NewAt returns a clock pinned to t.
func NewAt(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today returns the current virtual date truncated to midnight.
func (c *Clock) Today() time.Time {
	n := c.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// AdvanceDay moves the clock forward by one day.
func (c *Clock) AdvanceDay() {
	c.Advance(24 * time.Hour)
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FormattedDateTime returns the current time as "dd-MM-yyyy HH:mm:ss".
func (c *Clock) FormattedDateTime() string {
	return c.Now().Format(DateTimeFormat)
}

// FormattedDate returns the current date as "dd-MM-yyyy".
func (c *Clock) FormattedDate() string {
	return c.Now().Format(DateFormat)
}
