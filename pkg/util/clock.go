package util

import (
	"sync"
	"time"
)

type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now().UTC() }

// FakeClock is a manually advanced clock for tests. Every Now call steps the
// clock forward by Step so consecutive events get distinct timestamps.
type FakeClock struct {
	mu   sync.Mutex
	t    time.Time
	Step time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start, Step: time.Millisecond}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.Step)
	return now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// After fires immediately; tests never wait on real time.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.Advance(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}
