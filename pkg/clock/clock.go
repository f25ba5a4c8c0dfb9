package clock

import "time"

// Clock provides the time used to stamp outgoing envelopes.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewWallClock returns a Clock backed by time.Now.
func NewWallClock() Clock {
	return wallClock{}
}

// FixedClock always reports the same instant.
type FixedClock struct {
	t time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (f *FixedClock) Now() time.Time { return f.t }
