package clock

import (
	"time"

	"github.com/aatuh/radioclock/ports"
	"github.com/jonboulle/clockwork"
)

// NewSystemClock returns the wall clock used in production.
func NewSystemClock() ports.Clock {
	return clockwork.NewRealClock()
}

// NewFake returns a manually advanced clock starting at t.
func NewFake(t time.Time) *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(t)
}
