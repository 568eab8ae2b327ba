package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps thresholds and layer events; tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the stamping clock. Nil restores real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// now returns the current stamping time in UTC.
func now() time.Time { return clock.Now().UTC() }
