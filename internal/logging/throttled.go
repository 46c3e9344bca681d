// Package logging provides the small throttled-warning helper the
// setpoint tick needs: transform failures during the tick are logged
// at a throttled rate, never once per tick at 30Hz.
package logging

import (
	"log"
	"sync"
	"time"
)

// Throttled logs at most once per Interval, dropping messages in
// between. The zero value is usable and defaults to a 1 second
// interval.
type Throttled struct {
	Interval time.Duration
	Logger   *log.Logger

	mu   sync.Mutex
	last time.Time
}

func (t *Throttled) interval() time.Duration {
	if t.Interval <= 0 {
		return time.Second
	}
	return t.Interval
}

// Throttledf logs the formatted message if at least Interval has
// passed since the last one it let through.
func (t *Throttled) Throttledf(format string, args ...interface{}) {
	now := time.Now()

	t.mu.Lock()
	fire := now.Sub(t.last) >= t.interval()
	if fire {
		t.last = now
	}
	t.mu.Unlock()

	if !fire {
		return
	}

	if t.Logger != nil {
		t.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
