// Package workflow orchestrates the multi-step front-desk flows:
// registering deliveries, confirming pickups, sending reminders and
// síndico broadcasts. Each flow runs sequentially per recipient with a
// fixed courtesy delay between webhook calls, and every remote call is
// independently fallible: one resident's failure never blocks the next.
package workflow

import (
	"context"
	"time"
)

// Clock abstracts time and delays so batch sends are testable without
// real timers.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Sleep waits for d or until the context is cancelled, whichever comes
// first.
func (realClock) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }
