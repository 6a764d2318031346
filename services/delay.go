package services

import (
	"context"
	"time"
)

// wait blocks for d or until ctx is done, whichever comes first.
// It returns ctx.Err() in the latter case.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
