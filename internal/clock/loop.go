// Package clock provides the periodic-timer primitive the scheduler loops run on.
package clock

import (
	"context"
	"time"
)

// Loop invokes fn on every period boundary until the context ends. fn runs
// synchronously, so a firing that arrives while the previous one is still
// running is coalesced into at most one pending fire. The delay between the
// scheduled and actual dispatch of each firing is reported through onLag.
func Loop(ctx context.Context, period time.Duration, onLag func(time.Duration), fn func(context.Context)) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case scheduled := <-ticker.C:
			if onLag != nil {
				onLag(time.Since(scheduled))
			}
			fn(ctx)
		}
	}
}
