package util

import (
	"context"
	"time"
)

// Retry runs op until it succeeds, giving up after the given number of
// attempts and returning the final error. The wait between failures starts
// at baseDelay and doubles each time; there is no wait after the last
// attempt. Cancelling the context during a wait aborts with ctx.Err().
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, op func() error) error {
	delay := baseDelay
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if attempt >= attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
