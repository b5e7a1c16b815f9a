// Package notify delivers out-of-band alerts for noteworthy simulation
// moments: bankruptcy warnings, achievement unlocks, reconciliation failures.
// Hosts that configure no channel get the no-op implementation.
package notify

import (
	"context"
	"fmt"
	"time"
)

type Notifier interface {
	Send(text string) error
	Close() error
}

// Noop is the default when no channel is configured.
type Noop struct{}

func (Noop) Send(string) error { return nil }
func (Noop) Close() error      { return nil }

// SendWithRetry wraps Send with exponential backoff.
func SendWithRetry(ctx context.Context, n Notifier, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := n.Send(text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
