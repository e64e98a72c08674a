package devtools

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultPollInterval is the fixed sleep between readiness probes.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultStartupTimeout is the total budget for the endpoint to
	// start answering after the process is spawned.
	DefaultStartupTimeout = 15 * time.Second
)

// waitUntilReady probes the endpoint by listing tabs until a probe
// succeeds or the timeout elapses. There is no backoff: every failed
// probe sleeps the same fixed interval. Each probe is individually
// bounded by the transport's request timeout, so the overall deadline
// is always reachable.
//
// Exhausting the deadline yields a *ReadinessTimeoutError; a context
// canceled before then is reported as the context's own error, since
// the endpoint was never given its full budget.
func waitUntilReady(ctx context.Context, client *Client, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for time.Now().Before(deadline) {
		if _, err := client.ListTabs(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return fmt.Errorf("readiness polling canceled: %w", ctx.Err())
		}
	}

	return &ReadinessTimeoutError{Deadline: timeout.String(), Last: lastErr}
}
