package devtools

import "fmt"

// LaunchError indicates the browser process could not be spawned.
// It is fatal for the launch attempt and is never retried.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch browser %q: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ProtocolError indicates a single debugging-endpoint request failed,
// either at the transport level (connection refused, timeout, non-2xx
// status) or because the response body was not valid JSON. It carries
// the failing URL so a caller can diagnose without re-running.
type ProtocolError struct {
	URL string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("devtools request failed for %s: %v", e.URL, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ReadinessTimeoutError indicates the debugging endpoint never answered
// successfully before the startup deadline. Last holds the most recent
// attempt's error.
type ReadinessTimeoutError struct {
	Deadline string
	Last     error
}

func (e *ReadinessTimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("browser did not become ready within %s: %v", e.Deadline, e.Last)
	}
	return fmt.Sprintf("browser did not become ready within %s", e.Deadline)
}

func (e *ReadinessTimeoutError) Unwrap() error { return e.Last }

// ValidationError indicates a malformed action. It is raised before any
// network call is made, so a failing action has no side effects.
type ValidationError struct {
	Action ActionType
	Field  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unsupported action type: %q", e.Action)
	}
	return fmt.Sprintf("%s action requires a %q", e.Action, e.Field)
}
