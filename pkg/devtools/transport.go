// Package devtools drives a locally launched Chromium-based browser through
// the HTTP half of its remote debugging protocol. It covers process
// lifecycle (spawn, readiness polling, terminate) and the small set of
// tab operations exposed under /json: list, new, activate, close.
//
// Process and network interactions sit behind the Spawner and Transport
// interfaces so they can be stubbed in tests; the production
// implementations are ExecSpawner and HTTPTransport.
package devtools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds every individual endpoint request so a
// single hung call cannot silently consume the readiness budget.
const DefaultRequestTimeout = 5 * time.Second

// Transport issues a single GET request against the debugging endpoint
// and returns the raw response body.
type Transport interface {
	Do(ctx context.Context, url string) ([]byte, error)
}

// HTTPTransport is the production Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		t.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client entirely.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

// NewHTTPTransport creates a transport with the default request timeout.
func NewHTTPTransport(opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do executes a GET request and returns the response body. Transport
// failures and non-2xx statuses are reported as *ProtocolError.
func (t *HTTPTransport) Do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ProtocolError{URL: url, Err: err}
	}

	res, err := t.client.Do(req)
	if err != nil {
		return nil, &ProtocolError{URL: url, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ProtocolError{URL: url, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &ProtocolError{URL: url, Err: fmt.Errorf("unexpected status %s", res.Status)}
	}

	return body, nil
}
