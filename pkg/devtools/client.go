package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

const (
	// DefaultHost is the default debugging endpoint host. Chrome 66+
	// requires it to be an IP address or "localhost".
	DefaultHost = "127.0.0.1"

	// DefaultPort is the conventional remote debugging port.
	DefaultPort = 9222
)

// Descriptor is an opaque JSON object returned by the debugging
// endpoint. Its shape is defined by the browser, not by this package;
// fields are forwarded to the caller without interpretation.
type Descriptor map[string]any

// Client wraps the tab operations of the debugging endpoint.
type Client struct {
	host      string
	port      int
	transport Transport
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHost sets the endpoint host.
func WithHost(host string) ClientOption {
	return func(c *Client) {
		c.host = host
	}
}

// WithPort sets the remote debugging port.
func WithPort(port int) ClientOption {
	return func(c *Client) {
		c.port = port
	}
}

// WithTransport replaces the HTTP transport, typically with a stub in
// tests.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

// NewClient creates a client for http://host:port with the default
// transport.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		host: DefaultHost,
		port: DefaultPort,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport()
	}
	return c
}

// endpoint builds the full URL for a /json path.
func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("http://%s:%d%s", c.host, c.port, path)
}

// get issues a request and decodes the JSON response into v.
func (c *Client) get(ctx context.Context, path string, v any) error {
	u := c.endpoint(path)
	body, err := c.transport.Do(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ProtocolError{URL: u, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}
	return nil
}

// ListTabs returns the descriptors of all open tabs.
func (c *Client) ListTabs(ctx context.Context) ([]Descriptor, error) {
	var tabs []Descriptor
	if err := c.get(ctx, "/json/list", &tabs); err != nil {
		return nil, err
	}
	return tabs, nil
}

// OpenTab opens the URL in a new tab and returns its descriptor. The
// URL is percent-encoded before path construction.
func (c *Client) OpenTab(ctx context.Context, urlstr string) (Descriptor, error) {
	query := url.Values{"url": {urlstr}}
	var tab Descriptor
	if err := c.get(ctx, "/json/new?"+query.Encode(), &tab); err != nil {
		return nil, err
	}
	return tab, nil
}

// CloseTab closes the tab with the given target id and returns the
// endpoint's status descriptor.
func (c *Client) CloseTab(ctx context.Context, targetID string) (Descriptor, error) {
	var status Descriptor
	if err := c.get(ctx, "/json/close/"+targetID, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// ActivateTab brings the tab with the given target id to the foreground
// and returns the endpoint's status descriptor.
func (c *Client) ActivateTab(ctx context.Context, targetID string) (Descriptor, error) {
	var status Descriptor
	if err := c.get(ctx, "/json/activate/"+targetID, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// Version returns the endpoint's browser and protocol version info.
func (c *Client) Version(ctx context.Context) (Descriptor, error) {
	var info Descriptor
	if err := c.get(ctx, "/json/version", &info); err != nil {
		return nil, err
	}
	return info, nil
}
