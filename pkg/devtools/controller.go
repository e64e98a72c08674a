package devtools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/pilot/pkg/logging"
)

// DefaultExecutable is the browser binary used when none is configured.
const DefaultExecutable = "google-chrome"

// LaunchOptions configures a single launch attempt.
type LaunchOptions struct {
	// Headless launches the browser with --headless=new.
	Headless bool

	// UserDataDir, when set, is passed as --user-data-dir.
	UserDataDir string

	// ExtraArgs are appended verbatim after the standard flags.
	ExtraArgs []string

	// TerminateOnFailure terminates the spawned process when the
	// endpoint never becomes ready. When false the process is left
	// running and the caller owns cleanup, matching the historical
	// behavior.
	TerminateOnFailure bool
}

// Controller owns at most one browser process and composes the spawner,
// protocol client and dispatcher into the public lifecycle API.
//
// All lifecycle methods are safe for concurrent use. Launch attempts
// are serialized per controller; a Terminate issued while a launch is
// still polling blocks at most until that poll's deadline.
type Controller struct {
	executable     string
	port           int
	spawner        Spawner
	client         *Client
	dispatcher     *Dispatcher
	startupTimeout time.Duration
	pollInterval   time.Duration
	terminateGrace time.Duration
	logger         *logging.Logger

	mu      sync.Mutex
	process Process
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithExecutable sets the browser executable path.
func WithExecutable(path string) ControllerOption {
	return func(c *Controller) {
		c.executable = path
	}
}

// WithDebuggingPort sets the remote debugging port for both the spawn
// flags and the protocol client.
func WithDebuggingPort(port int) ControllerOption {
	return func(c *Controller) {
		c.port = port
	}
}

// WithSpawner replaces the process spawner, typically with a fake in
// tests.
func WithSpawner(s Spawner) ControllerOption {
	return func(c *Controller) {
		c.spawner = s
	}
}

// WithClient replaces the protocol client.
func WithClient(client *Client) ControllerOption {
	return func(c *Controller) {
		c.client = client
	}
}

// WithStartupTimeout sets the total readiness budget for Launch.
func WithStartupTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.startupTimeout = d
	}
}

// WithPollInterval sets the fixed sleep between readiness probes.
func WithPollInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.pollInterval = d
	}
}

// WithTerminateGrace sets how long Terminate waits for process exit.
func WithTerminateGrace(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.terminateGrace = d
	}
}

// NewController creates a controller with production defaults: the
// google-chrome binary, port 9222, a real spawner and HTTP transport.
func NewController(opts ...ControllerOption) *Controller {
	logger, _ := logging.NewLogger("devtools")

	c := &Controller{
		executable:     DefaultExecutable,
		port:           DefaultPort,
		startupTimeout: DefaultStartupTimeout,
		pollInterval:   DefaultPollInterval,
		terminateGrace: DefaultTerminateGrace,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.spawner == nil {
		c.spawner = NewExecSpawner()
	}
	if c.client == nil {
		c.client = NewClient(WithPort(c.port))
	}
	c.dispatcher = NewDispatcher(c.client)
	return c
}

// Launch spawns the browser with remote debugging enabled and blocks
// until the endpoint answers or the startup timeout elapses. Launching
// while the browser is already running is a no-op.
//
// On a readiness timeout the process is left spawned unless
// opts.TerminateOnFailure is set; either way the launch attempt is
// terminal and the controller is not ready.
func (c *Controller) Launch(ctx context.Context, opts LaunchOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.process != nil && c.process.Running() {
		return nil
	}

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", c.port),
		"--remote-allow-origins=*",
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	if opts.UserDataDir != "" {
		args = append(args, "--user-data-dir="+opts.UserDataDir)
	}
	args = append(args, opts.ExtraArgs...)

	c.logger.Infof("launching %s %v", c.executable, args)
	process, err := c.spawner.Spawn(c.executable, args)
	if err != nil {
		c.logger.Errorf("launch failed: %v", err)
		return err
	}
	c.process = process

	if err := waitUntilReady(ctx, c.client, c.startupTimeout, c.pollInterval); err != nil {
		c.logger.Errorf("endpoint never became ready: %v", err)
		if opts.TerminateOnFailure {
			process.Terminate(c.terminateGrace)
			c.process = nil
		}
		return err
	}

	c.logger.Infof("browser ready on port %d", c.port)
	return nil
}

// IsRunning reports whether the controller currently owns a live
// process. It returns false when nothing has been launched.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.process != nil && c.process.Running()
}

// Terminate signals the browser process and waits up to the configured
// grace period before dropping the handle. Calling it twice, or when
// nothing was launched, is a no-op.
func (c *Controller) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.process == nil {
		return
	}
	c.logger.Infof("terminating browser process")
	c.process.Terminate(c.terminateGrace)
	c.process = nil
}

// Execute dispatches a single action and returns its descriptor. It
// does not retry.
func (c *Controller) Execute(ctx context.Context, action Action) (Descriptor, error) {
	return c.dispatcher.Dispatch(ctx, action)
}

// ExecuteAll dispatches the actions sequentially in input order,
// stopping at the first failure.
func (c *Controller) ExecuteAll(ctx context.Context, actions []Action) ([]Descriptor, error) {
	return c.dispatcher.DispatchAll(ctx, actions)
}

// ExecuteStream dispatches the actions in order, invoking fn per
// completed action so callers can observe partial application.
func (c *Controller) ExecuteStream(ctx context.Context, actions []Action, fn func(Action, Descriptor)) error {
	return c.dispatcher.DispatchStream(ctx, actions, fn)
}

// Client exposes the underlying protocol client for direct tab
// inspection.
func (c *Controller) Client() *Client {
	return c.client
}
