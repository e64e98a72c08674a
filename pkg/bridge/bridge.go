// Package bridge executes allowlisted desktop commands for automation
// tasks that fall outside the browser. The bridge is intentionally
// strict: commands must be registered in advance with their exact
// executable and base arguments, and extra arguments are screened
// against deny patterns before anything is executed. It is entirely
// decoupled from the browser controller.
package bridge

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/pilot/pkg/logging"
)

// DefaultRunTimeout bounds a single bridge command execution.
const DefaultRunTimeout = 30 * time.Second

// SecurityError indicates a disallowed command or argument. Nothing is
// executed when it is raised.
type SecurityError struct {
	Command string
	Reason  string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("command %q rejected: %s", e.Command, e.Reason)
}

// Result captures the outcome of one bridge command.
type Result struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Bridge runs pre-registered local commands.
type Bridge struct {
	mu        sync.RWMutex
	allowlist map[string][]string
	matcher   *PatternMatcher
	timeout   time.Duration
	logger    *logging.Logger
}

// New creates a bridge with the default deny patterns and run timeout.
func New() (*Bridge, error) {
	return NewWithPatterns(DefaultDeniedPatterns)
}

// NewWithPatterns creates a bridge that denies arguments matching the
// given glob patterns in addition to requiring registration.
func NewWithPatterns(denied []string) (*Bridge, error) {
	matcher, err := NewPatternMatcher(denied)
	if err != nil {
		return nil, err
	}
	logger, _ := logging.NewLogger("bridge")
	return &Bridge{
		allowlist: make(map[string][]string),
		matcher:   matcher,
		timeout:   DefaultRunTimeout,
		logger:    logger,
	}, nil
}

// SetTimeout overrides the per-command execution timeout.
func (b *Bridge) SetTimeout(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeout = d
}

// Register adds a named command with its executable and base argument
// list. Registering an existing name replaces it.
func (b *Bridge) Register(name string, command []string) error {
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if len(command) == 0 {
		return fmt.Errorf("command %q must have an executable", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowlist[name] = append([]string(nil), command...)
	return nil
}

// IsAllowed reports whether the name is registered.
func (b *Bridge) IsAllowed(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.allowlist[name]
	return ok
}

// Describe returns a snapshot of every registered command, sorted by
// name.
func (b *Bridge) Describe() map[string][]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	described := make(map[string][]string, len(b.allowlist))
	for name, command := range b.allowlist {
		described[name] = append([]string(nil), command...)
	}
	return described
}

// Names returns the registered command names, sorted.
func (b *Bridge) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.allowlist))
	for name := range b.allowlist {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes a registered command with optional extra arguments and
// captures its output. A *SecurityError is returned, before any
// execution, when the name is not registered or an extra argument
// matches a deny pattern.
func (b *Bridge) Run(ctx context.Context, name string, extraArgs []string) (*Result, error) {
	b.mu.RLock()
	base, ok := b.allowlist[name]
	timeout := b.timeout
	b.mu.RUnlock()

	if !ok {
		return nil, &SecurityError{Command: name, Reason: "not allowlisted"}
	}

	args := append([]string(nil), base...)
	for _, arg := range extraArgs {
		if pattern := b.matcher.Denies(arg); pattern != "" {
			return nil, &SecurityError{
				Command: name,
				Reason:  fmt.Sprintf("argument %q matches denied pattern %q", arg, pattern),
			}
		}
		args = append(args, arg)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b.logger.Infof("running %s: %s", name, FormatCommand(args))
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	result := &Result{Command: args}
	err := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("command %q exited with code %d", name, result.ExitCode)
		}
		result.ExitCode = -1
		return result, fmt.Errorf("command %q failed to run: %w", name, err)
	}

	return result, nil
}

// FormatCommand renders an argument list as a shell-safe string for
// logs and previews.
func FormatCommand(command []string) string {
	quoted := make([]string, len(command))
	for i, part := range command {
		if part == "" || strings.ContainsAny(part, " \t\"'$&|<>;*?()") {
			quoted[i] = strconv.Quote(part)
		} else {
			quoted[i] = part
		}
	}
	return strings.Join(quoted, " ")
}
