package devtools

import (
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// DefaultTerminateGrace is how long Terminate waits for the process to
// exit after signalling it.
const DefaultTerminateGrace = 5 * time.Second

// Process is an exclusively-owned handle to a spawned browser process.
type Process interface {
	// Running reports whether the process is still alive. It never
	// blocks and never fails.
	Running() bool

	// Terminate sends a termination signal and waits up to grace for
	// the process to exit. A process that outlives the grace period is
	// abandoned rather than force-killed. Safe to call on an already
	// exited process.
	Terminate(grace time.Duration)
}

// Spawner starts browser processes. The production implementation is
// ExecSpawner; tests substitute an in-memory fake.
type Spawner interface {
	// Spawn starts the executable with the given arguments. It returns
	// as soon as the process is started, without waiting for the
	// debugging endpoint to come up. A *LaunchError is returned when
	// the executable cannot be started at all.
	Spawn(path string, args []string) (Process, error)
}

// ExecSpawner spawns real OS processes via os/exec.
type ExecSpawner struct{}

// NewExecSpawner creates the production spawner.
func NewExecSpawner() *ExecSpawner {
	return &ExecSpawner{}
}

// Spawn starts the executable and begins reaping it in the background
// so liveness checks stay non-blocking.
func (s *ExecSpawner) Spawn(path string, args []string) (Process, error) {
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	p := &execProcess{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

// execProcess wraps an exec.Cmd. A single background goroutine owns the
// Wait call; everything else observes the done channel.
type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}

	terminateOnce sync.Once
}

func (p *execProcess) reap() {
	// Wait's error is irrelevant here: the exit code is not stored
	// after observation, only the fact that the process ended.
	_ = p.cmd.Wait()
	close(p.done)
}

func (p *execProcess) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *execProcess) Terminate(grace time.Duration) {
	p.terminateOnce.Do(func() {
		if !p.Running() {
			return
		}
		// Signal failures mean the process is already gone or beyond
		// our control; either way the wait below resolves it.
		_ = p.cmd.Process.Signal(syscall.SIGTERM)

		select {
		case <-p.done:
		case <-time.After(grace):
			// Still running after the grace period: abandon the handle.
		}
	})
}
