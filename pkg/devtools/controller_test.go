package devtools

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcess is an in-memory Process whose liveness is controlled by
// the test.
type fakeProcess struct {
	mu         sync.Mutex
	running    bool
	terminated int
}

func (p *fakeProcess) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *fakeProcess) Terminate(time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.terminated++
}

// fakeSpawner hands out fakeProcesses and records spawn arguments.
type fakeSpawner struct {
	process *fakeProcess
	err     error
	path    string
	args    []string
	spawns  int
}

func (s *fakeSpawner) Spawn(path string, args []string) (Process, error) {
	s.spawns++
	s.path = path
	s.args = args
	if s.err != nil {
		return nil, s.err
	}
	s.process.running = true
	return s.process, nil
}

// failNTransport fails the first n list requests, then serves an empty
// tab list.
type failNTransport struct {
	remaining int
	calls     int
}

func (t *failNTransport) Do(_ context.Context, url string) ([]byte, error) {
	t.calls++
	if t.remaining > 0 {
		t.remaining--
		return nil, &ProtocolError{URL: url, Err: errors.New("connection refused")}
	}
	return []byte("[]"), nil
}

func newTestController(spawner Spawner, transport Transport) *Controller {
	return NewController(
		WithExecutable("/usr/bin/test-chrome"),
		WithDebuggingPort(9222),
		WithSpawner(spawner),
		WithClient(NewClient(WithTransport(transport))),
		WithStartupTimeout(500*time.Millisecond),
		WithPollInterval(10*time.Millisecond),
		WithTerminateGrace(50*time.Millisecond),
	)
}

func TestLaunchSucceedsWhenEndpointAnswersImmediately(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	controller := newTestController(spawner, &failNTransport{})

	err := controller.Launch(context.Background(), LaunchOptions{})
	require.NoError(t, err)
	assert.True(t, controller.IsRunning())
	assert.Equal(t, 1, spawner.spawns)
}

func TestLaunchBuildsProcessArguments(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	controller := newTestController(spawner, &failNTransport{})

	err := controller.Launch(context.Background(), LaunchOptions{
		Headless:    true,
		UserDataDir: "/tmp/profile",
		ExtraArgs:   []string{"--disable-gpu", "--no-first-run"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/test-chrome", spawner.path)
	assert.Equal(t, []string{
		"--remote-debugging-port=9222",
		"--remote-allow-origins=*",
		"--headless=new",
		"--user-data-dir=/tmp/profile",
		"--disable-gpu",
		"--no-first-run",
	}, spawner.args)
}

func TestLaunchIsIdempotentWhileRunning(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	controller := newTestController(spawner, &failNTransport{})
	ctx := context.Background()

	require.NoError(t, controller.Launch(ctx, LaunchOptions{}))
	require.NoError(t, controller.Launch(ctx, LaunchOptions{}))
	assert.Equal(t, 1, spawner.spawns, "second launch while running must be a no-op")
}

func TestLaunchToleratesSlowStart(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	transport := &failNTransport{remaining: 3}
	controller := newTestController(spawner, transport)

	err := controller.Launch(context.Background(), LaunchOptions{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, transport.calls, 4)
}

func TestLaunchSpawnFailure(t *testing.T) {
	spawner := &fakeSpawner{err: &LaunchError{Path: "/missing", Err: errors.New("no such file")}}
	controller := newTestController(spawner, &failNTransport{})

	err := controller.Launch(context.Background(), LaunchOptions{})
	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.False(t, controller.IsRunning())
}

func TestLaunchReadinessTimeout(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	transport := &failNTransport{remaining: 1 << 30}
	controller := newTestController(spawner, transport)

	err := controller.Launch(context.Background(), LaunchOptions{})
	var timeoutErr *ReadinessTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	require.NotNil(t, timeoutErr.Last)

	// By default the spawned process is left running for the caller to
	// deal with.
	assert.True(t, spawner.process.Running())
	assert.Zero(t, spawner.process.terminated)
}

func TestLaunchTerminateOnFailure(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	transport := &failNTransport{remaining: 1 << 30}
	controller := newTestController(spawner, transport)

	err := controller.Launch(context.Background(), LaunchOptions{TerminateOnFailure: true})
	var timeoutErr *ReadinessTimeoutError
	require.True(t, errors.As(err, &timeoutErr))

	assert.False(t, spawner.process.Running())
	assert.Equal(t, 1, spawner.process.terminated)
	assert.False(t, controller.IsRunning())
}

func TestTerminateIsIdempotent(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	controller := newTestController(spawner, &failNTransport{})

	// Never launched: both calls are no-ops.
	controller.Terminate()
	controller.Terminate()

	require.NoError(t, controller.Launch(context.Background(), LaunchOptions{}))
	controller.Terminate()
	controller.Terminate()

	assert.Equal(t, 1, spawner.process.terminated)
	assert.False(t, controller.IsRunning())
}

func TestTerminateConcurrentWithPollingLaunch(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	transport := &failNTransport{remaining: 1 << 30}
	controller := newTestController(spawner, transport)

	launchDone := make(chan error, 1)
	go func() {
		launchDone <- controller.Launch(context.Background(), LaunchOptions{})
	}()

	// Let the launch reach its polling loop, then terminate from a
	// second goroutine. Terminate blocks on the controller mutex until
	// the poll deadline resolves the launch, but no longer.
	time.Sleep(50 * time.Millisecond)
	terminateDone := make(chan struct{})
	go func() {
		controller.Terminate()
		close(terminateDone)
	}()

	select {
	case err := <-launchDone:
		var timeoutErr *ReadinessTimeoutError
		require.True(t, errors.As(err, &timeoutErr))
	case <-time.After(5 * time.Second):
		t.Fatal("Launch did not return within its startup deadline")
	}

	select {
	case <-terminateDone:
	case <-time.After(5 * time.Second):
		t.Fatal("Terminate blocked past the launch deadline")
	}

	assert.False(t, controller.IsRunning())
	assert.Equal(t, 1, spawner.process.terminated)
}

func TestConcurrentLaunchesSpawnOnce(t *testing.T) {
	spawner := &fakeSpawner{process: &fakeProcess{}}
	controller := newTestController(spawner, &failNTransport{})

	const launchers = 4
	errs := make([]error, launchers)
	var wg sync.WaitGroup
	for i := 0; i < launchers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = controller.Launch(context.Background(), LaunchOptions{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "launcher %d", i)
	}
	assert.Equal(t, 1, spawner.spawns, "launches must be serialized onto one process")
	assert.True(t, controller.IsRunning())
}

func TestIsRunningWithoutLaunch(t *testing.T) {
	controller := newTestController(&fakeSpawner{process: &fakeProcess{}}, &failNTransport{})
	assert.False(t, controller.IsRunning())
}

func TestControllerExecuteCloseAction(t *testing.T) {
	transport := newStubTransport()
	transport.responses["http://127.0.0.1:9222/json/close/t1"] = []byte(`{"status":"ok"}`)

	controller := newTestController(&fakeSpawner{process: &fakeProcess{}}, transport)
	result, err := controller.Execute(context.Background(), Action{Type: ActionClose, TargetID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, Descriptor{"status": "ok"}, result)
}

func TestWaitUntilReadyReturnsOnFirstSuccess(t *testing.T) {
	transport := &failNTransport{}
	client := NewClient(WithTransport(transport))

	err := waitUntilReady(context.Background(), client, time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.calls)
}

func TestWaitUntilReadyTimesOut(t *testing.T) {
	transport := &failNTransport{remaining: 1 << 30}
	client := NewClient(WithTransport(transport))

	start := time.Now()
	err := waitUntilReady(context.Background(), client, 50*time.Millisecond, 5*time.Millisecond)
	elapsed := time.Since(start)

	var timeoutErr *ReadinessTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Error(t, timeoutErr.Last)
	assert.Less(t, elapsed, time.Second, "polling must respect the deadline")
}

func TestWaitUntilReadyHonorsContextCancellation(t *testing.T) {
	transport := &failNTransport{remaining: 1 << 30}
	client := NewClient(WithTransport(transport))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitUntilReady(ctx, client, time.Minute, 10*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "cancellation should surface the context error, got %v", err)

	var timeoutErr *ReadinessTimeoutError
	assert.False(t, errors.As(err, &timeoutErr), "cancellation must not be reported as a readiness timeout")
}
