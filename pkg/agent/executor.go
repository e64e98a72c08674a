package agent

import (
	"context"

	"github.com/entrhq/pilot/pkg/devtools"
	"github.com/entrhq/pilot/pkg/logging"
)

// ActionRunner is the slice of the browser controller the executor
// depends on.
type ActionRunner interface {
	ExecuteAll(ctx context.Context, actions []devtools.Action) ([]devtools.Descriptor, error)
	ExecuteStream(ctx context.Context, actions []devtools.Action, fn func(devtools.Action, devtools.Descriptor)) error
}

// Executor coordinates planning and browser control.
type Executor struct {
	planner Planner
	runner  ActionRunner
	logger  *logging.Logger
}

// NewExecutor wires a planner to an action runner. A nil planner
// defaults to the rule-based baseline.
func NewExecutor(planner Planner, runner ActionRunner) *Executor {
	if planner == nil {
		planner = &RuleBasedPlanner{}
	}
	logger, _ := logging.NewLogger("agent")
	return &Executor{
		planner: planner,
		runner:  runner,
		logger:  logger,
	}
}

// Plan returns the action list for a request without executing it.
func (e *Executor) Plan(ctx context.Context, request string) ([]devtools.Action, error) {
	actions, err := e.planner.Plan(ctx, request)
	if err != nil {
		e.logger.Errorf("planning %q failed: %v", request, err)
		return nil, err
	}
	e.logger.Infof("planned %d action(s) for %q", len(actions), request)
	return actions, nil
}

// Execute plans the request and runs the whole batch, returning the
// descriptors in action order.
func (e *Executor) Execute(ctx context.Context, request string) ([]devtools.Descriptor, error) {
	actions, err := e.Plan(ctx, request)
	if err != nil {
		return nil, err
	}
	return e.runner.ExecuteAll(ctx, actions)
}

// Stream plans the request and runs the actions one at a time, handing
// each result to fn as it completes. When an action fails, fn has
// already seen every earlier result, making partial application
// visible to the caller.
func (e *Executor) Stream(ctx context.Context, request string, fn func(devtools.Action, devtools.Descriptor)) error {
	actions, err := e.Plan(ctx, request)
	if err != nil {
		return err
	}
	return e.runner.ExecuteStream(ctx, actions, fn)
}
