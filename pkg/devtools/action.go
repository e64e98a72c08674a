package devtools

import "context"

// ActionType identifies one of the supported high-level actions.
type ActionType string

const (
	// ActionOpenURL opens a URL in a new tab. Requires URL.
	ActionOpenURL ActionType = "open_url"

	// ActionActivate brings an existing tab to the foreground.
	// Requires TargetID.
	ActionActivate ActionType = "activate"

	// ActionClose closes an existing tab. Requires TargetID.
	ActionClose ActionType = "close"
)

// Action is a tagged instruction translated into exactly one endpoint
// call.
type Action struct {
	Type     ActionType `json:"type" yaml:"type"`
	URL      string     `json:"url,omitempty" yaml:"url,omitempty"`
	TargetID string     `json:"target_id,omitempty" yaml:"target_id,omitempty"`
}

// Validate checks that the action's required field is present. It is
// called before any network I/O, so a malformed action produces no
// side effects.
func (a Action) Validate() error {
	switch a.Type {
	case ActionOpenURL:
		if a.URL == "" {
			return &ValidationError{Action: a.Type, Field: "url"}
		}
	case ActionActivate, ActionClose:
		if a.TargetID == "" {
			return &ValidationError{Action: a.Type, Field: "target_id"}
		}
	default:
		return &ValidationError{Action: a.Type}
	}
	return nil
}

// Dispatcher routes validated actions onto client calls.
type Dispatcher struct {
	client *Client
}

// NewDispatcher creates a dispatcher over the given client.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// Dispatch validates the action and executes the corresponding endpoint
// call, returning the tab or status descriptor.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action) (Descriptor, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}

	switch action.Type {
	case ActionOpenURL:
		return d.client.OpenTab(ctx, action.URL)
	case ActionActivate:
		return d.client.ActivateTab(ctx, action.TargetID)
	default:
		return d.client.CloseTab(ctx, action.TargetID)
	}
}

// DispatchAll executes the actions strictly in input order, one at a
// time. On the first failure it stops and returns the error along with
// the results produced so far; earlier actions are not rolled back.
func (d *Dispatcher) DispatchAll(ctx context.Context, actions []Action) ([]Descriptor, error) {
	results := make([]Descriptor, 0, len(actions))
	for _, action := range actions {
		result, err := d.Dispatch(ctx, action)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// DispatchStream executes the actions in order, invoking fn with each
// action and its result as soon as it completes. This makes partial
// application observable to the caller: fn has been called once per
// action that succeeded before the returned error occurred.
func (d *Dispatcher) DispatchStream(ctx context.Context, actions []Action, fn func(Action, Descriptor)) error {
	for _, action := range actions {
		result, err := d.Dispatch(ctx, action)
		if err != nil {
			return err
		}
		fn(action, result)
	}
	return nil
}
