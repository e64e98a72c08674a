// Package agent turns natural language requests into ordered browser
// actions and coordinates their execution against a controller.
//
// Planning sits behind the Planner interface so the deterministic
// rule-based baseline can be swapped for an LLM-backed implementation
// without touching the execution path.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/pilot/pkg/devtools"
)

// Planner maps a free-form request to an ordered action list. Plan is
// a pure function of its input text.
type Planner interface {
	Plan(ctx context.Context, request string) ([]devtools.Action, error)
}

// DefaultSearchEngine is the query template used when a request does
// not name a URL directly.
const DefaultSearchEngine = "https://www.google.com/search?q=%s"

// RuleBasedPlanner is a small heuristic planner used as a deterministic
// baseline. It is intentionally simplistic so it can run in offline
// environments; swap in an LLMPlanner for anything richer.
type RuleBasedPlanner struct {
	// SearchEngine overrides DefaultSearchEngine when set. It must
	// contain a single %s verb for the query.
	SearchEngine string
}

func (p *RuleBasedPlanner) searchURL(query string) string {
	engine := p.SearchEngine
	if engine == "" {
		engine = DefaultSearchEngine
	}
	return fmt.Sprintf(engine, strings.ReplaceAll(query, " ", "+"))
}

// Plan recognizes two phrasings: "open <url-or-words>" and
// "... search for <query>". Anything else is routed to the search
// engine verbatim.
func (p *RuleBasedPlanner) Plan(_ context.Context, request string) ([]devtools.Action, error) {
	// Trim once so byte offsets found in lowered line up with request.
	request = strings.TrimSpace(request)
	lowered := strings.ToLower(request)

	if strings.HasPrefix(lowered, "open ") {
		target := strings.TrimSpace(request[len("open "):])
		if !strings.HasPrefix(target, "http") {
			target = p.searchURL(target)
		}
		return []devtools.Action{{Type: devtools.ActionOpenURL, URL: target}}, nil
	}

	if idx := strings.Index(lowered, "search for"); idx != -1 {
		query := strings.TrimSpace(request[idx+len("search for"):])
		return []devtools.Action{{Type: devtools.ActionOpenURL, URL: p.searchURL(query)}}, nil
	}

	return []devtools.Action{{Type: devtools.ActionOpenURL, URL: p.searchURL(request)}}, nil
}
