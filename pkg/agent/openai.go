package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/entrhq/pilot/pkg/devtools"
)

// planningPrompt instructs the model to answer with nothing but the
// action array so the response can be decoded directly.
const planningPrompt = `You translate browser automation requests into JSON actions.
Respond with a JSON array only, no prose and no code fences.
Each element is one of:
  {"type":"open_url","url":"<absolute url>"}
  {"type":"activate","target_id":"<tab id>"}
  {"type":"close","target_id":"<tab id>"}
Actions are executed strictly in order.`

// LLMPlanner plans actions by asking an OpenAI-compatible chat model.
type LLMPlanner struct {
	client openai.Client
	model  string
}

// LLMPlannerOption configures an LLMPlanner.
type LLMPlannerOption func(*llmPlannerConfig)

type llmPlannerConfig struct {
	model   string
	baseURL string
}

// WithModel sets the chat model used for planning.
func WithModel(model string) LLMPlannerOption {
	return func(c *llmPlannerConfig) {
		c.model = model
	}
}

// WithBaseURL points the planner at an OpenAI-compatible API, such as
// a local model server.
func WithBaseURL(baseURL string) LLMPlannerOption {
	return func(c *llmPlannerConfig) {
		c.baseURL = baseURL
	}
}

// NewLLMPlanner creates a planner backed by the given API key. An empty
// key falls back to the OPENAI_API_KEY environment variable.
func NewLLMPlanner(apiKey string, opts ...LLMPlannerOption) (*LLMPlanner, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	cfg := &llmPlannerConfig{model: "gpt-4o"}
	for _, opt := range opts {
		opt(cfg)
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &LLMPlanner{
		client: openai.NewClient(requestOpts...),
		model:  cfg.model,
	}, nil
}

// Plan asks the model for an action array and validates every action
// before returning it, so a hallucinated plan fails here rather than
// mid-execution.
func (p *LLMPlanner) Plan(ctx context.Context, request string) ([]devtools.Action, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(planningPrompt),
			openai.UserMessage(request),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("planning request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("planning request returned no choices")
	}

	return decodePlan(completion.Choices[0].Message.Content)
}

// decodePlan parses the model output into validated actions. Models
// occasionally wrap JSON in code fences despite instructions, so those
// are stripped first.
func decodePlan(content string) ([]devtools.Action, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var actions []devtools.Action
	if err := json.Unmarshal([]byte(content), &actions); err != nil {
		return nil, fmt.Errorf("model returned an invalid plan: %w", err)
	}

	for _, action := range actions {
		if err := action.Validate(); err != nil {
			return nil, fmt.Errorf("model returned an invalid plan: %w", err)
		}
	}
	return actions, nil
}
