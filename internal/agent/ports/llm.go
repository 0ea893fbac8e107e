// Package ports defines the interfaces and shared types through which the
// decision core talks to its collaborators: the judge/actor model client,
// the action parser, and the agent trajectory produced by the environment
// loop.
package ports

import "context"

// Message represents a conversation message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// CacheEligible hints to the model client that this prompt segment is
	// stable across calls and may be served from a prompt cache. It is an
	// optimization hint, never a correctness requirement.
	CacheEligible bool `json:"cache_eligible,omitempty"`
}

// Completion is one raw model output. Downstream code that selects between
// completions must hand back the original value untouched.
type Completion struct {
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
}

// TokenUsage tracks token consumption for a single call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// QueryOptions carries the per-call sampling knobs.
type QueryOptions struct {
	// N is the number of independent samples to draw. Zero means one.
	N int
	// Temperature overrides the client's default temperature when non-nil.
	Temperature *float64
}

// LLMClient represents any model provider capable of sampling completions.
type LLMClient interface {
	// Query sends messages and returns opts.N independent completions.
	Query(ctx context.Context, messages []Message, opts QueryOptions) ([]Completion, error)

	// ModelName returns the model identifier.
	ModelName() string
}

// TemperatureControl is implemented by clients whose default sampling
// temperature can be changed between attempts.
type TemperatureControl interface {
	Temperature() float64
	SetTemperature(temperature float64)
}

// BudgetReporter exposes cumulative spend so the retry loop can decide
// whether another attempt fits the budget.
type BudgetReporter interface {
	Stats() InstanceStats
	// CostLimit returns the total spend ceiling for this problem instance.
	// Zero means unlimited.
	CostLimit() float64
}
