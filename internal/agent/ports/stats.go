package ports

// InstanceStats accumulates model usage over one problem instance.
type InstanceStats struct {
	InstanceCost   float64 `json:"instance_cost"`
	TokensSent     int     `json:"tokens_sent"`
	TokensReceived int     `json:"tokens_received"`
	APICalls       int     `json:"api_calls"`
}

// Add returns the element-wise sum of s and other.
func (s InstanceStats) Add(other InstanceStats) InstanceStats {
	return InstanceStats{
		InstanceCost:   s.InstanceCost + other.InstanceCost,
		TokensSent:     s.TokensSent + other.TokensSent,
		TokensReceived: s.TokensReceived + other.TokensReceived,
		APICalls:       s.APICalls + other.APICalls,
	}
}

// ModelPricing holds pricing information per 1K tokens.
type ModelPricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// GetModelPricing returns pricing for a given model.
func GetModelPricing(model string) ModelPricing {
	pricingMap := map[string]ModelPricing{
		"gpt-4":                       {InputPer1K: 0.03, OutputPer1K: 0.06},
		"gpt-4-turbo":                 {InputPer1K: 0.01, OutputPer1K: 0.03},
		"gpt-4o":                      {InputPer1K: 0.005, OutputPer1K: 0.015},
		"gpt-4o-mini":                 {InputPer1K: 0.00015, OutputPer1K: 0.0006},
		"deepseek-chat":               {InputPer1K: 0.00014, OutputPer1K: 0.00028},
		"deepseek-reasoner":           {InputPer1K: 0.00055, OutputPer1K: 0.00219},
		"anthropic/claude-3-5-sonnet": {InputPer1K: 0.003, OutputPer1K: 0.015},
		"anthropic/claude-3-opus":     {InputPer1K: 0.015, OutputPer1K: 0.075},
	}

	if pricing, ok := pricingMap[model]; ok {
		return pricing
	}

	// Default pricing for unknown models
	return ModelPricing{InputPer1K: 0.001, OutputPer1K: 0.002}
}

// CalculateCost calculates cost in dollars based on token usage and model.
func CalculateCost(usage TokenUsage, model string) float64 {
	pricing := GetModelPricing(model)
	inputCost := float64(usage.PromptTokens) / 1000.0 * pricing.InputPer1K
	outputCost := float64(usage.CompletionTokens) / 1000.0 * pricing.OutputPer1K
	return inputCost + outputCost
}
