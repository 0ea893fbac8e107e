// Package llm provides the model clients used by the decision core: an
// OpenAI-compatible chat completions client and a scripted mock for offline
// runs and tests.
package llm

import (
	"fmt"
	"strings"
)

// Config configures a model client.
type Config struct {
	// Model is the provider model identifier, or "mock" for the scripted
	// client.
	Model string `yaml:"model"`
	// APIKey authenticates against the provider. Falls back to the
	// OPENAI_API_KEY environment variable when empty.
	APIKey string `yaml:"api_key"`
	// BaseURL is the API root. Defaults to https://api.openai.com/v1.
	BaseURL string `yaml:"base_url"`
	// TimeoutSeconds bounds a single HTTP call. Defaults to 120.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// MaxRetries bounds retries of transient failures. Defaults to 3.
	MaxRetries int `yaml:"max_retries"`
	// Temperature is the default sampling temperature.
	Temperature float64 `yaml:"temperature"`
	// CostLimit caps total spend for one problem instance. Zero means
	// unlimited.
	CostLimit float64 `yaml:"cost_limit"`
	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model must be set")
	}
	if c.TimeoutSeconds < 0 || c.MaxRetries < 0 {
		return fmt.Errorf("timeout_seconds and max_retries must not be negative")
	}
	if c.Temperature < 0 {
		return fmt.Errorf("temperature must not be negative")
	}
	if c.CostLimit < 0 {
		return fmt.Errorf("cost_limit must not be negative")
	}
	return nil
}
