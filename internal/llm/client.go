package llm

import (
	"tribunal/internal/agent/ports"
	"tribunal/internal/logging"
)

// FromConfig builds the configured client. The model name "mock" selects
// the scripted client, everything else the OpenAI-compatible one.
func FromConfig(config Config, logger logging.Logger) (ports.LLMClient, error) {
	if config.Model == "mock" {
		return NewMockClient(), nil
	}
	return NewOpenAIClient(config, logger)
}
