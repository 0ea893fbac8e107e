package review

import (
	"context"
	"fmt"

	"tribunal/internal/agent/ports"
)

// scriptedClient replays canned judge responses in order.
type scriptedClient struct {
	responses []string
	err       error

	calls        int
	lastMessages []ports.Message
	temperatures []*float64
}

func (c *scriptedClient) Query(_ context.Context, messages []ports.Message, opts ports.QueryOptions) ([]ports.Completion, error) {
	c.calls++
	c.lastMessages = messages
	c.temperatures = append(c.temperatures, opts.Temperature)
	if c.err != nil {
		return nil, c.err
	}
	if c.calls > len(c.responses) {
		return nil, fmt.Errorf("scripted client exhausted after %d calls", len(c.responses))
	}
	return []ports.Completion{{Content: c.responses[c.calls-1]}}, nil
}

func (c *scriptedClient) ModelName() string { return "scripted" }

func boolPtr(b bool) *bool { return &b }
