package llm

import (
	"context"
	"sync"

	"tribunal/internal/agent/ports"
)

// MockClient replays canned completions for offline runs and tests. Safe
// for sequential use only, like the real clients.
type MockClient struct {
	mu          sync.Mutex
	responses   []string
	next        int
	temperature float64
	stats       ports.InstanceStats
	costLimit   float64
	queries     int
}

var (
	_ ports.LLMClient          = (*MockClient)(nil)
	_ ports.TemperatureControl = (*MockClient)(nil)
	_ ports.BudgetReporter     = (*MockClient)(nil)
)

// NewMockClient cycles through the given responses, starting over when they
// run out.
func NewMockClient(responses ...string) *MockClient {
	if len(responses) == 0 {
		responses = []string{"ok"}
	}
	return &MockClient{responses: responses}
}

func (m *MockClient) ModelName() string { return "mock" }

func (m *MockClient) Temperature() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.temperature
}

func (m *MockClient) SetTemperature(temperature float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.temperature = temperature
}

func (m *MockClient) Stats() ports.InstanceStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *MockClient) CostLimit() float64 { return m.costLimit }

// Queries returns how many Query calls were made.
func (m *MockClient) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

func (m *MockClient) Query(_ context.Context, _ []ports.Message, opts ports.QueryOptions) ([]ports.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := opts.N
	if n <= 0 {
		n = 1
	}
	m.queries++
	m.stats = m.stats.Add(ports.InstanceStats{APICalls: 1})
	completions := make([]ports.Completion, n)
	for i := range completions {
		completions[i] = ports.Completion{Content: m.responses[m.next]}
		m.next = (m.next + 1) % len(m.responses)
	}
	return completions, nil
}
