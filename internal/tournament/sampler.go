package tournament

import (
	"context"

	"tribunal/internal/agent/ports"
	"tribunal/internal/problem"
)

// Sampler is anything that turns sampled completions for one step into a
// single chosen action completion.
type Sampler interface {
	ChooseAction(ctx context.Context, instance problem.Statement, trajectory ports.Trajectory, history []ports.Message) (Result, error)
}

var (
	_ Sampler = (*Tournament)(nil)
	_ Sampler = (*Colleagues)(nil)
)
