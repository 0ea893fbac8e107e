package tournament

import (
	"context"
	"fmt"
	"strings"

	"tribunal/internal/agent/ports"
	"tribunal/internal/logging"
	"tribunal/internal/problem"
)

// ColleaguesConfig configures the discussion-based action sampler.
type ColleaguesConfig struct {
	// NSamples is how many candidate completions to draw. Defaults to 2.
	NSamples int `yaml:"n_samples"`
}

func (c ColleaguesConfig) Validate() error {
	if c.NSamples < 0 {
		return fmt.Errorf("n_samples must not be negative")
	}
	return nil
}

// Colleagues samples several candidate actions, presents them all to the
// model as a peer discussion and asks it to pick one in a final pass. Unlike
// the pairwise tournament it costs exactly one extra model call regardless
// of the number of candidates.
type Colleagues struct {
	nSamples int
	model    ports.LLMClient
	parser   ports.ActionParser
	logger   logging.Logger
}

func NewColleagues(config ColleaguesConfig, model ports.LLMClient, parser ports.ActionParser, logger logging.Logger) (*Colleagues, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.NSamples == 0 {
		config.NSamples = 2
	}
	return &Colleagues{
		nSamples: config.NSamples,
		model:    model,
		parser:   parser,
		logger:   logging.OrNop(logger),
	}, nil
}

func (c *Colleagues) discussion(completions []ports.Completion) (string, error) {
	var out strings.Builder
	out.WriteString("Your colleagues had the following ideas: \n\n")
	parsed := 0
	for i, completion := range completions {
		thought, action, err := c.parser.ParseAction(completion)
		if err != nil {
			c.logger.Warn("could not parse completion %d, skipping: %v", i, err)
			continue
		}
		parsed++
		fmt.Fprintf(&out, "Thought (colleague %d): %s\nProposed Action (colleague %d): %s\n\n", i, thought, i, action)
	}
	if parsed == 0 {
		return "", ErrNoParsableCandidates
	}
	out.WriteString("Please summarize and compare the ideas and propose an action to take. " +
		"Finally choose one action to perform and explain it in detail. " +
		"<important>You must include a thought and exactly one action.</important>")
	return out.String(), nil
}

// ChooseAction draws candidates, turns them into a discussion prompt and
// asks the model for a final decision completion.
func (c *Colleagues) ChooseAction(ctx context.Context, _ problem.Statement, _ ports.Trajectory, history []ports.Message) (Result, error) {
	completions, err := c.model.Query(ctx, history, ports.QueryOptions{N: c.nSamples})
	if err != nil {
		return Result{}, fmt.Errorf("sample candidate actions: %w", err)
	}
	discussion, err := c.discussion(completions)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("colleague discussion:\n%s", discussion)
	messages := append(append([]ports.Message{}, history...), ports.Message{Role: "user", Content: discussion})
	final, err := c.model.Query(ctx, messages, ports.QueryOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("final decision query: %w", err)
	}
	if len(final) == 0 {
		return Result{}, fmt.Errorf("final decision query returned no completion")
	}
	return Result{Completion: final[0]}, nil
}
