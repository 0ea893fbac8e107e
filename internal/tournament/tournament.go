// Package tournament picks one action out of several sampled candidate
// completions by running a sequential pairwise elimination judged by an LLM.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"tribunal/internal/agent/ports"
	"tribunal/internal/interpreter"
	"tribunal/internal/logging"
	"tribunal/internal/observability"
	"tribunal/internal/problem"
)

// ErrNoParsableCandidates is returned when every sampled completion fails
// action parsing. There is no safe default action, so the step fails.
var ErrNoParsableCandidates = errors.New("no candidate completion could be parsed")

const defaultSystemTemplate = `<setting>You are an expert software engineer overseeing junior developers. They suggest actions to take to solve a problem. You must choose the best action to take.</setting>`

const defaultInstanceTemplate = `We're solving the following problem

<problem_statement>
{{.problem_statement}}
</problem_statement>

So far, we've performed the following actions:

<trajectory>
{{.traj}}
</trajectory>
`

const defaultComparisonTemplate = `Two junior developers suggested the following actions:

<thought1>
{{.thought1}}
</thought1>

<action1>
{{.action1}}
</action1>

<thought2>
{{.thought2}}
</thought2>

<action2>
{{.action2}}
</action2>

Please compare the two actions in detail.

Which action should we take?

If you think the first action is better, respond with "first".
If you think the second action is better, respond with "second".

The last line of your response MUST be "first" or "second".
`

// Candidate is one deduplicated proposed action. Votes counts how many of
// the sampled completions proposed this exact action text.
type Candidate struct {
	Thought string `json:"thought"`
	Action  string `json:"action"`
	Votes   int    `json:"votes"`

	// rawIndex points at the first sampled completion that produced this
	// action, so the winner can be returned untouched.
	rawIndex int
}

// Comparison is one judged pairing, recorded in order.
type Comparison struct {
	Between  [2]int          `json:"comparison_between"`
	Messages []ports.Message `json:"messages"`
	Response string          `json:"response"`
	Winner   int             `json:"winner"`
}

// Result carries the winning raw completion plus the full comparison log.
type Result struct {
	Completion  ports.Completion
	Candidates  []Candidate
	Comparisons []Comparison
}

// Config configures the tournament sampler.
type Config struct {
	// NSamples is how many completions to draw per step. Defaults to 2.
	NSamples int `yaml:"n_samples"`
	// ComparisonTemperature overrides the model temperature for judge
	// calls. Nil keeps the model's configured temperature.
	ComparisonTemperature *float64 `yaml:"comparison_temperature"`

	SystemTemplate     string `yaml:"system_template"`
	InstanceTemplate   string `yaml:"instance_template"`
	ComparisonTemplate string `yaml:"comparison_template"`
}

func (c Config) withDefaults() Config {
	if c.NSamples == 0 {
		c.NSamples = 2
	}
	if c.SystemTemplate == "" {
		c.SystemTemplate = defaultSystemTemplate
	}
	if c.InstanceTemplate == "" {
		c.InstanceTemplate = defaultInstanceTemplate
	}
	if c.ComparisonTemplate == "" {
		c.ComparisonTemplate = defaultComparisonTemplate
	}
	return c
}

func (c Config) Validate() error {
	if c.NSamples < 0 {
		return fmt.Errorf("n_samples must not be negative")
	}
	return nil
}

// Tournament is a stateless action sampler. Comparisons run strictly in
// order because each one depends on the champion the previous one produced.
type Tournament struct {
	config     Config
	model      ports.LLMClient
	parser     ports.ActionParser
	interp     *interpreter.Interpreter
	instance   *template.Template
	comparison *template.Template
	logger     logging.Logger
	metrics    *observability.SelectionMetrics
}

func New(config Config, model ports.LLMClient, parser ports.ActionParser, logger logging.Logger, metrics *observability.SelectionMetrics) (*Tournament, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	instance, err := template.New("instance").Option("missingkey=zero").Parse(config.InstanceTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse instance template: %w", err)
	}
	comparison, err := template.New("comparison").Option("missingkey=zero").Parse(config.ComparisonTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse comparison template: %w", err)
	}
	logger = logging.OrNop(logger)
	return &Tournament{
		config:     config,
		model:      model,
		parser:     parser,
		interp:     interpreter.New(logger),
		instance:   instance,
		comparison: comparison,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// parseCandidates runs action parsing over all sampled completions, dropping
// the ones that fail. Duplicate action texts collapse into one candidate
// with an incremented vote count, keeping the strictly longer thought.
func (t *Tournament) parseCandidates(completions []ports.Completion) ([]Candidate, error) {
	byAction := map[string]int{}
	var candidates []Candidate
	for i, completion := range completions {
		thought, action, err := t.parser.ParseAction(completion)
		if err != nil {
			t.logger.Warn("could not parse completion %d, skipping: %v", i, err)
			continue
		}
		if j, ok := byAction[action]; ok {
			candidates[j].Votes++
			if len(thought) > len(candidates[j].Thought) {
				candidates[j].Thought = thought
			}
			continue
		}
		byAction[action] = len(candidates)
		candidates = append(candidates, Candidate{
			Thought:  thought,
			Action:   action,
			Votes:    1,
			rawIndex: i,
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoParsableCandidates
	}
	return candidates, nil
}

func (t *Tournament) formatMessages(instance problem.Statement, trajectory ports.Trajectory, champion, challenger Candidate, cacheEligible bool) ([]ports.Message, error) {
	data := map[string]any{
		"problem_statement": instance.Text(),
		"traj":              formatTrajectory(trajectory),
	}
	for k, v := range instance.ExtraFields() {
		data[k] = v
	}
	var instanceMsg strings.Builder
	if err := t.instance.Execute(&instanceMsg, data); err != nil {
		return nil, fmt.Errorf("render instance template: %w", err)
	}
	var comparisonMsg strings.Builder
	err := t.comparison.Execute(&comparisonMsg, map[string]any{
		"thought1": champion.Thought,
		"action1":  champion.Action,
		"counts1":  champion.Votes,
		"thought2": challenger.Thought,
		"action2":  challenger.Action,
		"counts2":  challenger.Votes,
	})
	if err != nil {
		return nil, fmt.Errorf("render comparison template: %w", err)
	}
	return []ports.Message{
		{Role: "system", Content: t.config.SystemTemplate, CacheEligible: cacheEligible},
		{Role: "user", Content: instanceMsg.String(), CacheEligible: cacheEligible},
		{Role: "user", Content: comparisonMsg.String()},
	}, nil
}

// ChooseAction samples candidates for the current step and reduces them to
// one winning completion. The returned completion is always one of the raw
// sampled completions, never a rewritten form.
func (t *Tournament) ChooseAction(ctx context.Context, instance problem.Statement, trajectory ports.Trajectory, history []ports.Message) (Result, error) {
	completions, err := t.model.Query(ctx, history, ports.QueryOptions{N: t.config.NSamples})
	if err != nil {
		return Result{}, fmt.Errorf("sample candidate actions: %w", err)
	}
	return t.run(ctx, instance, trajectory, completions)
}

func (t *Tournament) run(ctx context.Context, instance problem.Statement, trajectory ports.Trajectory, completions []ports.Completion) (Result, error) {
	candidates, err := t.parseCandidates(completions)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 1 {
		t.logger.Warn("only identical actions were proposed")
		return Result{
			Completion: completions[candidates[0].rawIndex],
			Candidates: candidates,
		}, nil
	}

	// The instance prefix repeats across comparisons, so it is worth a
	// cache hint once there are at least two of them ahead.
	cacheEligible := len(candidates) >= 3
	champion := 0
	var log []Comparison
	for i := 1; i < len(candidates); i++ {
		messages, err := t.formatMessages(instance, trajectory, candidates[champion], candidates[i], cacheEligible)
		if err != nil {
			return Result{}, err
		}
		t.metrics.Comparison()
		judged, err := t.model.Query(ctx, messages, ports.QueryOptions{Temperature: t.config.ComparisonTemperature})
		if err != nil {
			return Result{}, fmt.Errorf("judge comparison %d vs %d: %w", champion, i, err)
		}
		if len(judged) == 0 {
			return Result{}, fmt.Errorf("judge comparison %d vs %d returned no completion", champion, i)
		}
		response := judged[0].Content
		t.logger.Info("comparison response: %s", response)
		verdict := t.interp.Pairwise(response)
		log = append(log, Comparison{
			Between:  [2]int{champion, i},
			Messages: messages,
			Response: response,
			Winner:   verdict.Winner,
		})
		if verdict.Winner == 1 {
			champion = i
		}
	}
	return Result{
		Completion:  completions[candidates[champion].rawIndex],
		Candidates:  candidates,
		Comparisons: log,
	}, nil
}

func formatTrajectory(trajectory ports.Trajectory) string {
	steps := make([]string, len(trajectory))
	for i, step := range trajectory {
		steps[i] = fmt.Sprintf("Action %d: %s\n Observation %d: %s", i, step.Action, i, step.Observation)
	}
	return strings.Join(steps, "\n")
}
