package review

import (
	"fmt"
	"strings"
	"text/template"

	"tribunal/internal/agent/ports"
)

// DefaultItemTemplate renders one trajectory step for judge prompts.
const DefaultItemTemplate = "Model: {{.response}}\n\nObservation: {{.observation}}"

// OmittedOutputPlaceholder replaces observations elided from judge prompts.
const OmittedOutputPlaceholder = "[Output omitted]"

// FormatterConfig controls how a trajectory is rendered into prompt text.
type FormatterConfig struct {
	// Filter drops steps whose action starts with any of these prefixes.
	Filter []string `yaml:"filter"`
	// OutputFilter elides the observation of steps whose action starts
	// with any of these prefixes.
	OutputFilter []string `yaml:"output_filter"`
	// ItemTemplate renders a single step. It receives the step fields
	// plus i_step (zero-based, post-filter) and i_traj.
	ItemTemplate string `yaml:"item_template"`
	// OnlyShowLastNOutput, when positive, elides observations of all but
	// the last N steps.
	OnlyShowLastNOutput int `yaml:"only_show_last_n_output"`
}

func (c FormatterConfig) withDefaults() FormatterConfig {
	if c.ItemTemplate == "" {
		c.ItemTemplate = DefaultItemTemplate
	}
	return c
}

// TrajectoryFormatter renders trajectories for use in judge prompts.
type TrajectoryFormatter struct {
	config   FormatterConfig
	itemTmpl *template.Template
}

// NewTrajectoryFormatter validates the item template and returns a formatter.
func NewTrajectoryFormatter(config FormatterConfig) (*TrajectoryFormatter, error) {
	config = config.withDefaults()
	tmpl, err := template.New("item").Option("missingkey=zero").Parse(config.ItemTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse item template: %w", err)
	}
	return &TrajectoryFormatter{config: config, itemTmpl: tmpl}, nil
}

func (f *TrajectoryFormatter) includeStep(step ports.Step) bool {
	action := strings.TrimSpace(step.Action)
	for _, prefix := range f.config.Filter {
		if strings.HasPrefix(action, prefix) {
			return false
		}
	}
	return true
}

func (f *TrajectoryFormatter) includeStepOutput(step ports.Step, iStep, nSteps int) bool {
	if f.config.OnlyShowLastNOutput > 0 && iStep < nSteps-f.config.OnlyShowLastNOutput {
		return false
	}
	action := strings.TrimSpace(step.Action)
	for _, prefix := range f.config.OutputFilter {
		if strings.HasPrefix(action, prefix) {
			return false
		}
	}
	return true
}

func (f *TrajectoryFormatter) formatStep(step ports.Step, iStep, nSteps, iTraj int) (string, error) {
	observation := step.Observation
	if !f.includeStepOutput(step, iStep, nSteps) {
		observation = OmittedOutputPlaceholder
	}
	data := map[string]any{
		"action":      step.Action,
		"observation": observation,
		"response":    step.Response,
		"thought":     step.Thought,
		"i_step":      iStep,
		"i_traj":      iTraj,
	}
	var sb strings.Builder
	if err := f.itemTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render step %d: %w", iStep, err)
	}
	return sb.String(), nil
}

// Format renders the trajectory as a single text block. iTraj distinguishes
// trajectories rendered side by side; pass 1 when formatting a single one.
func (f *TrajectoryFormatter) Format(trajectory ports.Trajectory, iTraj int) (string, error) {
	kept := make([]ports.Step, 0, len(trajectory))
	for _, step := range trajectory {
		if f.includeStep(step) {
			kept = append(kept, step)
		}
	}
	rendered := make([]string, 0, len(kept))
	for i, step := range kept {
		text, err := f.formatStep(step, i, len(kept), iTraj)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, text)
	}
	return strings.Join(rendered, "\n\n"), nil
}
