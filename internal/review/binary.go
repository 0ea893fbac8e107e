package review

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"tribunal/internal/agent/ports"
	"tribunal/internal/interpreter"
	"tribunal/internal/logging"
	"tribunal/internal/observability"
	"tribunal/internal/problem"
)

// BinaryReviewerConfig configures the pairwise submission comparator.
type BinaryReviewerConfig struct {
	// SystemTemplate is sent verbatim as the system message.
	SystemTemplate string `yaml:"system_template"`
	// InstanceTemplate is rendered with the problem statement fields plus
	// "traj1"/"traj2" and the suffixed submission metadata of both sides
	// (for example "exit_status_1", "exit_status_2").
	InstanceTemplate string `yaml:"instance_template"`
	// TrajFormatter controls trajectory rendering in the judge prompt.
	TrajFormatter FormatterConfig `yaml:"traj_formatter"`
}

// BinaryReviewer compares two finished submissions head to head with a
// single judge call.
type BinaryReviewer struct {
	config    BinaryReviewerConfig
	model     ports.LLMClient
	formatter *TrajectoryFormatter
	interp    *interpreter.Interpreter
	tmpl      *template.Template
	logger    logging.Logger
	metrics   *observability.SelectionMetrics
}

func NewBinaryReviewer(config BinaryReviewerConfig, model ports.LLMClient, logger logging.Logger, metrics *observability.SelectionMetrics) (*BinaryReviewer, error) {
	formatter, err := NewTrajectoryFormatter(config.TrajFormatter)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("instance").Option("missingkey=zero").Parse(config.InstanceTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse instance template: %w", err)
	}
	logger = logging.OrNop(logger)
	return &BinaryReviewer{
		config:    config,
		model:     model,
		formatter: formatter,
		interp:    interpreter.New(logger),
		tmpl:      tmpl,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

func (r *BinaryReviewer) formatMessages(instance problem.Statement, sub1, sub2 Submission) ([]ports.Message, error) {
	traj1, err := r.formatter.Format(sub1.Trajectory, 1)
	if err != nil {
		return nil, err
	}
	traj2, err := r.formatter.Format(sub2.Trajectory, 2)
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"problem_statement": instance.Text(),
		"traj1":             traj1,
		"traj2":             traj2,
	}
	for k, v := range instance.ExtraFields() {
		data[k] = v
	}
	for k, v := range sub1.Info {
		data[k+"_1"] = v
	}
	for k, v := range sub2.Info {
		data[k+"_2"] = v
	}
	var user strings.Builder
	if err := r.tmpl.Execute(&user, data); err != nil {
		return nil, fmt.Errorf("render instance template: %w", err)
	}
	return []ports.Message{
		{Role: "system", Content: r.config.SystemTemplate},
		{Role: "user", Content: user.String()},
	}, nil
}

// Compare judges sub1 against sub2 and reports the winning side with the
// judge's confidence. Ambiguous verdicts fall back to the first side.
func (r *BinaryReviewer) Compare(ctx context.Context, instance problem.Statement, sub1, sub2 Submission) (BinaryResult, error) {
	messages, err := r.formatMessages(instance, sub1, sub2)
	if err != nil {
		return BinaryResult{}, err
	}
	r.metrics.Comparison()
	completions, err := r.model.Query(ctx, messages, ports.QueryOptions{})
	if err != nil {
		return BinaryResult{}, fmt.Errorf("binary review query: %w", err)
	}
	if len(completions) == 0 {
		return BinaryResult{}, fmt.Errorf("binary review query returned no completion")
	}
	output := completions[0].Content
	verdict := r.interp.Pairwise(output)
	r.logger.Info("binary review chose submission %d (confidence %.2f)", verdict.Winner+1, verdict.Confidence)
	return BinaryResult{
		Choice:     verdict.Winner,
		Confidence: verdict.Confidence,
		Output:     output,
		Messages:   messages,
	}, nil
}
