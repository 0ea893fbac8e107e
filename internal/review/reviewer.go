package review

import (
	"context"
	"fmt"
	"math"
	"strings"
	"text/template"

	"tribunal/internal/agent/ports"
	"tribunal/internal/interpreter"
	"tribunal/internal/logging"
	"tribunal/internal/observability"
	"tribunal/internal/problem"
)

// ReviewerConfig configures the submission reviewer.
type ReviewerConfig struct {
	// OutputType selects the judge verdict shape: "bool" or "float".
	OutputType interpreter.Shape `yaml:"output_type"`
	// SystemTemplate is sent verbatim as the system message.
	SystemTemplate string `yaml:"system_template"`
	// InstanceTemplate is rendered with the problem statement fields, the
	// submission metadata, and "traj" (the rendered trajectory).
	InstanceTemplate string `yaml:"instance_template"`
	// RejectExitStatus desk-rejects submissions whose exit status is not
	// "submitted" (for example cost-limit autosubmissions). Defaults to
	// true; mutually exclusive with FailureScorePenalty.
	RejectExitStatus *bool `yaml:"reject_exit_status"`
	// FailureScorePenalty, when positive, is subtracted from the score of
	// submissions that did not exit cleanly, instead of desk-rejecting
	// them. Requires reject_exit_status: false.
	FailureScorePenalty float64 `yaml:"failure_score_penalty"`
	// ScoreStddevFactor, when positive, subtracts this multiple of the
	// population standard deviation from the mean sample score.
	ScoreStddevFactor float64 `yaml:"score_stddev_factor"`
	// NSample is the number of independent judge samples. Defaults to 5.
	NSample int `yaml:"n_sample"`
	// TrajFormatter controls trajectory rendering in the judge prompt.
	TrajFormatter FormatterConfig `yaml:"traj_formatter"`
}

func (c ReviewerConfig) rejectExitStatus() bool {
	if c.RejectExitStatus == nil {
		return true
	}
	return *c.RejectExitStatus
}

func (c ReviewerConfig) withDefaults() ReviewerConfig {
	if c.OutputType == "" {
		c.OutputType = interpreter.ShapeScalar
	}
	if c.NSample == 0 {
		c.NSample = 5
	}
	return c
}

// Validate checks the config. It must be called on the raw (pre-default)
// value so the mutual exclusion of the two exit-status policies is visible.
func (c ReviewerConfig) Validate() error {
	if c.OutputType != "" && !c.OutputType.Valid() {
		return fmt.Errorf("output_type must be %q or %q, got %q",
			interpreter.ShapeBinary, interpreter.ShapeScalar, c.OutputType)
	}
	if c.FailureScorePenalty < 0 {
		return fmt.Errorf("failure_score_penalty must not be negative")
	}
	if c.FailureScorePenalty > 0 && c.rejectExitStatus() {
		return fmt.Errorf("failure_score_penalty requires reject_exit_status: false")
	}
	if c.NSample < 0 {
		return fmt.Errorf("n_sample must not be negative")
	}
	return nil
}

// Reviewer grades one finished submission by sampling an LLM judge. It is a
// stateless service: all bookkeeping lives with the caller.
type Reviewer struct {
	config    ReviewerConfig
	model     ports.LLMClient
	formatter *TrajectoryFormatter
	interp    *interpreter.Interpreter
	tmpl      *template.Template
	logger    logging.Logger
	metrics   *observability.SelectionMetrics
}

// NewReviewer validates the configuration and templates.
func NewReviewer(config ReviewerConfig, model ports.LLMClient, logger logging.Logger, metrics *observability.SelectionMetrics) (*Reviewer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	formatter, err := NewTrajectoryFormatter(config.TrajFormatter)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("instance").Option("missingkey=zero").Parse(config.InstanceTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse instance template: %w", err)
	}
	logger = logging.OrNop(logger)
	return &Reviewer{
		config:    config,
		model:     model,
		formatter: formatter,
		interp:    interpreter.New(logger),
		tmpl:      tmpl,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

func (r *Reviewer) formatMessages(instance problem.Statement, submission Submission) ([]ports.Message, error) {
	traj, err := r.formatter.Format(submission.Trajectory, 1)
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"problem_statement": instance.Text(),
		"traj":              traj,
	}
	for k, v := range instance.ExtraFields() {
		data[k] = v
	}
	for k, v := range submission.Info {
		data[k] = v
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

// Review grades a submission. It never fails: desk rejections, judge
// transport errors and unparseable samples all degrade to a scored Result so
// that every submission has exactly one review.
func (r *Reviewer) Review(ctx context.Context, instance problem.Statement, submission Submission) Result {
	exitStatus := submission.ExitStatus()
	if exitStatus == "" {
		r.logger.Info("no exit status in submission, rejecting")
		r.metrics.DeskRejection()
		return Result{Score: 0, Outputs: []string{"No exit status in submission, will reject."}}
	}
	if r.config.rejectExitStatus() && exitStatus != ExitStatusSubmitted {
		r.logger.Info("desk-rejecting submission with exit status %q", exitStatus)
		r.metrics.DeskRejection()
		return Result{Score: 0, Outputs: []string{
			fmt.Sprintf("Submission desk-rejected because of exit status %q.", exitStatus),
		}}
	}

	messages, err := r.formatMessages(instance, submission)
	if err != nil {
		r.logger.Error("failed to build review prompt: %v", err)
		return Result{Score: SentinelScore, Outputs: []string{
			fmt.Sprintf("Failed to build review prompt: %v.", err),
		}}
	}
	if r.config.NSample > 1 {
		messages[len(messages)-1].CacheEligible = true
	}

	judgeTemperature := 0.0
	outputs := make([]string, 0, r.config.NSample)
	scores := make([]float64, 0, r.config.NSample)
	for i := 0; i < r.config.NSample; i++ {
		r.metrics.JudgeSample()
		completions, err := r.model.Query(ctx, messages, ports.QueryOptions{Temperature: &judgeTemperature})
		if err != nil || len(completions) == 0 {
			r.logger.Warn("judge sample %d failed, skipping: %v", i, err)
			r.metrics.JudgeParseFailure()
			continue
		}
		output := completions[0].Content
		outputs = append(outputs, output)
		score, err := r.interp.Score(r.config.OutputType, output)
		if err != nil {
			r.logger.Warn("could not interpret judge sample %d, skipping: %v", i, err)
			r.metrics.JudgeParseFailure()
			continue
		}
		scores = append(scores, score)
	}

	score := r.aggregate(scores, exitStatus)
	if len(outputs) > 0 {
		r.logger.Info("first answer: %s", outputs[0])
	}
	r.logger.Info("final score: %v", score)
	return Result{Score: score, Outputs: outputs, Messages: messages}
}

// aggregate combines sample scores into the final score: mean, optionally
// variance-penalized, optionally penalized for an unclean exit.
func (r *Reviewer) aggregate(scores []float64, exitStatus string) float64 {
	if len(scores) == 0 {
		r.logger.Warn("no judge sample could be interpreted, assigning sentinel score %v", SentinelScore)
		return SentinelScore
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	score := mean
	if r.config.ScoreStddevFactor > 0 {
		var variance float64
		for _, s := range scores {
			variance += (s - mean) * (s - mean)
		}
		variance /= float64(len(scores))
		score -= r.config.ScoreStddevFactor * math.Sqrt(variance)
	}
	if r.config.FailureScorePenalty > 0 && exitStatus != ExitStatusSubmitted {
		score -= r.config.FailureScorePenalty
	}
	return score
}
