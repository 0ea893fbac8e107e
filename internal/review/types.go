// Package review scores finished attempts. The submission reviewer grades a
// single attempt with repeated judge samples; the binary reviewer compares
// two attempts side by side.
package review

import (
	"strings"

	"tribunal/internal/agent/ports"
)

// ExitStatusSubmitted is the canonical exit status of a clean submission.
const ExitStatusSubmitted = "submitted"

// SentinelScore is assigned when every judge sample fails to parse. A review
// must exist for every submission, so total judge failure degrades to this
// documented minimal score instead of an error.
const SentinelScore = -100000.0

// Submission is the trajectory and metadata produced by one attempt.
// Immutable once created.
type Submission struct {
	// Trajectory is the ordered record of steps the agent took.
	Trajectory ports.Trajectory `json:"trajectory"`
	// Info carries attempt metadata. Recognized keys include "exit_status"
	// (how the attempt ended) and "submission" (the artifact submitted).
	// All keys are exposed to the review prompt templates.
	Info map[string]any `json:"info"`
	// ModelStats is the actor model spend for this attempt.
	ModelStats ports.InstanceStats `json:"model_stats"`
}

// ExitStatus returns the attempt's exit status, or "" when missing.
func (s Submission) ExitStatus() string {
	status, _ := s.Info["exit_status"].(string)
	return strings.TrimSpace(status)
}

// SubmissionText returns the submitted artifact recorded in the metadata.
func (s Submission) SubmissionText() string {
	text, _ := s.Info["submission"].(string)
	return text
}

// IsCostExit reports whether an exit status names an exit-due-to-cost
// condition.
func IsCostExit(status string) bool {
	return strings.Contains(strings.ToLower(status), "exit_cost")
}

// Result is the reviewer's judgment of one submission. Results are
// index-aligned with the retry controller's submission list.
type Result struct {
	// Score is the acceptance score. Binary-shaped judges yield 0 or 1.
	Score float64 `json:"score"`
	// Outputs holds the raw judge responses, in sample order.
	Outputs []string `json:"outputs"`
	// Messages is the exact prompt sent to the judge, empty for desk
	// rejections.
	Messages []ports.Message `json:"messages"`
}

// BinaryResult is the outcome of a pairwise comparison of two submissions.
type BinaryResult struct {
	// Choice is 0 when the first submission won, 1 for the second.
	Choice int `json:"choice"`
	// Confidence is the judge's stated confidence in [0, 1].
	Confidence float64 `json:"confidence"`
	// Output is the raw judge response.
	Output string `json:"output"`
	// Messages is the exact prompt sent.
	Messages []ports.Message `json:"messages"`
}
