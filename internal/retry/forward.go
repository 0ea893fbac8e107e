package retry

import (
	"fmt"
	"strings"

	"tribunal/internal/review"
)

// forwardKeyAttempts and forwardKeyCount are always present in the forwarded
// mapping so downstream prompt templates can reference them unconditionally.
const (
	forwardKeyAttempts = "failed_attempts"
	forwardKeyCount    = "n_failed_attempts"
)

// GetForwardedVars summarizes the rejected attempts so far into template
// variables for the next attempt's prompt. The returned mapping always has
// the same keys, even before the first attempt.
func (c *Controller) GetForwardedVars() map[string]any {
	var blocks []string
	n := 0
	for i, result := range c.reviews {
		if result.Score >= c.config.AcceptThreshold {
			continue
		}
		n++
		blocks = append(blocks, formatFailedAttempt(i, c.submissions[i], result))
	}
	return map[string]any{
		forwardKeyAttempts: strings.Join(blocks, "\n\n"),
		forwardKeyCount:    n,
	}
}

func formatFailedAttempt(i int, submission review.Submission, result review.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attempt %d was rejected.\n", i+1)
	if text := submission.SubmissionText(); text != "" {
		fmt.Fprintf(&b, "Submitted solution:\n%s\n", text)
	}
	if len(result.Outputs) > 0 {
		fmt.Fprintf(&b, "Reviewer judgment:\n%s", result.Outputs[0])
	}
	return strings.TrimRight(b.String(), "\n")
}
