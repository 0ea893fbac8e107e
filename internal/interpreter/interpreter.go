// Package interpreter turns free-text judge output into structured verdicts.
// Model output is a control signal here, so all parsing lives in this single
// place and every ambiguity resolves to an explicit fallback or a typed
// error, never a crash.
package interpreter

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"tribunal/internal/logging"
)

// Shape selects how a judge response is interpreted.
type Shape string

const (
	// ShapeBinary expects "success" or "fail" on the last line.
	ShapeBinary Shape = "bool"
	// ShapeScalar expects a numeric score on the last line.
	ShapeScalar Shape = "float"
)

// Valid reports whether s is a recognized shape.
func (s Shape) Valid() bool {
	return s == ShapeBinary || s == ShapeScalar
}

// ErrNoVerdictNumber reports that a scalar-shaped response carried no number
// on its verdict line. The caller decides the fallback.
var ErrNoVerdictNumber = errors.New("no number found in verdict line")

// PairwiseVerdict is the outcome of a two-sided comparison. Winner is 0 for
// the first side and 1 for the second; Confidence is in [0, 1].
type PairwiseVerdict struct {
	Winner     int
	Confidence float64
}

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// Interpreter parses judge responses. It holds no state beyond the logger
// used for fallback warnings.
type Interpreter struct {
	logger logging.Logger
}

// New returns an Interpreter logging fallback warnings to logger.
func New(logger logging.Logger) *Interpreter {
	return &Interpreter{logger: logging.OrNop(logger)}
}

// Binary reads a success/fail verdict. Everything before the last non-empty
// line is judge discussion and is ignored. An unrecognizable verdict is
// rejected (false) with a warning.
func (in *Interpreter) Binary(response string) bool {
	line := strings.ToLower(verdictLine(response))
	if strings.Contains(line, "success") {
		return true
	}
	if strings.Contains(line, "fail") {
		return false
	}
	in.logger.Warn("could not interpret binary verdict %q, will reject", line)
	return false
}

// Scalar reads a numeric score: the last number on the last non-empty line.
func (in *Interpreter) Scalar(response string) (float64, error) {
	line := verdictLine(response)
	numbers := numberPattern.FindAllString(line, -1)
	if len(numbers) == 0 {
		return 0, ErrNoVerdictNumber
	}
	score, err := strconv.ParseFloat(numbers[len(numbers)-1], 64)
	if err != nil {
		return 0, ErrNoVerdictNumber
	}
	return score, nil
}

// Score dispatches on shape, mapping binary verdicts to 1 or 0.
func (in *Interpreter) Score(shape Shape, response string) (float64, error) {
	switch shape {
	case ShapeBinary:
		if in.Binary(response) {
			return 1, nil
		}
		return 0, nil
	default:
		return in.Scalar(response)
	}
}

// Pairwise reads a first/second verdict with an optional confidence given as
// a number on a 0-100 scale. A response with neither keyword defaults to the
// first side with zero confidence, with a warning.
func (in *Interpreter) Pairwise(response string) PairwiseVerdict {
	line := verdictLine(response)
	lower := strings.ToLower(line)

	winner := -1
	if strings.Contains(lower, "first") {
		winner = 0
	} else if strings.Contains(lower, "second") {
		winner = 1
	}
	if winner == -1 {
		in.logger.Warn("could not interpret pairwise verdict %q, choosing first", line)
		return PairwiseVerdict{Winner: 0, Confidence: 0}
	}

	// A verdict stated without a number is taken at full confidence.
	confidence := 1.0
	if numbers := numberPattern.FindAllString(line, -1); len(numbers) > 0 {
		if raw, err := strconv.ParseFloat(numbers[len(numbers)-1], 64); err == nil {
			if raw > 100 {
				raw = 100
			}
			confidence = raw / 100
		}
	}
	return PairwiseVerdict{Winner: winner, Confidence: confidence}
}

// verdictLine returns the last non-empty line of response; all earlier lines
// are discussion.
func verdictLine(response string) string {
	lines := strings.Split(response, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
