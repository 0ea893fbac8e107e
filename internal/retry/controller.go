// Package retry orchestrates repeated solution attempts for one problem
// instance: it records submissions, reviews them, decides whether another
// attempt is worth its cost and finally picks the best attempt.
package retry

import (
	"context"
	"fmt"
	"math"
	"sort"

	"tribunal/internal/agent/ports"
	"tribunal/internal/logging"
	"tribunal/internal/observability"
	"tribunal/internal/problem"
	"tribunal/internal/review"
)

// scoreEpsilon is the tolerance within which two review scores count as
// tied. Ties resolve to the earliest attempt.
const scoreEpsilon = 1e-10

// AttemptCostExceededError aborts the in-flight attempt when its model spend
// crosses the per-attempt limit. It is a normal way for an attempt to end,
// not a failure of the retry loop, and must not be conflated with
// malformed-output errors.
type AttemptCostExceededError struct {
	Spent float64
	Limit float64
}

func (e *AttemptCostExceededError) Error() string {
	return fmt.Sprintf("attempt cost %.4f exceeded limit %.4f", e.Spent, e.Limit)
}

// Judge reviews one submission. Satisfied by *review.Reviewer.
type Judge interface {
	Review(ctx context.Context, instance problem.Statement, submission review.Submission) review.Result
}

// Config configures the retry controller.
type Config struct {
	// MaxAttemptsForScore maps a score floor to the number of attempts
	// allowed once the best score so far reaches that floor. The highest
	// matching floor wins; no match means no attempt cap.
	MaxAttemptsForScore map[float64]int `yaml:"max_attempts_for_score"`
	// MaxConsecExitCost stops the loop after this many consecutive
	// attempts ended by cost exhaustion. Zero disables the check.
	MaxConsecExitCost int `yaml:"max_n_consec_exit_cost"`
	// CostLimit caps the cumulative actor spend across all attempts.
	// Zero disables the check.
	CostLimit float64 `yaml:"cost_limit"`
	// AttemptCostLimit caps the spend of a single attempt; crossing it
	// aborts only the in-flight attempt. Zero disables the check.
	AttemptCostLimit float64 `yaml:"attempt_cost_limit"`
	// AcceptThreshold marks an attempt as accepted when its review score
	// reaches this value.
	AcceptThreshold float64 `yaml:"accept_threshold"`
	// MaxAcceptedAttempts stops the loop once this many attempts were
	// accepted. Zero disables the check.
	MaxAcceptedAttempts int `yaml:"max_accepted_attempts"`
	// MinBudgetForNewAttempt requires at least this much remaining budget
	// before starting another attempt. Zero disables the check.
	MinBudgetForNewAttempt float64 `yaml:"min_budget_for_new_attempt"`
	// TemperatureOverride fixes the actor temperature for the first
	// len(TemperatureOverride) attempts; later attempts restore the
	// model's original temperature. Defaults to [0.0].
	TemperatureOverride []float64 `yaml:"temperature_override"`
}

func (c Config) Validate() error {
	for score, attempts := range c.MaxAttemptsForScore {
		if attempts < 0 {
			return fmt.Errorf("max_attempts_for_score[%v] must not be negative", score)
		}
	}
	if c.CostLimit < 0 || c.AttemptCostLimit < 0 || c.MinBudgetForNewAttempt < 0 {
		return fmt.Errorf("cost limits must not be negative")
	}
	if c.MaxConsecExitCost < 0 || c.MaxAcceptedAttempts < 0 {
		return fmt.Errorf("attempt caps must not be negative")
	}
	return nil
}

// Controller owns the submission and review lists for one problem-solving
// session plus all retry bookkeeping. It is not safe for concurrent use;
// attempts run strictly one after the other.
type Controller struct {
	config   Config
	judge    Judge
	instance problem.Statement
	temps    ports.TemperatureControl
	budget   ports.BudgetReporter
	logger   logging.Logger
	metrics  *observability.SelectionMetrics

	submissions []review.Submission
	reviews     []review.Result

	nConsecExitCost     int
	terminalTemperature float64
	terminalCaptured    bool
	spentCost           float64
}

// NewController builds a controller for one problem instance. The model is
// probed for optional capabilities: temperature overrides need
// ports.TemperatureControl, the budget check needs ports.BudgetReporter.
func NewController(config Config, judge Judge, instance problem.Statement, model ports.LLMClient, logger logging.Logger, metrics *observability.SelectionMetrics) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.TemperatureOverride == nil {
		config.TemperatureOverride = []float64{0.0}
	}
	temps, _ := model.(ports.TemperatureControl)
	budget, _ := model.(ports.BudgetReporter)
	return &Controller{
		config:   config,
		judge:    judge,
		instance: instance,
		temps:    temps,
		budget:   budget,
		logger:   logging.OrNop(logger),
		metrics:  metrics,
	}, nil
}

// Submissions returns the recorded submissions, oldest first.
func (c *Controller) Submissions() []review.Submission { return c.submissions }

// Reviews returns the recorded reviews, index-aligned with Submissions.
func (c *Controller) Reviews() []review.Result { return c.reviews }

// OnAttemptStarted applies the per-attempt temperature override. Attempt 0
// captures the model's original temperature so attempts beyond the override
// list run at the model's own setting again.
func (c *Controller) OnAttemptStarted(iAttempt int) {
	if c.temps == nil {
		return
	}
	if iAttempt == 0 && !c.terminalCaptured {
		c.terminalTemperature = c.temps.Temperature()
		c.terminalCaptured = true
		c.logger.Debug("captured terminal temperature %v", c.terminalTemperature)
	}
	if iAttempt < len(c.config.TemperatureOverride) {
		c.temps.SetTemperature(c.config.TemperatureOverride[iAttempt])
	} else {
		c.temps.SetTemperature(c.terminalTemperature)
	}
	c.logger.Debug("attempt %d runs at temperature %v", iAttempt, c.temps.Temperature())
}

// OnModelQuery is called before every actor model call within an attempt.
// It returns an *AttemptCostExceededError once the attempt's spend crosses
// the per-attempt limit, which ends the current attempt early without
// affecting retry bookkeeping.
func (c *Controller) OnModelQuery(attemptStats ports.InstanceStats) error {
	if c.config.AttemptCostLimit > 0 && attemptStats.InstanceCost > c.config.AttemptCostLimit {
		return &AttemptCostExceededError{Spent: attemptStats.InstanceCost, Limit: c.config.AttemptCostLimit}
	}
	return nil
}

// OnSubmit records the submission, reviews it immediately and updates the
// exit-cost streak. Every submission gets exactly one review.
func (c *Controller) OnSubmit(ctx context.Context, submission review.Submission) {
	c.submissions = append(c.submissions, submission)
	result := c.judge.Review(ctx, c.instance, submission)
	c.reviews = append(c.reviews, result)
	c.spentCost += submission.ModelStats.InstanceCost
	if review.IsCostExit(submission.ExitStatus()) {
		c.nConsecExitCost++
	} else {
		c.nConsecExitCost = 0
	}
	c.metrics.Attempt(submission.ModelStats.InstanceCost, result.Score)
}

func (c *Controller) bestScore() float64 {
	best := math.Inf(-1)
	for _, r := range c.reviews {
		if r.Score > best {
			best = r.Score
		}
	}
	return best
}

// maxAttemptsForScore looks up the attempt cap for the current best score:
// the highest configured score floor at or below the best score wins. Zero
// means uncapped.
func (c *Controller) maxAttemptsForScore(bestScore float64) int {
	floors := make([]float64, 0, len(c.config.MaxAttemptsForScore))
	for floor := range c.config.MaxAttemptsForScore {
		floors = append(floors, floor)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(floors)))
	for _, floor := range floors {
		if bestScore >= floor {
			return c.config.MaxAttemptsForScore[floor]
		}
	}
	return 0
}

func (c *Controller) acceptedAttempts() int {
	n := 0
	for _, r := range c.reviews {
		if r.Score >= c.config.AcceptThreshold {
			n++
		}
	}
	return n
}

// Retry reports whether another attempt should be started.
func (c *Controller) Retry() bool {
	nAttempts := len(c.submissions)
	bestScore := c.bestScore()
	statStr := fmt.Sprintf("n_attempts=%d, best_score=%v", nAttempts, bestScore)

	if maxAttempts := c.maxAttemptsForScore(bestScore); maxAttempts > 0 && nAttempts >= maxAttempts {
		c.logger.Info("stopping retry loop (%s): %d attempts allowed for best score %v", statStr, maxAttempts, bestScore)
		return false
	}
	if c.config.MaxConsecExitCost > 0 && c.nConsecExitCost >= c.config.MaxConsecExitCost {
		c.logger.Info("stopping retry loop (%s): %d consecutive cost-limited attempts", statStr, c.nConsecExitCost)
		return false
	}
	if c.config.CostLimit > 0 && c.spentCost > c.config.CostLimit {
		c.logger.Info("stopping retry loop (%s): spent %.4f of cost limit %.4f", statStr, c.spentCost, c.config.CostLimit)
		return false
	}
	if c.config.MaxAcceptedAttempts > 0 && c.acceptedAttempts() >= c.config.MaxAcceptedAttempts {
		c.logger.Info("stopping retry loop (%s): %d accepted attempts reached", statStr, c.acceptedAttempts())
		return false
	}
	if c.config.MinBudgetForNewAttempt > 0 && c.budget != nil {
		remaining := c.budget.CostLimit() - c.budget.Stats().InstanceCost
		if remaining < c.config.MinBudgetForNewAttempt {
			c.logger.Info("stopping retry loop (%s): remaining budget %.4f below minimum %.4f", statStr, remaining, c.config.MinBudgetForNewAttempt)
			return false
		}
	}
	return true
}

// GetBest returns the index of the submission with the highest review
// score. Scores within scoreEpsilon of the maximum count as tied and the
// earliest wins. Returns -1 when nothing has been reviewed yet.
func (c *Controller) GetBest() int {
	if len(c.reviews) == 0 {
		return -1
	}
	best := c.bestScore()
	for i, r := range c.reviews {
		if math.Abs(r.Score-best) <= scoreEpsilon {
			return i
		}
	}
	return -1
}
