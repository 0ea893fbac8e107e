package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tribunal/internal/config"
	"tribunal/internal/llm"
	"tribunal/internal/problem"
	"tribunal/internal/review"
)

// newReviewCommand scores a recorded submission offline: useful for judging
// trajectories captured by earlier runs and for judge prompt iteration.
func newReviewCommand() *cobra.Command {
	var (
		submissionPath string
		problemPath    string
		problemText    string
		showOutputs    bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Score a recorded submission with the configured judge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			statement, err := loadProblem(problemPath, problemText)
			if err != nil {
				return err
			}
			submission, err := loadSubmission(submissionPath)
			if err != nil {
				return err
			}

			logger := newLogger("reviewer")
			model, err := llm.FromConfig(cfg.Model, newLogger("llm"))
			if err != nil {
				return err
			}
			reviewer, err := cfg.Judge.BuildReviewer(model, logger, nil)
			if err != nil {
				return err
			}

			result := reviewer.Review(cmd.Context(), statement, submission)
			printResult(cmd, result, showOutputs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&submissionPath, "submission", "s", "", "Path to the submission JSON file")
	cmd.Flags().StringVarP(&problemPath, "problem", "p", "", "Path to the problem statement file")
	cmd.Flags().StringVar(&problemText, "problem-text", "", "Problem statement given inline")
	cmd.Flags().BoolVar(&showOutputs, "show-outputs", false, "Print every raw judge response")
	_ = cmd.MarkFlagRequired("submission")

	return cmd
}

func loadProblem(path, text string) (problem.Statement, error) {
	switch {
	case path != "" && text != "":
		return nil, fmt.Errorf("--problem and --problem-text are mutually exclusive")
	case path != "":
		return problem.NewFileStatement(path, "", nil)
	case text != "":
		return problem.NewTextStatement(text, "", nil), nil
	default:
		return nil, fmt.Errorf("one of --problem or --problem-text is required")
	}
}

func loadSubmission(path string) (review.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return review.Submission{}, fmt.Errorf("read submission: %w", err)
	}
	var submission review.Submission
	if err := json.Unmarshal(data, &submission); err != nil {
		return review.Submission{}, fmt.Errorf("parse submission %s: %w", path, err)
	}
	return submission, nil
}

func printResult(cmd *cobra.Command, result review.Result, showOutputs bool) {
	out := cmd.OutOrStdout()
	if showOutputs {
		for i, output := range result.Outputs {
			fmt.Fprintf(out, "%s\n%s\n\n", gray(fmt.Sprintf("--- judge sample %d ---", i)), output)
		}
	}
	scoreStr := fmt.Sprintf("%g", result.Score)
	switch {
	case result.Score == review.SentinelScore:
		scoreStr = red(scoreStr + " (no judge sample could be interpreted)")
	case result.Score > 0:
		scoreStr = green(scoreStr)
	default:
		scoreStr = yellow(scoreStr)
	}
	fmt.Fprintf(out, "%s %s\n", bold("score:"), scoreStr)
}
