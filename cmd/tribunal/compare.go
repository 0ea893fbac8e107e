package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tribunal/internal/results"
)

// newCompareCommand diffs the resolved instances of two evaluation runs.
func newCompareCommand() *cobra.Command {
	var showSame bool

	cmd := &cobra.Command{
		Use:   "compare <new-run> <old-run>",
		Short: "Compare the results of two evaluation runs",
		Long: `Compare the results.json of two evaluation runs. Each argument is a
results.json file or a run directory containing one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newRun, err := results.Load(args[0])
			if err != nil {
				return err
			}
			oldRun, err := results.Load(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total evaluated: new %d, old %d\n", len(newRun.SubmittedIDs), len(oldRun.SubmittedIDs))
			fmt.Fprintf(out, "Total resolved: new %d, old %d\n", len(newRun.ResolvedIDs), len(oldRun.ResolvedIDs))

			for _, diff := range results.Compare(newRun, oldRun) {
				label, interesting := outcomeLabel(diff.Outcome)
				if !interesting && !showSame {
					continue
				}
				fmt.Fprintf(out, "%s %s\n", label, diff.InstanceID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSame, "show-same", false, "Also list instances with the same outcome in both runs")

	return cmd
}

// outcomeLabel renders an outcome and reports whether it is worth showing by
// default (changes and unknowns yes, same-outcome instances no).
func outcomeLabel(outcome results.Outcome) (string, bool) {
	switch outcome {
	case results.OutcomeImproved:
		return green("improved    "), true
	case results.OutcomeRegressed:
		return red("regressed   "), true
	case results.OutcomeNotInOld:
		return yellow("not-in-old  "), true
	case results.OutcomeStillResolved:
		return gray("resolved    "), false
	default:
		return gray("unresolved  "), false
	}
}
