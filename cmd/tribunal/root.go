package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"tribunal/internal/logging"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// isTTY reports whether stdout is a terminal; colored output is disabled
// when it is not.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRootCommand builds the tribunal CLI.
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "tribunal",
		Short: "Judge, compare and select LLM agent attempts",
		Long: `tribunal scores finished agent attempts with an LLM judge and
compares evaluation runs.

EXAMPLES:
  tribunal review --config config.yaml --submission sub.json --problem task.md
  tribunal compare new_run/ old_run/ --show-same`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !isTTY() {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	viper.SetEnvPrefix("TRIBUNAL")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(newReviewCommand())
	rootCmd.AddCommand(newCompareCommand())

	return rootCmd
}

func newLogger(component string) logging.Logger {
	level := logging.LevelInfo
	if viper.GetBool("verbose") {
		level = logging.LevelDebug
	}
	return logging.New(os.Stderr, component, level)
}
