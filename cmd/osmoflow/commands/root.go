package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osmoflow/osmoflow/pkg/config"
)

var (
	// Global flags
	casePath   string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "osmoflow",
		Short: "osmoflow - Desalination Flowsheet Engine",
		Long: `osmoflow builds, solves, and costs seawater desalination
flowsheets: nanofiltration pretreatment with optional bypass, reverse
osmosis stages, and LCOW costing.

Features:
  - Case files in CUE or YAML
  - Sequential-modular solve with user scaling
  - Per-unit and system-level costing with a fixed report layout
  - Watch mode re-solving on case file changes`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&casePath, "case", "c", "", "case file path (.cue, .yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newSolveCommand())
	rootCmd.AddCommand(newCostCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// loadCase loads the case file named by --case, or returns the default
// case (bypass on, zero-order NF, ion basis) when no file is given.
func loadCase() (*config.Case, error) {
	if casePath == "" {
		return &config.Case{Name: "default"}, nil
	}
	return config.NewParser().Load(casePath)
}
