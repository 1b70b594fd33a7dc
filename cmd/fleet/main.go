package main

import (
	"os"

	"github.com/grovetools/fleet/cli"
	"github.com/grovetools/fleet/cmd"
	"github.com/grovetools/fleet/pkg/profiling"
	"github.com/grovetools/fleet/starship"
	"github.com/grovetools/fleet/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"fleet",
		"Discover and monitor Claude sessions across this machine",
	)
	rootCmd.Long = `Discover and monitor Claude sessions across this machine.

A bare invocation opens the live dashboard. Discovery pairs each
running session with its transcript to infer status, token usage and
cost; installing the hook upgrades that to self-reported data.

Examples:
  # Open the dashboard
  fleet

  # One-shot listing for scripts
  fleet sessions --json

  # Richer session detail
  fleet hook install`
	rootCmd.Version = version.Version
	cli.SetVersionTemplate(rootCmd, version.GetInfo())
	rootCmd.RunE = cmd.RunDashboard
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(rootCmd)
	rootCmd.PersistentPreRunE = profiler.PreRun
	rootCmd.PersistentPostRun = profiler.PostRun

	// Add subcommands
	rootCmd.AddCommand(cmd.NewSessionsCmd())
	rootCmd.AddCommand(cmd.NewHookCmd())
	rootCmd.AddCommand(cmd.NewBudgetCmd())
	rootCmd.AddCommand(cmd.NewKillCmd())
	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(starship.NewStarshipCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.Flags().GetBool("verbose")
		cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(1)
	}
}
