package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/fleet/cli"
	"github.com/grovetools/fleet/pkg/hooks"
)

// NewHookCmd returns the hook command with subcommands.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage the PostToolUse enrichment hook",
		Long: `Manage the hook that feeds fleet richer session data.

Without the hook, fleet infers everything from process and transcript
observation. With it, sessions self-report task, file and token data
after every tool call, and the dashboard's detail panel fills in.`,
	}

	cmd.AddCommand(newHookInstallCmd())
	cmd.AddCommand(newHookUninstallCmd())
	cmd.AddCommand(newHookStatusCmd())
	cmd.AddCommand(newHookReportCmd())

	return cmd
}

func newHookInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Deploy the hook script and register it in Claude settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			scriptPath := cfg.HookScriptPath()
			if err := hooks.DeployScript(scriptPath); err != nil {
				return fmt.Errorf("failed to deploy hook script: %w", err)
			}

			settings := hooks.NewSettings(cfg.ClaudeSettingsPath(), scriptPath)
			if err := settings.Install(); err != nil {
				return err
			}

			fmt.Printf("Hook installed: %s\n", scriptPath)
			fmt.Println("Restart sessions to pick it up.")
			return nil
		},
	}
}

func newHookUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the hook registration from Claude settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			settings := hooks.NewSettings(cfg.ClaudeSettingsPath(), cfg.HookScriptPath())
			if err := settings.Uninstall(); err != nil {
				return err
			}

			fmt.Println("Hook uninstalled. The deployed script is left in place.")
			return nil
		},
	}
}

func newHookStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the hook is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			settings := hooks.NewSettings(cfg.ClaudeSettingsPath(), cfg.HookScriptPath())
			if settings.IsInstalled() {
				fmt.Printf("Installed\nScript: %s\n", cfg.HookScriptPath())
			} else {
				fmt.Println("Not installed")
				os.Exit(1) // Return non-zero for scripts
			}
			return nil
		},
	}
}

func newHookReportCmd() *cobra.Command {
	var sessionID string
	var pid int

	cmd := &cobra.Command{
		Use:    "report",
		Short:  "Write a status document from a PostToolUse payload on stdin",
		Hidden: true, // invoked by the deployed hook script, not by hand
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			if pid == 0 {
				pid = os.Getppid()
			}
			if sessionID == "" {
				sessionID = os.Getenv("CLAUDE_SESSION_ID")
			}
			if sessionID == "" {
				sessionID = fmt.Sprintf("%d", pid)
			}

			store := hooks.NewStore(cfg.EnrichmentDir())
			return store.Report(sessionID, pid, cmd.InOrStdin(), time.Now())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier (defaults to CLAUDE_SESSION_ID)")
	cmd.Flags().IntVar(&pid, "pid", 0, "Session process id (defaults to the parent pid)")

	return cmd
}
