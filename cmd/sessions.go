package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/fleet/cli"
	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/client"
	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/pricing"
	"github.com/grovetools/fleet/tui/components/table"
)

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List discovered Claude sessions",
		Long: `Print the current fleet.

Reads from the fleet server when one is running, otherwise runs a
discovery pass in-process: scans running processes for Claude
sessions, pairs each with its transcript, infers status from recent
activity and merges hook enrichment where the side channel has
reported.

With --watch, streams a line per completed server pass until
interrupted. Watching requires the server.

Examples:
  # Table of current sessions
  fleet sessions

  # Full snapshot as JSON, for scripts
  fleet sessions --json

  # Follow updates as NDJSON
  fleet sessions --watch --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			c, err := client.New(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if watch, _ := cmd.Flags().GetBool("watch"); watch {
				return watchSessions(cmd, c, jsonOut)
			}

			snapshot, err := c.Fleet(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				data, err := json.MarshalIndent(snapshot, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal snapshot: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			printSessionsTable(snapshot)
			return nil
		},
	}

	cmd.Flags().BoolP("watch", "w", false, "Stream updates from the fleet server")
	return cmd
}

// watchSessions follows the server's snapshot stream until interrupted.
// JSON mode emits one compact snapshot per line so pipes can consume it.
func watchSessions(cmd *cobra.Command, c client.Client, jsonOut bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, err := c.Stream(ctx)
	if err != nil {
		return err
	}

	for snapshot := range updates {
		if jsonOut {
			data, err := json.Marshal(snapshot)
			if err != nil {
				return fmt.Errorf("failed to marshal snapshot: %w", err)
			}
			fmt.Println(string(data))
			continue
		}
		fmt.Println(snapshot.GeneratedAt.Local().Format("15:04:05"))
		printSessionsTable(snapshot)
		fmt.Println()
	}

	if ctx.Err() != nil {
		return nil
	}
	return errors.New(errors.ErrCodeServerUnavailable, "snapshot stream ended unexpectedly")
}

func printSessionsTable(snapshot *models.FleetSnapshot) {
	if len(snapshot.Sessions) == 0 {
		fmt.Println("No sessions discovered.")
		return
	}

	now := time.Now()
	headers := []string{"PID", "Project", "Status", "Branch", "Tokens", "Last Activity"}
	rows := make([][]string, 0, len(snapshot.Sessions))
	for _, s := range snapshot.Sessions {
		pid := "-"
		if s.Pid > 0 {
			pid = fmt.Sprintf("%d", s.Pid)
		}
		branch := s.Branch
		if branch == "" {
			branch = "-"
		}
		last := "-"
		if idle, ok := s.IdleDuration(now); ok {
			last = idle.Round(time.Second).String() + " ago"
		}
		rows = append(rows, []string{
			pid,
			s.DisplayName(),
			string(s.Status),
			branch,
			pricing.FormatTokens(s.Metrics.TokensUsed),
			last,
		})
	}

	fmt.Println(table.SimpleTable(headers, rows))
	fmt.Printf("%d sessions, %d active\n", len(snapshot.Sessions), snapshot.ActiveCount())
}
