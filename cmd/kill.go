package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/grovetools/fleet/pkg/process"
)

func NewKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <pid>",
		Short: "Send SIGTERM to a session process",
		Long: `Send SIGTERM to a session process.

SIGTERM lets the session shut down cleanly. Distinct errors are
reported when the process has already exited and when it belongs to
another user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil || pid <= 0 {
				return fmt.Errorf("invalid pid %q", args[0])
			}

			if err := process.Kill(pid); err != nil {
				return err
			}

			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}
