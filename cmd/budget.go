package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovetools/fleet/cli"
	"github.com/grovetools/fleet/pkg/hooks"
)

// NewBudgetCmd returns the budget command with subcommands.
func NewBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show or set the monthly API spend budget",
		Long: `Show or set the monthly API spend budget.

The budget drives the cost gauge for pay-per-token sessions. It is
recorded next to the enrichment documents, so every fleet instance on
this machine sees the same number.

Examples:
  # Show the current budget
  fleet budget

  # Set the monthly API budget to $75
  fleet budget api 75`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			store := hooks.NewStore(cfg.EnrichmentDir())
			if amount, ok := store.ReadBudget(); ok {
				fmt.Printf("Monthly API budget: $%.2f\n", amount)
			} else {
				fmt.Printf("Monthly API budget: $%.2f (default, none recorded)\n", cfg.DefaultBudget)
			}
			return nil
		},
	}

	cmd.AddCommand(newBudgetAPICmd())
	return cmd
}

func newBudgetAPICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "api <amount>",
		Short: "Set the monthly API spend budget in dollars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimPrefix(strings.TrimSpace(args[0]), "$")
			amount, err := strconv.ParseFloat(raw, 64)
			if err != nil || amount < 0 {
				return fmt.Errorf("invalid amount %q: expected a dollar value like 50 or 75.50", args[0])
			}

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			store := hooks.NewStore(cfg.EnrichmentDir())
			if err := store.SetBudget(amount); err != nil {
				return fmt.Errorf("failed to save budget: %w", err)
			}

			fmt.Printf("Monthly API budget set to $%.2f\n", amount)
			return nil
		},
	}
}
