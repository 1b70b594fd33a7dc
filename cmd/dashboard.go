package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/grovetools/fleet/cli"
	"github.com/grovetools/fleet/internal/poll"
	"github.com/grovetools/fleet/pkg/hooks"
	"github.com/grovetools/fleet/pkg/process"
	"github.com/grovetools/fleet/tui"
	"github.com/grovetools/fleet/tui/dashboard"
)

// RunDashboard launches the interactive dashboard. It is the root command's
// action: a bare `fleet` opens the fleet view.
func RunDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	poller, err := poll.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go poller.Run(ctx)

	if cfg.WatchEnrichment() {
		if watcher, err := poll.NewWatcher(cfg.EnrichmentDir(), cfg.Debounce(), poller.Refresh); err == nil {
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	tui.InitializeTUI()

	actions := dashboard.Actions{
		Kill:     process.Kill,
		Settings: hooks.NewSettings(cfg.ClaudeSettingsPath(), cfg.HookScriptPath()),
		Store:    poller.Store(),
	}

	defaultSort := ""
	if cfg.TUI != nil {
		defaultSort = cfg.TUI.DefaultSort
	}

	return dashboard.Run(poller, actions, defaultSort)
}
