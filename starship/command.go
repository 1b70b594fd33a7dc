// Package starship integrates fleet counts into the Starship prompt. The
// install subcommand wires a [custom.fleet] module into starship.toml; the
// hidden status subcommand is what that module runs on every prompt.
package starship

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/fleet/cli"
	"github.com/grovetools/fleet/pkg/client"
)

// statusTimeout bounds the server query. The prompt renders on every
// keystroke in some shells, so a slow server must not stall it.
const statusTimeout = 500 * time.Millisecond

// NewStarshipCmd creates the starship command and its subcommands.
func NewStarshipCmd() *cobra.Command {
	starshipCmd := &cobra.Command{
		Use:   "starship",
		Short: "Manage Starship prompt integration",
		Long:  `Provides commands to show fleet session counts in the Starship prompt.`,
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the fleet module to your starship.toml",
		Long: `Appends a custom module to your starship.toml configuration file to
display the active Claude session count in your shell prompt. The
module only runs while the fleet server socket exists, so prompts
stay fast when the server is down. It will also attempt to add the
module to your main prompt format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("could not get home directory: %w", err)
			}
			return runStarshipInstall(filepath.Join(home, ".config", "starship.toml"), cfg.SocketPath())
		},
	}

	statusCmd := &cobra.Command{
		Use:    "status",
		Short:  "Print fleet counts for the Starship prompt (for internal use)",
		Hidden: true,
		RunE:   runStarshipStatus,
	}

	starshipCmd.AddCommand(installCmd)
	starshipCmd.AddCommand(statusCmd)

	return starshipCmd
}

func runStarshipInstall(configPath, socketPath string) error {
	contentBytes, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("starship config not found at %s. Please ensure starship is installed and configured", configPath)
		}
		return fmt.Errorf("could not read starship config: %w", err)
	}
	content := string(contentBytes)

	// --- 1. Add or update the custom module definition ---
	moduleConfig := fmt.Sprintf(`
# Added by 'fleet starship install'
[custom.fleet]
description = "Shows active Claude session count"
command = "fleet starship status"
when = "test -S %s"
format = " $output "
`, socketPath)

	if strings.Contains(content, "[custom.fleet]") {
		// Replace the whole section so a changed socket path takes effect.
		startIdx := strings.Index(content, "[custom.fleet]")
		afterModule := content[startIdx:]
		nextSectionIdx := strings.Index(afterModule[1:], "\n[")

		var endIdx int
		if nextSectionIdx != -1 {
			endIdx = startIdx + nextSectionIdx + 1
		} else {
			endIdx = len(content)
		}

		content = content[:startIdx] + moduleConfig + content[endIdx:]
		fmt.Println("✓ Updated existing fleet starship module configuration.")
	} else {
		content += moduleConfig
		fmt.Println("✓ Added [custom.fleet] module to starship config.")
	}

	// --- 2. Add the module to the prompt format if not already present ---
	if strings.Contains(content, "${custom.fleet}") || strings.Contains(content, "$custom.fleet") {
		fmt.Println("✓ Fleet module already in starship format.")
	} else {
		// Try to insert it after git_metrics, which is a common element.
		target := "$git_metrics\\"
		if strings.Contains(content, target) {
			replacement := target + "\n${custom.fleet}\\"
			content = strings.Replace(content, target, replacement, 1)
			fmt.Println("✓ Added fleet module to starship format.")
		} else {
			fmt.Printf("⚠️  Could not automatically add '${custom.fleet}' to your starship format.\n")
			fmt.Printf("   Please add it manually to the 'format' string in %s\n", configPath)
		}
	}

	// --- 3. Write the updated config back ---
	err = os.WriteFile(configPath, []byte(content), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write updated starship config: %w", err)
	}

	fmt.Printf("\nSuccessfully updated %s. Please restart your shell to see the changes.\n", configPath)
	return nil
}

// runStarshipStatus prints the prompt segment. It must be fast and must
// never write to stderr; a prompt that errors on every keystroke is worse
// than one missing a segment, so every failure path prints nothing.
func runStarshipStatus(cmd *cobra.Command, args []string) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil
	}

	remote, err := client.NewRemote(cfg.SocketPath())
	if err != nil {
		return nil
	}
	defer remote.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	snapshot, err := remote.Fleet(ctx)
	if err != nil || len(snapshot.Sessions) == 0 {
		// Empty output makes starship hide the module entirely.
		return nil
	}

	fmt.Print(Segment(snapshot.ActiveCount(), len(snapshot.Sessions)))
	return nil
}
