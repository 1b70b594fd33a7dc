package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI prepares the terminal environment before a TUI starts.
// When `CLICOLOR_FORCE` or `COLORTERM` force color output, the lipgloss
// color profile is pinned to true color so styling stays consistent in
// non-interactive environments (capture tooling, CI). Terminals that set
// neither variable are left to lipgloss's own detection.
//
// Call it at the start of any command that renders a TUI.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
