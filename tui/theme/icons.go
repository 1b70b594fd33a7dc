package theme

import (
	"os"

	"github.com/grovetools/fleet/config"
)

// Nerd Font Icons (Private Constants)
const (
	nerdIconProject       = "" // cod-project (U+EB30)
	nerdIconGitBranch     = "" // dev-git_branch (U+E725)
	nerdIconAgent         = "" // fa-robot (U+EE0D)
	nerdIconSuccess       = "󰄬" // md-check (U+F012C)
	nerdIconError         = "" // cod-error (U+EA87)
	nerdIconWarning       = "" // fa-warning (U+F071)
	nerdIconInfo          = "󰋼" // md-information (U+F02FC)
	nerdIconSelect        = "󰱒" // md-checkbox_outline (U+F0C52)
	nerdIconArrow         = "󰁔" // md-arrow_right (U+F0054)
	nerdIconBullet        = "" // oct-dot_fill (U+F444)
	nerdIconFilter           = "󱣬" // md-filter_check (U+F18EC)
	nerdIconKill             = "" // oct-x (U+F467)
	nerdIconStatusActive     = "󰔟" // md-timer_sand (U+F051F)
	nerdIconStatusThinking   = "󰦖" // md-progress_clock (U+F0996)
	nerdIconStatusIdle       = "󰏧" // md-pause_octagon (U+F03E7)
	nerdIconStatusBlocked    = "󰭻" // md-chat_processing (U+F0B7B)
	nerdIconStatusBackground = "󰭆" // md-robot_industrial (U+F0B46)
	nerdIconStatusUnknown    = "" // oct-dot_fill (U+F444)
)

// ASCII Fallback Icons (Private Constants)
const (
	asciiIconProject       = "◆"
	asciiIconGitBranch     = "⎇"
	asciiIconAgent         = "⚙"
	asciiIconSuccess       = "✓"
	asciiIconError         = "✗"
	asciiIconWarning       = "⚠"
	asciiIconInfo          = "ℹ"
	asciiIconSelect        = "▶"
	asciiIconArrow         = "→"
	asciiIconBullet        = "•"
	asciiIconFilter           = "⊲"
	asciiIconKill             = "✗"
	asciiIconStatusActive     = "◐"
	asciiIconStatusThinking   = "…"
	asciiIconStatusIdle       = "○"
	asciiIconStatusBlocked    = "[X]"
	asciiIconStatusBackground = "◆"
	asciiIconStatusUnknown    = "•"
)

// Public Icon Variables
var (
	IconProject          string
	IconGitBranch        string
	IconAgent            string
	IconSuccess          string
	IconError            string
	IconWarning          string
	IconInfo             string
	IconSelect           string
	IconArrow            string
	IconBullet           string
	IconFilter           string
	IconKill             string
	IconStatusActive     string
	IconStatusThinking   string
	IconStatusIdle       string
	IconStatusBlocked    string
	IconStatusBackground string
	IconStatusUnknown    string
)

// StatusIcon returns the glyph for an inferred session status.
func StatusIcon(status string) string {
	switch status {
	case "active":
		return IconStatusActive
	case "thinking":
		return IconStatusThinking
	case "idle":
		return IconStatusIdle
	case "blocked":
		return IconStatusBlocked
	case "background":
		return IconStatusBackground
	default:
		return IconStatusUnknown
	}
}

// init function determines which icon set to use
func init() {
	useASCII := false

	// 1. Check environment variable first
	if os.Getenv("FLEET_ICONS") == "ascii" {
		useASCII = true
	} else {
		// 2. Check config file
		cfg, err := config.LoadDefault()
		if err == nil && cfg.TUI != nil && cfg.TUI.Icons == "ascii" {
			useASCII = true
		}
	}

	if useASCII {
		IconProject = asciiIconProject
		IconGitBranch = asciiIconGitBranch
		IconAgent = asciiIconAgent
		IconSuccess = asciiIconSuccess
		IconError = asciiIconError
		IconWarning = asciiIconWarning
		IconInfo = asciiIconInfo
		IconSelect = asciiIconSelect
		IconArrow = asciiIconArrow
		IconBullet = asciiIconBullet
		IconFilter = asciiIconFilter
		IconKill = asciiIconKill
		IconStatusActive = asciiIconStatusActive
		IconStatusThinking = asciiIconStatusThinking
		IconStatusIdle = asciiIconStatusIdle
		IconStatusBlocked = asciiIconStatusBlocked
		IconStatusBackground = asciiIconStatusBackground
		IconStatusUnknown = asciiIconStatusUnknown
	} else {
		IconProject = nerdIconProject
		IconGitBranch = nerdIconGitBranch
		IconAgent = nerdIconAgent
		IconSuccess = nerdIconSuccess
		IconError = nerdIconError
		IconWarning = nerdIconWarning
		IconInfo = nerdIconInfo
		IconSelect = nerdIconSelect
		IconArrow = nerdIconArrow
		IconBullet = nerdIconBullet
		IconFilter = nerdIconFilter
		IconKill = nerdIconKill
		IconStatusActive = nerdIconStatusActive
		IconStatusThinking = nerdIconStatusThinking
		IconStatusIdle = nerdIconStatusIdle
		IconStatusBlocked = nerdIconStatusBlocked
		IconStatusBackground = nerdIconStatusBackground
		IconStatusUnknown = nerdIconStatusUnknown
	}
}
