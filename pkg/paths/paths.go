// Package paths provides XDG-compliant path resolution for fleet, plus the
// well-known Claude-side locations the engine observes.
//
// Resolution order for fleet's own directories:
// 1. FLEET_HOME (portable root) → $FLEET_HOME/{config,data,state,cache}
// 2. XDG env vars → $XDG_*_HOME/fleet
// 3. Platform defaults → ~/.config/fleet, ~/.local/share/fleet, etc.
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if fleetHome := os.Getenv("FLEET_HOME"); fleetHome != "" {
		return filepath.Join(fleetHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if fleetHome := os.Getenv("FLEET_HOME"); fleetHome != "" {
		return filepath.Join(fleetHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the fleet configuration directory.
// Used for fleet.yml / fleet.toml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "fleet")
}

// StateDir returns the fleet state directory.
// Used for logs and the daemon socket fallback.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "fleet")
}

// LogDir returns the directory fleet writes its own log files to.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RuntimeDir returns the fleet runtime directory for sockets.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir.
func RuntimeDir() string {
	if fleetHome := os.Getenv("FLEET_HOME"); fleetHome != "" {
		return filepath.Join(fleetHome, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "fleet")
	}
	return StateDir()
}

// SocketPath returns the path to the fleet server unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "fleet.sock")
}

// PidFilePath returns the path to the fleet server pid file.
func PidFilePath() string {
	return filepath.Join(RuntimeDir(), "fleet.pid")
}

// ClaudeDir returns the Claude home directory that holds transcripts,
// settings and the enrichment side-channel. CLAUDE_HOME overrides the
// default ~/.claude, which keeps every consumer testable with a scratch root.
func ClaudeDir() string {
	if dir := os.Getenv("CLAUDE_HOME"); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".claude")
	}
	return ""
}

// TranscriptRoot returns the per-user log root holding session transcripts,
// partitioned by project: {root}/{project-hash}/{session-id}.jsonl.
func TranscriptRoot() string {
	dir := ClaudeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "projects")
}

// FleetDir returns the enrichment directory holding per-session status
// documents and the reserved runtime config.
func FleetDir() string {
	dir := ClaudeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "fleet")
}

// SettingsPath returns the shared Claude settings document the hook
// registration mutates.
func SettingsPath() string {
	dir := ClaudeDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "settings.json")
}

// HookScriptPath returns where the PostToolUse hook script is deployed.
func HookScriptPath() string {
	dir := FleetDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "post_tool_use.sh")
}

// EnsureDirs creates fleet's own directories if they don't exist.
// Claude-side directories are created lazily by the components that own them.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		LogDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
