package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/grovetools/fleet/pkg/paths"
)

//go:generate sh -c "cd .. && go run ./tools/config-schema-generator/"

const (
	// DefaultRefreshInterval is the dashboard and poller cadence.
	DefaultRefreshInterval = 3 * time.Second
	// DefaultBranchTimeout bounds a single git branch lookup.
	DefaultBranchTimeout = 2 * time.Second
	// DefaultWorkers is the per-pass fan-out for session assembly.
	DefaultWorkers = 8
	// DefaultTokensMax is the assumed context window when estimating usage.
	DefaultTokensMax = 200_000
	// DefaultBudgetUSD is the monthly budget used when the enrichment
	// channel has not recorded one.
	DefaultBudgetUSD = 50.0
)

// TUIConfig holds dashboard appearance and behavior settings.
type TUIConfig struct {
	Theme           string `yaml:"theme,omitempty" toml:"theme,omitempty" jsonschema:"description=Color theme for terminal interfaces,enum=kanagawa,enum=terminal"`
	Icons           string `yaml:"icons,omitempty" toml:"icons,omitempty" jsonschema:"description=Icon set to use: nerd or ascii,enum=nerd,enum=ascii"`
	RefreshInterval string `yaml:"refresh_interval,omitempty" toml:"refresh_interval,omitempty" jsonschema:"description=How often the dashboard refreshes (default: 3s)"`
	DefaultSort     string `yaml:"default_sort,omitempty" toml:"default_sort,omitempty" jsonschema:"description=Initial sort mode for the session table,enum=activity,enum=tokens,enum=project"`
}

// PollConfig holds settings for the discovery poller.
type PollConfig struct {
	Interval        string `yaml:"interval,omitempty" toml:"interval,omitempty" jsonschema:"description=How often to run a discovery pass (default: 3s)"`
	BranchTimeout   string `yaml:"branch_timeout,omitempty" toml:"branch_timeout,omitempty" jsonschema:"description=Timeout for a single git branch lookup (default: 2s)"`
	Workers         int    `yaml:"workers,omitempty" toml:"workers,omitempty" jsonschema:"description=Concurrent session assemblies per pass (default: 8)"`
	WatchEnrichment *bool  `yaml:"watch_enrichment,omitempty" toml:"watch_enrichment,omitempty" jsonschema:"description=Trigger refreshes from enrichment file changes (default: true)"`
	DebounceMs      int    `yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty" jsonschema:"description=Debounce window for file-change triggered passes in milliseconds (default: 100)"`
}

// ServerConfig holds settings for the fleet state server.
type ServerConfig struct {
	Socket string `yaml:"socket,omitempty" toml:"socket,omitempty" jsonschema:"description=Unix socket path (default: $XDG_RUNTIME_DIR/fleet/fleet.sock)"`
}

// Config represents the fleet.yml configuration.
type Config struct {
	Version       string   `yaml:"version" toml:"version" jsonschema:"description=Configuration version (e.g. 1.0)"`
	ClaudeDir     string   `yaml:"claude_dir,omitempty" toml:"claude_dir,omitempty" jsonschema:"description=Claude home directory holding transcripts and settings (default: ~/.claude)"`
	TokensMax     int      `yaml:"tokens_max,omitempty" toml:"tokens_max,omitempty" jsonschema:"description=Context window size used for usage percentages (default: 200000)"`
	DefaultBudget float64  `yaml:"default_budget,omitempty" toml:"default_budget,omitempty" jsonschema:"description=Monthly budget in USD when none is recorded (default: 50.0)"`
	Exclude       []string `yaml:"exclude,omitempty" toml:"exclude,omitempty" jsonschema:"description=Project directory patterns to hide from the fleet"`

	TUI    *TUIConfig    `yaml:"tui,omitempty" toml:"tui,omitempty" jsonschema:"description=Dashboard appearance and behavior settings"`
	Poll   *PollConfig   `yaml:"poll,omitempty" toml:"poll,omitempty" jsonschema:"description=Discovery poller settings"`
	Server *ServerConfig `yaml:"server,omitempty" toml:"server,omitempty" jsonschema:"description=Fleet state server settings"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.TokensMax == 0 {
		c.TokensMax = DefaultTokensMax
	}
	if c.DefaultBudget == 0 {
		c.DefaultBudget = DefaultBudgetUSD
	}
}

// RefreshInterval returns the parsed dashboard refresh cadence.
func (c *Config) RefreshInterval() time.Duration {
	if c.TUI != nil {
		if d, err := time.ParseDuration(c.TUI.RefreshInterval); err == nil && d > 0 {
			return d
		}
	}
	return DefaultRefreshInterval
}

// PollInterval returns the parsed discovery pass cadence.
func (c *Config) PollInterval() time.Duration {
	if c.Poll != nil {
		if d, err := time.ParseDuration(c.Poll.Interval); err == nil && d > 0 {
			return d
		}
	}
	return DefaultRefreshInterval
}

// BranchTimeout returns the parsed per-lookup git timeout.
func (c *Config) BranchTimeout() time.Duration {
	if c.Poll != nil {
		if d, err := time.ParseDuration(c.Poll.BranchTimeout); err == nil && d > 0 {
			return d
		}
	}
	return DefaultBranchTimeout
}

// Workers returns the configured assembly fan-out.
func (c *Config) Workers() int {
	if c.Poll != nil && c.Poll.Workers > 0 {
		return c.Poll.Workers
	}
	return DefaultWorkers
}

// WatchEnrichment reports whether file-change triggered passes are enabled.
func (c *Config) WatchEnrichment() bool {
	if c.Poll != nil && c.Poll.WatchEnrichment != nil {
		return *c.Poll.WatchEnrichment
	}
	return true
}

// Debounce returns the debounce window for watcher-triggered passes.
func (c *Config) Debounce() time.Duration {
	if c.Poll != nil && c.Poll.DebounceMs > 0 {
		return time.Duration(c.Poll.DebounceMs) * time.Millisecond
	}
	return 100 * time.Millisecond
}

// SocketPath returns the unix socket the fleet server binds.
func (c *Config) SocketPath() string {
	if c.Server != nil && c.Server.Socket != "" {
		return c.Server.Socket
	}
	return paths.SocketPath()
}

// TranscriptRoot returns the per-project transcript root, honoring a
// configured claude_dir override.
func (c *Config) TranscriptRoot() string {
	if c.ClaudeDir != "" {
		return filepath.Join(c.ClaudeDir, "projects")
	}
	return paths.TranscriptRoot()
}

// EnrichmentDir returns the directory holding per-session status documents.
func (c *Config) EnrichmentDir() string {
	if c.ClaudeDir != "" {
		return filepath.Join(c.ClaudeDir, "fleet")
	}
	return paths.FleetDir()
}

// ClaudeSettingsPath returns the settings document hook registration edits.
func (c *Config) ClaudeSettingsPath() string {
	if c.ClaudeDir != "" {
		return filepath.Join(c.ClaudeDir, "settings.json")
	}
	return paths.SettingsPath()
}

// HookScriptPath returns where the PostToolUse hook script is deployed.
func (c *Config) HookScriptPath() string {
	if c.ClaudeDir != "" {
		return filepath.Join(c.ClaudeDir, "fleet", "post_tool_use.sh")
	}
	return paths.HookScriptPath()
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded fleet.yml into the provided target struct. The target must be a pointer.
// This provides a type-safe way for extensions to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct. We configure it to use
	// `yaml` tags for consistency.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
