// Package models defines the session, metrics and fleet types shared by the
// discovery engine, the enrichment channel and the dashboard. Sessions are
// value objects rebuilt from scratch every poll pass; the id only provides
// selection continuity for the UI.
package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Source classifies where a session originates.
type Source string

const (
	// SourceCLI is an interactive terminal session.
	SourceCLI Source = "cli"
	// SourceDesktop is the desktop app's main process.
	SourceDesktop Source = "desktop"
	// SourceAgent is a background agent resumed onto an existing session.
	SourceAgent Source = "agent"
	// SourceAPI is direct API usage or anything unclassified.
	SourceAPI Source = "api"
)

// Status is the inferred activity state of a session.
type Status string

const (
	// StatusActive means a tool result landed within the last 10 seconds.
	StatusActive Status = "active"
	// StatusThinking means a request is in flight with no recent tool result.
	StatusThinking Status = "thinking"
	// StatusIdle means no activity for more than 30 seconds.
	StatusIdle Status = "idle"
	// StatusBlocked means the session is waiting on user input.
	StatusBlocked Status = "blocked"
	// StatusBackground marks agent sessions running without a terminal.
	StatusBackground Status = "background"
	// StatusUnknown means no transcript signal was available.
	StatusUnknown Status = "unknown"
)

// SessionRecord is one discovered session. Records carry no cross-cycle
// state; everything here is recomputed per pass.
type SessionRecord struct {
	ID             string          `json:"id"`
	Pid            int             `json:"pid"`
	Source         Source          `json:"source"`
	Status         Status          `json:"status"`
	ProjectDir     string          `json:"project_dir,omitempty"`
	Branch         string          `json:"branch,omitempty"`
	CurrentTask    string          `json:"current_task,omitempty"`
	CurrentFile    string          `json:"current_file,omitempty"`
	StartedAt      time.Time       `json:"started_at,omitempty"`
	LastActivity   time.Time       `json:"last_activity,omitempty"`
	Metrics        SessionMetrics  `json:"metrics"`
	RecentTools    []ToolCallEvent `json:"recent_tools,omitempty"`
	HasEnrichment  bool            `json:"has_enrichment"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
}

// DisplayName returns a short project label, shortened to the last two path
// components, falling back to the source name for sessions without a project.
func (s *SessionRecord) DisplayName() string {
	if s.ProjectDir == "" {
		return string(s.Source)
	}
	cleaned := filepath.Clean(s.ProjectDir)
	parts := strings.Split(cleaned, string(filepath.Separator))
	// Clean leaves an empty leading element for absolute paths
	filtered := parts[:0]
	for _, p := range parts {
		if p != "" {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) >= 2 {
		return strings.Join(filtered[len(filtered)-2:], "/")
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return string(s.Source)
}

// IdleDuration returns how long ago the session was last active.
// The second return is false when no activity timestamp is known.
func (s *SessionRecord) IdleDuration(now time.Time) (time.Duration, bool) {
	if s.LastActivity.IsZero() {
		return 0, false
	}
	return now.Sub(s.LastActivity), true
}
