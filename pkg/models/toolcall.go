package models

import "time"

// ToolCallEvent is a single tool invocation observed in a transcript tail.
// DurationMs is nil while the call has no matching result in the window,
// which marks it in flight as of observation time.
type ToolCallEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	ToolName   string    `json:"tool_name"`
	Summary    string    `json:"summary"`
	DurationMs *int64    `json:"duration_ms,omitempty"`
}
