package hooks

// ReservedConfigName is the one filename in the enrichment directory that
// is never treated as a session status document.
const ReservedConfigName = "config.json"

// StatusDoc is the per-session enrichment document written by the
// PostToolUse reporter and read back during discovery. TasksCompleted and
// TasksTotal are pointers so an explicit zero survives the trip; absent
// means "not reported".
type StatusDoc struct {
	SessionID      string `json:"session_id,omitempty"`
	Pid            int    `json:"pid"`
	Timestamp      string `json:"timestamp"`
	ProjectDir     string `json:"project_dir,omitempty"`
	CurrentTask    string `json:"current_task,omitempty"`
	CurrentFile    string `json:"current_file,omitempty"`
	ToolName       string `json:"tool_name,omitempty"`
	TokensEstimate int    `json:"tokens_estimate,omitempty"`
	TasksCompleted *int   `json:"tasks_completed,omitempty"`
	TasksTotal     *int   `json:"tasks_total,omitempty"`
}
