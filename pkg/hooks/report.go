package hooks

import (
	"encoding/json"
	"io"
	"time"
)

// maxReportBytes caps how much of a hook payload the reporter reads.
const maxReportBytes = 1 << 20

// reportPayload is the subset of the PostToolUse payload the reporter
// keeps. Unknown fields are ignored.
type reportPayload struct {
	Tool     string `json:"tool"`
	ToolName string `json:"tool_name"`
	Context  struct {
		ProjectDir     string `json:"project_dir"`
		CurrentTask    string `json:"current_task"`
		CurrentFile    string `json:"current_file"`
		TokensEstimate int    `json:"tokens_estimate"`
		TasksCompleted *int   `json:"tasks_completed"`
		TasksTotal     *int   `json:"tasks_total"`
	} `json:"context"`
}

// Report builds a status document from a PostToolUse payload and writes
// it for sessionID. An unreadable or unparsable payload still produces a
// minimal pid+timestamp document.
func (s *Store) Report(sessionID string, pid int, payload io.Reader, now time.Time) error {
	var report reportPayload
	if payload != nil {
		if data, err := io.ReadAll(io.LimitReader(payload, maxReportBytes)); err == nil {
			_ = json.Unmarshal(data, &report)
		}
	}

	toolName := report.ToolName
	if toolName == "" {
		toolName = report.Tool
	}
	return s.Write(&StatusDoc{
		SessionID:      sessionID,
		Pid:            pid,
		Timestamp:      now.UTC().Format(time.RFC3339),
		ProjectDir:     report.Context.ProjectDir,
		CurrentTask:    report.Context.CurrentTask,
		CurrentFile:    report.Context.CurrentFile,
		ToolName:       toolName,
		TokensEstimate: report.Context.TokensEstimate,
		TasksCompleted: report.Context.TasksCompleted,
		TasksTotal:     report.Context.TasksTotal,
	})
}
