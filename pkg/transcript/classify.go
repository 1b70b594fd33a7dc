package transcript

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/pricing"
)

// Status thresholds. A tool result younger than activeWithin means the
// session is actively executing; evidence older than idleAfter means it
// has gone quiet.
const (
	activeWithin = 10 * time.Second
	idleAfter    = 30 * time.Second
)

// Extraction windows, counted back from the newest entry. Each bounds how
// far one rule looks, not how much the reader decodes.
const (
	toolResultWindow = 20
	assistantWindow  = 10
	taskWindow       = 30
	fileWindow       = 20
	historyWindow    = 30
	countWindow      = 50
	rateWindow       = 50
	activityWindow   = 5

	maxTaskSentenceLen = 100
	summaryArgLen      = 30
	minRateSpanSeconds = 60.0
)

// Analysis is everything the classifier derives from one tail window.
// LastActivity is the zero time when no entry carried a usable timestamp.
type Analysis struct {
	Status          models.Status
	CurrentTask     string
	CurrentFile     string
	LastActivity    time.Time
	RecentTools     []models.ToolCallEvent
	TasksCompleted  int
	TasksTotal      int
	RequestsPerHour float64
	TokensUsed      int
}

// Analyze runs every extraction over the decoded tail window against
// wall-clock now. An empty window yields StatusUnknown and zero metrics.
func Analyze(tail Tail, now time.Time) Analysis {
	entries := tail.Entries
	if len(entries) == 0 {
		return Analysis{Status: models.StatusUnknown}
	}

	completed, total := extractTaskCounts(entries)
	return Analysis{
		Status:          classifyStatus(entries, now),
		CurrentTask:     extractCurrentTask(entries),
		CurrentFile:     extractCurrentFile(entries),
		LastActivity:    extractLastActivity(entries),
		RecentTools:     extractRecentTools(entries),
		TasksCompleted:  completed,
		TasksTotal:      total,
		RequestsPerHour: estimateRequestRate(entries),
		TokensUsed:      pricing.EstimateTokensFromBytes(tail.FileSize),
	}
}

// statusRules is the ordered decision table for status derivation. The
// first rule that produces a verdict wins; a window satisfying none of
// them reads as idle.
var statusRules = []struct {
	name string
	eval func(entries []Entry, now time.Time) (models.Status, bool)
}{
	{"blocked-on-input", ruleBlockedOnInput},
	{"tool-result-recency", ruleToolResultRecency},
	{"fresh-assistant-turn", ruleFreshAssistantTurn},
}

func classifyStatus(entries []Entry, now time.Time) models.Status {
	for _, rule := range statusRules {
		if status, ok := rule.eval(entries, now); ok {
			return status
		}
	}
	return models.StatusIdle
}

// ruleBlockedOnInput fires when the newest entry is a system message whose
// string content mentions "input": the session is soliciting the user and
// no recency evidence overrides that.
func ruleBlockedOnInput(entries []Entry, _ time.Time) (models.Status, bool) {
	last := entries[len(entries)-1]
	if last.Type != "system" {
		return "", false
	}
	if strings.Contains(strings.ToLower(last.Message.Content.Text), "input") {
		return models.StatusBlocked, true
	}
	return "", false
}

// ruleToolResultRecency grades the age of the newest tool result.
func ruleToolResultRecency(entries []Entry, now time.Time) (models.Status, bool) {
	t, ok := lastToolResultTime(entries)
	if !ok {
		return "", false
	}
	elapsed := now.Sub(t)
	switch {
	case elapsed < activeWithin:
		return models.StatusActive, true
	case elapsed > idleAfter:
		return models.StatusIdle, true
	default:
		return models.StatusThinking, true
	}
}

func lastToolResultTime(entries []Entry) (time.Time, bool) {
	for _, entry := range newestFirst(entries, toolResultWindow) {
		if entry.Type != "user" {
			continue
		}
		for _, block := range entry.Message.Content.Blocks {
			if block.Type != "tool_result" {
				continue
			}
			if t, ok := entry.Time(); ok {
				return t, true
			}
			break
		}
	}
	return time.Time{}, false
}

// ruleFreshAssistantTurn reads a recent assistant message with no tool
// result yet as a request still in flight.
func ruleFreshAssistantTurn(entries []Entry, now time.Time) (models.Status, bool) {
	for _, entry := range newestFirst(entries, assistantWindow) {
		if entry.Type != "assistant" {
			continue
		}
		if t, ok := entry.Time(); ok && now.Sub(t) < idleAfter {
			return models.StatusThinking, true
		}
	}
	return "", false
}

// extractCurrentTask prefers an explicit task tool subject; failing that
// it falls back to a short opening sentence of assistant prose.
func extractCurrentTask(entries []Entry) string {
	for _, entry := range newestFirst(entries, taskWindow) {
		if entry.Type != "assistant" {
			continue
		}
		for _, block := range entry.Message.Content.Blocks {
			switch block.Type {
			case "tool_use":
				if block.Name == "TaskCreate" || block.Name == "TaskUpdate" {
					if subject := block.InputString("subject"); subject != "" {
						return subject
					}
				}
			case "text":
				if sentence := firstSentence(block.Text); sentence != "" {
					return sentence
				}
			}
		}
	}
	return ""
}

// firstSentence returns the text up to the first period when it is short
// enough to read as a task description.
func firstSentence(text string) string {
	if text == "" {
		return ""
	}
	sentence := strings.TrimSpace(strings.SplitN(text, ".", 2)[0])
	if sentence == "" || utf8.RuneCountInString(sentence) >= maxTaskSentenceLen {
		return ""
	}
	return sentence
}

// extractCurrentFile returns the base name of the most recently touched
// file. Newest activity dominates; the first match wins.
func extractCurrentFile(entries []Entry) string {
	for _, entry := range newestFirst(entries, fileWindow) {
		if entry.Type != "assistant" {
			continue
		}
		for _, block := range entry.Message.Content.Blocks {
			if block.Type != "tool_use" {
				continue
			}
			switch block.Name {
			case "Read", "Edit", "Write":
				if path := block.InputString("file_path"); path != "" {
					return filepath.Base(path)
				}
			case "Grep", "Glob":
				if path := block.InputString("path"); path != "" {
					return filepath.Base(path)
				}
			}
		}
	}
	return ""
}

func extractLastActivity(entries []Entry) time.Time {
	for _, entry := range newestFirst(entries, activityWindow) {
		if t, ok := entry.Time(); ok {
			return t
		}
	}
	return time.Time{}
}

// extractRecentTools collects every tool invocation in the history window
// with a short summary, oldest first. A call whose result arrived inside
// the window gets a duration; one without stays in flight (nil).
func extractRecentTools(entries []Entry) []models.ToolCallEvent {
	resultTimes := toolResultTimes(entries)

	var calls []models.ToolCallEvent
	for _, entry := range newestFirst(entries, historyWindow) {
		if entry.Type != "assistant" {
			continue
		}
		ts, ok := entry.Time()
		if !ok {
			continue
		}
		for _, block := range entry.Message.Content.Blocks {
			if block.Type != "tool_use" || block.Name == "" {
				continue
			}
			event := models.ToolCallEvent{
				Timestamp: ts,
				ToolName:  block.Name,
				Summary:   buildToolSummary(block),
			}
			if block.ID != "" {
				if done, ok := resultTimes[block.ID]; ok {
					if ms := done.Sub(ts).Milliseconds(); ms >= 0 {
						event.DurationMs = &ms
					}
				}
			}
			calls = append(calls, event)
		}
	}

	// Collected newest entry first; flip for chronological display.
	for i, j := 0, len(calls)-1; i < j; i, j = i+1, j-1 {
		calls[i], calls[j] = calls[j], calls[i]
	}
	return calls
}

// toolResultTimes indexes tool_result arrival times by the id of the
// tool_use block they answer.
func toolResultTimes(entries []Entry) map[string]time.Time {
	times := make(map[string]time.Time)
	for _, entry := range entries {
		if entry.Type != "user" {
			continue
		}
		t, ok := entry.Time()
		if !ok {
			continue
		}
		for _, block := range entry.Message.Content.Blocks {
			if block.Type != "tool_result" || block.ToolUseID == "" {
				continue
			}
			if _, seen := times[block.ToolUseID]; !seen {
				times[block.ToolUseID] = t
			}
		}
	}
	return times
}

func buildToolSummary(block Block) string {
	switch block.Name {
	case "Read", "Edit", "Write":
		if path := block.InputString("file_path"); path != "" {
			return block.Name + " " + filepath.Base(path)
		}
		return block.Name
	case "Bash":
		if fields := strings.Fields(block.InputString("command")); len(fields) > 0 {
			return "Bash: " + fields[0]
		}
		return "Bash: bash"
	case "Grep", "Glob":
		if pattern := block.InputString("pattern"); pattern != "" {
			return block.Name + ": " + truncate(pattern, summaryArgLen)
		}
		return block.Name
	default:
		return block.Name
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// extractTaskCounts accumulates (completed, total) from two signals: task
// listing results whose text mentions both "completed" and "pending"
// contribute one total per status line ("completed" lines also increment
// completed), and standalone TaskUpdate calls marking a task completed
// increment completed only. The signals are additive; a task visible to
// both paths counts twice, which is accepted behavior.
func extractTaskCounts(entries []Entry) (completed, total int) {
	for _, entry := range newestFirst(entries, countWindow) {
		switch entry.Type {
		case "user":
			for _, block := range entry.Message.Content.Blocks {
				if block.Type != "tool_result" {
					continue
				}
				text := strings.ToLower(string(block.Content))
				if !strings.Contains(text, "completed") || !strings.Contains(text, "pending") {
					continue
				}
				for _, line := range strings.Split(text, "\n") {
					if !strings.Contains(line, "status:") {
						continue
					}
					total++
					if strings.Contains(line, "completed") {
						completed++
					}
				}
			}
		case "assistant":
			for _, block := range entry.Message.Content.Blocks {
				if block.Type == "tool_use" && block.Name == "TaskUpdate" && block.InputString("status") == "completed" {
					completed++
				}
			}
		}
	}
	return completed, total
}

// estimateRequestRate treats each assistant entry as one request and
// extrapolates to an hourly rate. Fewer than two points, or a span under
// a minute, is not enough signal and reports zero.
func estimateRequestRate(entries []Entry) float64 {
	start := len(entries) - rateWindow
	if start < 0 {
		start = 0
	}
	var times []time.Time
	for _, entry := range entries[start:] {
		if entry.Type != "assistant" {
			continue
		}
		if t, ok := entry.Time(); ok {
			times = append(times, t)
		}
	}
	if len(times) < 2 {
		return 0
	}
	span := times[len(times)-1].Sub(times[0]).Seconds()
	if span < minRateSpanSeconds {
		return 0
	}
	return float64(len(times)) / span * 3600
}

// newestFirst returns up to n trailing entries in reverse order.
func newestFirst(entries []Entry, n int) []Entry {
	start := len(entries) - n
	if start < 0 {
		start = 0
	}
	window := entries[start:]
	out := make([]Entry, len(window))
	for i, e := range window {
		out[len(window)-1-i] = e
	}
	return out
}
