package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/fleet/pkg/models"
)

var classifyNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func stamp(age time.Duration) string {
	return classifyNow.Add(-age).Format(time.RFC3339)
}

func toolResultEntry(age time.Duration, toolUseID string) Entry {
	return Entry{
		Type:      "user",
		Timestamp: stamp(age),
		Message: Message{Content: Content{Blocks: []Block{
			{Type: "tool_result", ToolUseID: toolUseID},
		}}},
	}
}

func assistantText(age time.Duration, text string) Entry {
	return Entry{
		Type:      "assistant",
		Timestamp: stamp(age),
		Message: Message{Content: Content{Blocks: []Block{
			{Type: "text", Text: text},
		}}},
	}
}

func assistantTool(age time.Duration, block Block) Entry {
	block.Type = "tool_use"
	return Entry{
		Type:      "assistant",
		Timestamp: stamp(age),
		Message:   Message{Content: Content{Blocks: []Block{block}}},
	}
}

func TestClassifyStatusToolResultRecency(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want models.Status
	}{
		{"five seconds ago is active", 5 * time.Second, models.StatusActive},
		{"forty seconds ago is idle", 40 * time.Second, models.StatusIdle},
		{"fifteen seconds ago is thinking", 15 * time.Second, models.StatusThinking},
		{"exactly ten seconds is thinking", 10 * time.Second, models.StatusThinking},
		{"exactly thirty seconds is thinking", 30 * time.Second, models.StatusThinking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := []Entry{toolResultEntry(tt.age, "tu_1")}
			assert.Equal(t, tt.want, classifyStatus(entries, classifyNow))
		})
	}
}

func TestClassifyStatusBlockedWinsOverRecency(t *testing.T) {
	entries := []Entry{
		toolResultEntry(1*time.Second, "tu_1"),
		{
			Type:      "system",
			Timestamp: stamp(0),
			Message:   Message{Content: Content{Text: "Claude needs your INPUT to continue"}},
		},
	}
	assert.Equal(t, models.StatusBlocked, classifyStatus(entries, classifyNow))
}

func TestClassifyStatusSystemWithoutInputFallsThrough(t *testing.T) {
	entries := []Entry{
		toolResultEntry(5*time.Second, "tu_1"),
		{
			Type:      "system",
			Timestamp: stamp(0),
			Message:   Message{Content: Content{Text: "compacting context"}},
		},
	}
	assert.Equal(t, models.StatusActive, classifyStatus(entries, classifyNow))
}

func TestClassifyStatusFreshAssistantIsThinking(t *testing.T) {
	entries := []Entry{assistantText(15*time.Second, "Let me check.")}
	assert.Equal(t, models.StatusThinking, classifyStatus(entries, classifyNow))
}

func TestClassifyStatusStaleAssistantIsIdle(t *testing.T) {
	entries := []Entry{assistantText(45*time.Second, "Let me check.")}
	assert.Equal(t, models.StatusIdle, classifyStatus(entries, classifyNow))
}

func TestClassifyStatusToolResultOutsideWindowIgnored(t *testing.T) {
	entries := []Entry{toolResultEntry(5*time.Second, "tu_1")}
	for i := 0; i < 20; i++ {
		entries = append(entries, Entry{Type: "user"})
	}
	assert.Equal(t, models.StatusIdle, classifyStatus(entries, classifyNow))
}

func TestAnalyzeEmptyWindow(t *testing.T) {
	analysis := Analyze(Tail{FileSize: 90000}, classifyNow)
	assert.Equal(t, models.StatusUnknown, analysis.Status)
	assert.Zero(t, analysis.TokensUsed)
	assert.Empty(t, analysis.CurrentTask)
	assert.Empty(t, analysis.RecentTools)
	assert.True(t, analysis.LastActivity.IsZero())
}

func TestAnalyzeTokensFromFileSize(t *testing.T) {
	tail := Tail{
		Entries:  []Entry{assistantText(5*time.Second, "Reading.")},
		FileSize: 3500,
	}
	analysis := Analyze(tail, classifyNow)
	assert.Equal(t, 1000, analysis.TokensUsed)
}

func TestExtractCurrentTaskPrefersTaskTools(t *testing.T) {
	entries := []Entry{
		assistantText(90*time.Second, "Refactor the config loader. Then tests."),
		assistantTool(30*time.Second, Block{
			Name:  "TaskUpdate",
			Input: map[string]interface{}{"subject": "Wire schema validation"},
		}),
	}
	assert.Equal(t, "Wire schema validation", extractCurrentTask(entries))
}

func TestExtractCurrentTaskFirstSentenceFallback(t *testing.T) {
	entries := []Entry{
		assistantText(30*time.Second, "Refactor the config loader. Then run the full suite."),
	}
	assert.Equal(t, "Refactor the config loader", extractCurrentTask(entries))
}

func TestExtractCurrentTaskRejectsLongSentences(t *testing.T) {
	long := make([]byte, 120)
	for i := range long {
		long[i] = 'a'
	}
	entries := []Entry{
		assistantTool(60*time.Second, Block{
			Name:  "TaskCreate",
			Input: map[string]interface{}{"subject": "Ship the reaper"},
		}),
		assistantText(5*time.Second, string(long)+". More."),
	}
	assert.Equal(t, "Ship the reaper", extractCurrentTask(entries))
}

func TestExtractCurrentTaskEmpty(t *testing.T) {
	entries := []Entry{toolResultEntry(5*time.Second, "tu_1")}
	assert.Empty(t, extractCurrentTask(entries))
}

func TestExtractCurrentFile(t *testing.T) {
	entries := []Entry{
		assistantTool(40*time.Second, Block{
			Name:  "Read",
			Input: map[string]interface{}{"file_path": "/home/dev/api/handler.go"},
		}),
		assistantTool(10*time.Second, Block{
			Name:  "Edit",
			Input: map[string]interface{}{"file_path": "/home/dev/api/router.go"},
		}),
	}
	assert.Equal(t, "router.go", extractCurrentFile(entries))
}

func TestExtractCurrentFileFromSearchPath(t *testing.T) {
	entries := []Entry{
		assistantTool(10*time.Second, Block{
			Name:  "Grep",
			Input: map[string]interface{}{"pattern": "Listen", "path": "/home/dev/api"},
		}),
	}
	assert.Equal(t, "api", extractCurrentFile(entries))
}

func TestExtractRecentToolsChronologicalWithDurations(t *testing.T) {
	entries := []Entry{
		assistantTool(60*time.Second, Block{
			Name:  "Edit",
			ID:    "tu_1",
			Input: map[string]interface{}{"file_path": "/src/main.go"},
		}),
		toolResultEntry(57*time.Second, "tu_1"),
		assistantTool(20*time.Second, Block{
			Name:  "Bash",
			ID:    "tu_2",
			Input: map[string]interface{}{"command": "npm install"},
		}),
	}

	calls := extractRecentTools(entries)
	require.Len(t, calls, 2)

	assert.Equal(t, "Edit main.go", calls[0].Summary)
	require.NotNil(t, calls[0].DurationMs)
	assert.Equal(t, int64(3000), *calls[0].DurationMs)

	assert.Equal(t, "Bash: npm", calls[1].Summary)
	assert.Nil(t, calls[1].DurationMs)
	assert.True(t, calls[0].Timestamp.Before(calls[1].Timestamp))
}

func TestBuildToolSummary(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{
			"read with path",
			Block{Name: "Read", Input: map[string]interface{}{"file_path": "/a/b/foo.py"}},
			"Read foo.py",
		},
		{"write without path", Block{Name: "Write"}, "Write"},
		{
			"bash keeps first word",
			Block{Name: "Bash", Input: map[string]interface{}{"command": "git status --short"}},
			"Bash: git",
		},
		{"bash empty command", Block{Name: "Bash"}, "Bash: bash"},
		{
			"bash whitespace command",
			Block{Name: "Bash", Input: map[string]interface{}{"command": "   "}},
			"Bash: bash",
		},
		{
			"grep truncates pattern",
			Block{Name: "Grep", Input: map[string]interface{}{"pattern": "abcdefghijklmnopqrstuvwxyz0123456789"}},
			"Grep: abcdefghijklmnopqrstuvwxyz0123",
		},
		{"glob bare", Block{Name: "Glob"}, "Glob"},
		{"task tool", Block{Name: "TaskList"}, "TaskList"},
		{"unknown tool", Block{Name: "WebFetch"}, "WebFetch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.block.Type = "tool_use"
			assert.Equal(t, tt.want, buildToolSummary(tt.block))
		})
	}
}

func TestExtractTaskCountsAdditiveSignals(t *testing.T) {
	listing := "Tasks:\n- status: completed build scanner\n- status: pending write docs\n- status: in_progress reaper\n"
	entries := []Entry{
		{
			Type:      "user",
			Timestamp: stamp(40 * time.Second),
			Message: Message{Content: Content{Blocks: []Block{
				{Type: "tool_result", ToolUseID: "tu_9", Content: ResultText(listing)},
			}}},
		},
		assistantTool(10*time.Second, Block{
			Name:  "TaskUpdate",
			Input: map[string]interface{}{"status": "completed"},
		}),
	}

	completed, total := extractTaskCounts(entries)
	assert.Equal(t, 3, total)
	// One from the listing plus one from the TaskUpdate; the overlap is
	// counted twice on purpose.
	assert.Equal(t, 2, completed)
}

func TestExtractTaskCountsRequiresBothMarkers(t *testing.T) {
	entries := []Entry{
		{
			Type:      "user",
			Timestamp: stamp(10 * time.Second),
			Message: Message{Content: Content{Blocks: []Block{
				{Type: "tool_result", Content: ResultText("status: completed\nstatus: completed\n")},
			}}},
		},
	}
	completed, total := extractTaskCounts(entries)
	assert.Zero(t, completed)
	assert.Zero(t, total)
}

func TestEstimateRequestRate(t *testing.T) {
	t.Run("short span reports zero", func(t *testing.T) {
		entries := []Entry{
			assistantText(30*time.Second, "a"),
			assistantText(10*time.Second, "b"),
		}
		assert.Zero(t, estimateRequestRate(entries))
	})

	t.Run("single point reports zero", func(t *testing.T) {
		entries := []Entry{assistantText(10*time.Minute, "a")}
		assert.Zero(t, estimateRequestRate(entries))
	})

	t.Run("extrapolates to hourly", func(t *testing.T) {
		entries := []Entry{
			assistantText(2*time.Minute, "a"),
			assistantText(90*time.Second, "b"),
			assistantText(45*time.Second, "c"),
			assistantText(30*time.Second, "d"),
			assistantText(0, "e"),
		}
		// 5 requests over 120 seconds.
		assert.InDelta(t, 150.0, estimateRequestRate(entries), 0.01)
	})
}

func TestExtractLastActivitySkipsBadTimestamps(t *testing.T) {
	entries := []Entry{
		assistantText(20*time.Second, "older"),
		{Type: "user", Timestamp: "not-a-time"},
		{Type: "user"},
	}
	got := extractLastActivity(entries)
	assert.True(t, got.Equal(classifyNow.Add(-20*time.Second)))
}
