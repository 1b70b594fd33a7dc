package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/process"
)

func TestFilterCandidates(t *testing.T) {
	procs := []process.Snapshot{
		{Pid: 10, Comm: "claude", Argv: []string{"claude"}},
		{Pid: 11, Comm: "Claude", ExePath: DesktopBinaryPath, Argv: []string{DesktopBinaryPath}},
		{Pid: 12, Comm: "Claude Helper", ExePath: "/Applications/Claude.app/Contents/Frameworks/Claude Helper.app/Contents/MacOS/Claude Helper"},
		{Pid: 13, Comm: "crashpad_handle", Argv: []string{"crashpad_handler"}},
		{Pid: 14, Comm: "ShipIt", Argv: []string{"ShipIt"}},
		{Pid: 15, Comm: "node", Argv: []string{"node", "/Users/u/Library/Application Support/Claude/Claude Extensions/srv.js"}},
		{Pid: 16, Comm: "node", Argv: []string{"node", "server.js"}},
		{Pid: 17, Comm: "disclaimer", Argv: []string{"disclaimer"}},
		{Pid: 18, Comm: "sh", Argv: []string{"/opt/disclaimer-wrap", "claude"}},
		{Pid: 19, Comm: "Claude", ExePath: "/Applications/Claude.app/Contents/Frameworks/Helper"},
		{Pid: 20, Comm: "vim", Argv: []string{"vim", "main.go"}},
	}

	got := FilterCandidates(procs)

	pids := make([]int, 0, len(got))
	for _, p := range got {
		pids = append(pids, p.Pid)
	}
	assert.Equal(t, []int{10, 11}, pids)
}

func TestFilterCandidatesEmpty(t *testing.T) {
	assert.Empty(t, FilterCandidates(nil))
}

func TestClassifySource(t *testing.T) {
	uuid := "fe580b5f-c6e2-4017-a29b-34008b9ad491"

	tests := []struct {
		name string
		proc process.Snapshot
		want models.Source
	}{
		{
			name: "desktop main process",
			proc: process.Snapshot{Comm: "Claude", Argv: []string{DesktopBinaryPath}},
			want: models.SourceDesktop,
		},
		{
			name: "plain cli",
			proc: process.Snapshot{Comm: "claude", Argv: []string{"claude"}},
			want: models.SourceCLI,
		},
		{
			name: "cli resumed on short token is an agent",
			proc: process.Snapshot{Comm: "claude", Argv: []string{"claude", "--resume", "abc123"}},
			want: models.SourceAgent,
		},
		{
			name: "cli resume token too short",
			proc: process.Snapshot{Comm: "claude", Argv: []string{"claude", "--resume", "ab1"}},
			want: models.SourceCLI,
		},
		{
			name: "cli resumed on full uuid stays cli",
			proc: process.Snapshot{Comm: "claude", Argv: []string{"claude", "--resume", uuid}},
			want: models.SourceCLI,
		},
		{
			name: "unknown binary with uuid resume is an agent",
			proc: process.Snapshot{Comm: "python3", Argv: []string{"python3", "runner.py", "--resume", uuid}},
			want: models.SourceAgent,
		},
		{
			name: "unknown binary defaults to api",
			proc: process.Snapshot{Comm: "python3", Argv: []string{"python3", "script.py"}},
			want: models.SourceAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySource(tt.proc))
		})
	}
}

func TestResumeSessionID(t *testing.T) {
	uuid := "fe580b5f-c6e2-4017-a29b-34008b9ad491"

	assert.Equal(t, uuid, ResumeSessionID([]string{"claude", "--resume", uuid}))
	assert.Equal(t, "", ResumeSessionID([]string{"claude"}))
	assert.Equal(t, "", ResumeSessionID([]string{"claude", "--resume"}))
	assert.Equal(t, "", ResumeSessionID([]string{"claude", "--resume", "short"}))

	// A malformed token does not stop the scan when a later resume flag
	// carries a well-formed id.
	assert.Equal(t, uuid, ResumeSessionID([]string{"claude", "--resume", "short", "--resume", uuid}))

	// Right length, wrong separator count.
	assert.Equal(t, "", ResumeSessionID([]string{"claude", "--resume", "fe580b5f-c6e2-4017-a29b_34008b9ad491"}))
}
