package sessions

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/fleet/git"
	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/pricing"
	"github.com/grovetools/fleet/pkg/process"
)

// echoExecutor substitutes every command with echo, so branch lookups
// resolve to a fixed name without a real git repository.
type echoExecutor struct {
	output string
}

func (e *echoExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command("echo", e.output)
}

func (e *echoExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "echo", e.output)
}

func toolUseLine(ts time.Time, id, name, inputKey, inputVal string) string {
	return fmt.Sprintf(`{"type":"assistant","timestamp":%q,"message":{"content":[{"type":"tool_use","id":%q,"name":%q,"input":{%q:%q}}]}}`,
		ts.Format(time.RFC3339), id, name, inputKey, inputVal)
}

func toolResultLine(ts time.Time, toolUseID string) string {
	return fmt.Sprintf(`{"type":"user","timestamp":%q,"message":{"content":[{"type":"tool_result","tool_use_id":%q,"content":"ok"}]}}`,
		ts.Format(time.RFC3339), toolUseID)
}

func newTestAssembler(root string, tokensMax int) *Assembler {
	branches := git.NewResolverWithExecutor(&echoExecutor{output: "main"}, time.Second)
	return NewAssembler(NewLocator(root), branches, tokensMax)
}

func TestBuildWithoutTranscript(t *testing.T) {
	now := time.Now().UTC()
	started := now.Add(-time.Hour)
	a := newTestAssembler(t.TempDir(), 200_000)

	proc := process.Snapshot{Pid: 42, Comm: "claude", Argv: []string{"claude"}, Cwd: "/work/api", StartedAt: started}
	rec := a.Build(context.Background(), proc, now)

	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, 42, rec.Pid)
	assert.Equal(t, models.SourceCLI, rec.Source)
	assert.Equal(t, models.StatusUnknown, rec.Status)
	assert.Equal(t, "/work/api", rec.ProjectDir)
	assert.True(t, rec.StartedAt.Equal(started))
	assert.Equal(t, "", rec.TranscriptPath)
	// No transcript means no branch lookup at all.
	assert.Equal(t, "", rec.Branch)
	assert.Equal(t, 200_000, rec.Metrics.TokensMax)
	assert.Equal(t, models.PlanSubscription, rec.Metrics.PlanType)
	assert.Zero(t, rec.Metrics.TokensUsed)
	assert.Empty(t, rec.RecentTools)
}

func TestBuildFullRecord(t *testing.T) {
	now := time.Now().UTC()
	started := now.Add(-time.Hour)
	root := t.TempDir()
	cwd := t.TempDir()
	uuid := "fe580b5f-c6e2-4017-a29b-34008b9ad491"

	content := strings.Join([]string{
		toolUseLine(now.Add(-8*time.Second), "tu_1", "Edit", "file_path", "/src/api/server.go"),
		toolResultLine(now.Add(-5*time.Second), "tu_1"),
	}, "\n") + "\n"

	path := writeTranscript(t, root, "-home-u-api", uuid+".jsonl", now.Add(-time.Minute))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, now.Add(-time.Minute), now.Add(-time.Minute)))

	a := newTestAssembler(root, 200_000)
	proc := process.Snapshot{Pid: 4242, Comm: "claude", Argv: []string{"claude", "--resume", uuid}, Cwd: cwd, StartedAt: started}
	rec := a.Build(context.Background(), proc, now)

	assert.Equal(t, models.SourceCLI, rec.Source)
	assert.Equal(t, models.StatusActive, rec.Status)
	assert.Equal(t, "server.go", rec.CurrentFile)
	assert.Equal(t, path, rec.TranscriptPath)
	assert.Equal(t, cwd, rec.ProjectDir)
	assert.Equal(t, "main", rec.Branch)
	assert.WithinDuration(t, now.Add(-5*time.Second), rec.LastActivity, time.Second)

	assert.Equal(t, pricing.EstimateTokensFromBytes(int64(len(content))), rec.Metrics.TokensUsed)
	assert.Equal(t, models.PlanSubscription, rec.Metrics.PlanType)
	assert.Zero(t, rec.Metrics.CostDollars)

	require.Len(t, rec.RecentTools, 1)
	assert.Equal(t, "Edit server.go", rec.RecentTools[0].Summary)
	require.NotNil(t, rec.RecentTools[0].DurationMs)
	assert.Equal(t, int64(3000), *rec.RecentTools[0].DurationMs)
}

func TestBuildProjectDirFallsBackToTranscriptDir(t *testing.T) {
	now := time.Now().UTC()
	root := t.TempDir()
	uuid := "fe580b5f-c6e2-4017-a29b-34008b9ad491"

	path := writeTranscript(t, root, "-home-u-api", uuid+".jsonl", now.Add(-time.Minute))

	a := newTestAssembler(root, 200_000)
	proc := process.Snapshot{Pid: 7, Comm: "claude", Argv: []string{"claude", "--resume", uuid}, StartedAt: now.Add(-time.Hour)}
	rec := a.Build(context.Background(), proc, now)

	assert.Equal(t, filepath.Dir(path), rec.ProjectDir)
}

func TestBuildAgentFoldsWorkingStatus(t *testing.T) {
	now := time.Now().UTC()
	root := t.TempDir()

	content := toolResultLine(now.Add(-5*time.Second), "tu_1") + "\n"
	path := writeTranscript(t, root, "-home-u-api", "aaaa0000-1111-2222-3333-444455556666.jsonl", now.Add(-time.Minute))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, now.Add(-time.Minute), now.Add(-time.Minute)))

	a := newTestAssembler(root, 200_000)
	proc := process.Snapshot{Pid: 9, Comm: "claude", Argv: []string{"claude", "--resume", "agent0001"}, StartedAt: now.Add(-time.Hour)}
	rec := a.Build(context.Background(), proc, now)

	assert.Equal(t, models.SourceAgent, rec.Source)
	assert.Equal(t, models.StatusBackground, rec.Status)
	assert.Equal(t, models.PlanSubscription, rec.Metrics.PlanType)
}

func TestBuildPayPerTokenCost(t *testing.T) {
	now := time.Now().UTC()
	root := t.TempDir()

	content := toolResultLine(now.Add(-5*time.Second), "tu_1") + "\n"
	path := writeTranscript(t, root, "-home-u-bot", "bbbb0000-1111-2222-3333-444455556666.jsonl", now.Add(-time.Minute))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, now.Add(-time.Minute), now.Add(-time.Minute)))

	a := newTestAssembler(root, 200_000)
	proc := process.Snapshot{Pid: 11, Comm: "python3", Argv: []string{"python3", "bot.py"}, StartedAt: now.Add(-time.Hour)}
	rec := a.Build(context.Background(), proc, now)

	assert.Equal(t, models.SourceAPI, rec.Source)
	assert.Equal(t, models.PlanPayPerToken, rec.Metrics.PlanType)
	assert.Greater(t, rec.Metrics.CostDollars, 0.0)
	assert.InDelta(t, pricing.EstimateCost(rec.Metrics.TokensUsed, 0, pricing.DefaultModel), rec.Metrics.CostDollars, 1e-12)
}

func TestFoldAgentStatus(t *testing.T) {
	assert.Equal(t, models.StatusBackground, foldAgentStatus(models.SourceAgent, models.StatusActive))
	assert.Equal(t, models.StatusBackground, foldAgentStatus(models.SourceAgent, models.StatusThinking))
	assert.Equal(t, models.StatusIdle, foldAgentStatus(models.SourceAgent, models.StatusIdle))
	assert.Equal(t, models.StatusBlocked, foldAgentStatus(models.SourceAgent, models.StatusBlocked))
	assert.Equal(t, models.StatusActive, foldAgentStatus(models.SourceCLI, models.StatusActive))
}
