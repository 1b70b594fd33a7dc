package sessions

import (
	"context"
	"path/filepath"
	"strconv"
	"time"

	"github.com/grovetools/fleet/git"
	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/pricing"
	"github.com/grovetools/fleet/pkg/process"
	"github.com/grovetools/fleet/pkg/transcript"
)

// Assembler composes process, transcript and branch signals into session
// records.
type Assembler struct {
	locator   *Locator
	branches  *git.Resolver
	tokensMax int
}

// NewAssembler wires an assembler. tokensMax is the context window used for
// usage percentages; zero disables them.
func NewAssembler(locator *Locator, branches *git.Resolver, tokensMax int) *Assembler {
	return &Assembler{locator: locator, branches: branches, tokensMax: tokensMax}
}

// Build assembles the record for one candidate process. A process without a
// locatable transcript still yields a basic record with an unknown status;
// the transcript only adds detail. Build never fails: every degradation
// (unreadable transcript, no branch, no cwd) narrows the record instead.
func (a *Assembler) Build(ctx context.Context, proc process.Snapshot, now time.Time) *models.SessionRecord {
	source := ClassifySource(proc)
	record := &models.SessionRecord{
		ID:         strconv.Itoa(proc.Pid),
		Pid:        proc.Pid,
		Source:     source,
		Status:     models.StatusUnknown,
		ProjectDir: proc.Cwd,
		StartedAt:  proc.StartedAt,
		Metrics: models.SessionMetrics{
			TokensMax: a.tokensMax,
			PlanType:  pricing.DetectPlanType(source),
		},
	}

	path := a.locator.Locate(proc)
	if path == "" {
		return record
	}

	tail := transcript.ReadTail(path)
	analysis := transcript.Analyze(tail, now)

	record.TranscriptPath = path
	record.Status = foldAgentStatus(source, analysis.Status)
	record.CurrentTask = analysis.CurrentTask
	record.CurrentFile = analysis.CurrentFile
	record.LastActivity = analysis.LastActivity
	record.RecentTools = analysis.RecentTools
	if record.ProjectDir == "" {
		record.ProjectDir = filepath.Dir(path)
	}
	record.Branch = a.branches.CurrentBranch(ctx, record.ProjectDir)

	record.Metrics.TokensUsed = analysis.TokensUsed
	record.Metrics.TasksCompleted = analysis.TasksCompleted
	record.Metrics.TasksTotal = analysis.TasksTotal
	record.Metrics.RequestsPerHour = analysis.RequestsPerHour
	if record.Metrics.PlanType == models.PlanPayPerToken {
		record.Metrics.CostDollars = pricing.EstimateCost(analysis.TokensUsed, 0, pricing.DefaultModel)
	}
	return record
}

// foldAgentStatus maps working agent sessions onto the background status.
// Agents run without a terminal, so active and thinking both just mean
// "working unattended"; idle and blocked stay visible as-is because they
// are the states an operator needs to notice.
func foldAgentStatus(source models.Source, status models.Status) models.Status {
	if source != models.SourceAgent {
		return status
	}
	switch status {
	case models.StatusActive, models.StatusThinking:
		return models.StatusBackground
	}
	return status
}
