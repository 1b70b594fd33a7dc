package sessions

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/moby/patternmatcher"

	"github.com/grovetools/fleet/git"
	"github.com/grovetools/fleet/pkg/hooks"
	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/process"
	"github.com/grovetools/fleet/pkg/profiling"
)

// Options configures a discovery pipeline. Zero values fall back to the
// per-user defaults, so an empty Options is a working production setup.
type Options struct {
	// TranscriptRoot overrides the transcript log root.
	TranscriptRoot string
	// EnrichmentDir overrides the enrichment side-file directory.
	EnrichmentDir string
	// BranchTimeout bounds each git branch lookup.
	BranchTimeout time.Duration
	// TokensMax is the context window used for usage percentages.
	TokensMax int
	// DefaultBudget is the monthly budget assumed when none is recorded.
	DefaultBudget float64
	// Workers caps concurrent session assemblies per pass.
	Workers int
	// Exclude hides sessions whose project directory matches.
	Exclude *patternmatcher.PatternMatcher
	// Snapshotter supplies the process census; nil means process.List.
	Snapshotter process.Snapshotter
}

// Discoverer runs full discovery passes: process census, per-session
// assembly, enrichment merge, stale-state reaping and aggregation.
// Discoverers hold no cross-pass state; every pass rebuilds the fleet
// from scratch.
type Discoverer struct {
	snapshot      process.Snapshotter
	assembler     *Assembler
	store         *hooks.Store
	exclude       *patternmatcher.PatternMatcher
	workers       int
	defaultBudget float64
}

// NewDiscoverer wires a discovery pipeline from options.
func NewDiscoverer(opts Options) *Discoverer {
	locator := NewLocator(opts.TranscriptRoot)
	branches := git.NewResolver(opts.BranchTimeout)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	snapshot := opts.Snapshotter
	if snapshot == nil {
		snapshot = process.List
	}
	return &Discoverer{
		snapshot:      snapshot,
		assembler:     NewAssembler(locator, branches, opts.TokensMax),
		store:         hooks.NewStore(opts.EnrichmentDir),
		exclude:       opts.Exclude,
		workers:       workers,
		defaultBudget: opts.DefaultBudget,
	}
}

// Store returns the enrichment store this discoverer reads from.
func (d *Discoverer) Store() *hooks.Store { return d.store }

// Discover runs one pass and returns the fleet snapshot. Individual session
// failures degrade that session's record; the pass as a whole only fails
// when the process census itself does.
func (d *Discoverer) Discover(ctx context.Context, now time.Time) (*models.FleetSnapshot, error) {
	defer profiling.Start("discovery.Discover").Stop()

	census := profiling.Start("discovery.census")
	procs, err := d.snapshot()
	census.Stop()
	if err != nil {
		return nil, err
	}
	candidates := FilterCandidates(procs)
	records := d.assemble(ctx, candidates, now)

	budget, ok := d.store.ReadBudget()
	if !ok {
		budget = d.defaultBudget
	}
	for _, rec := range records {
		if rec.Metrics.PlanType == models.PlanPayPerToken {
			rec.Metrics.BudgetDollars = budget
		}
	}

	// Enrichment files belong to discovered sessions, so liveness for the
	// reaper means "owned by a current candidate", not merely "pid exists".
	live := make(map[int]bool, len(candidates))
	for _, p := range candidates {
		live[p.Pid] = true
	}
	d.store.Reap(live)

	records = ExcludeProjects(records, d.exclude)
	SortByActivity(records)
	return BuildSnapshot(records, budget, now), nil
}

// assemble fans candidate processes out over the worker pool and collects
// their records in census order.
func (d *Discoverer) assemble(ctx context.Context, procs []process.Snapshot, now time.Time) []*models.SessionRecord {
	defer profiling.Start("discovery.assemble").Stop()

	records := make([]*models.SessionRecord, len(procs))
	jobs := make(chan int)

	workers := d.workers
	if workers > len(procs) {
		workers = len(procs)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec := d.assembler.Build(ctx, procs[i], now)
				d.enrich(rec, procs[i])
				records[i] = rec
			}
		}()
	}
	for i := range procs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return records
}

// enrich merges the session's enrichment document, if any. Documents are
// keyed by the record id (the pid), with the resume session id as a fallback
// for reporters that key by the transcript's UUID instead.
func (d *Discoverer) enrich(rec *models.SessionRecord, proc process.Snapshot) {
	doc := d.store.Read(rec.ID)
	if doc == nil {
		if id := ResumeSessionID(proc.Argv); id != "" {
			doc = d.store.Read(id)
		}
	}
	if doc == nil {
		return
	}
	hooks.Merge(rec, doc)
}

// ExcludeProjects drops records whose project directory matches the exclude
// patterns. A nil matcher keeps everything.
func ExcludeProjects(records []*models.SessionRecord, matcher *patternmatcher.PatternMatcher) []*models.SessionRecord {
	if matcher == nil {
		return records
	}
	kept := records[:0]
	for _, rec := range records {
		if rec.ProjectDir != "" {
			rel := strings.TrimPrefix(filepath.ToSlash(rec.ProjectDir), "/")
			if matched, err := matcher.MatchesOrParentMatches(rel); err == nil && matched {
				continue
			}
		}
		kept = append(kept, rec)
	}
	return kept
}

// SortByActivity orders records most recently active first. Records without
// an activity timestamp fall back to their start time, and records with
// neither sort last. Pid breaks ties so a pass over the same fleet always
// yields one order.
func SortByActivity(records []*models.SessionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := activityKey(records[i]), activityKey(records[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return records[i].Pid < records[j].Pid
	})
}

func activityKey(rec *models.SessionRecord) time.Time {
	if !rec.LastActivity.IsZero() {
		return rec.LastActivity
	}
	return rec.StartedAt
}

// BuildSnapshot assembles the aggregate fleet view from assembled records.
// Spend is recomputed from the current record set every pass, never
// accumulated.
func BuildSnapshot(records []*models.SessionRecord, budget float64, now time.Time) *models.FleetSnapshot {
	snapshot := &models.FleetSnapshot{
		Sessions:      make([]models.SessionRecord, 0, len(records)),
		BudgetMonthly: budget,
		GeneratedAt:   now,
	}
	for _, rec := range records {
		snapshot.Sessions = append(snapshot.Sessions, *rec)
		if rec.Metrics.PlanType == models.PlanPayPerToken {
			snapshot.SpentMonthly += rec.Metrics.CostDollars
		}
	}
	return snapshot
}
