// Package profiling times the phases of fleet operations. It is wired to
// the --timing flag: disabled it costs a single atomic-free branch per
// phase, enabled it records a chronological log of named spans that
// Summarize prints on exit.
//
// Spans must start and stop on one goroutine, well nested (defer). The
// discovery pass instruments its sequential phases, not the per-session
// workers inside them.
package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span, typically via defer.
type Stopper interface {
	Stop()
}

// record is one completed or running span in start order.
type record struct {
	name     string
	depth    int
	start    time.Time
	duration time.Duration
}

// Profiler collects spans for one process lifetime.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	began   time.Time
	depth   int
	records []*record
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler. Spans started before Enable are
// not recorded.
func Enable() {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()

	if defaultProfiler.enabled {
		return
	}
	defaultProfiler.enabled = true
	defaultProfiler.began = time.Now()
}

// Start begins a named span and returns its Stopper.
func Start(name string) Stopper {
	if !defaultProfiler.enabled {
		return noopStopper{}
	}
	return defaultProfiler.start(name)
}

// Summarize prints the recorded spans in start order, indented by nesting
// depth, with each span's share of the elapsed time since Enable. Prints
// nothing when profiling is off.
func Summarize(w io.Writer) {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()

	if !defaultProfiler.enabled || len(defaultProfiler.records) == 0 {
		return
	}

	total := time.Since(defaultProfiler.began)
	fmt.Fprintf(w, "\n--- Timing (total %v) ---\n", total.Round(100*time.Microsecond))
	for _, r := range defaultProfiler.records {
		pct := 0.0
		if total > 0 {
			pct = float64(r.duration) / float64(total) * 100
		}
		indent := strings.Repeat("  ", r.depth)
		fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", indent, r.name, r.duration.Round(100*time.Microsecond), pct)
	}
	fmt.Fprintln(w, "------------------------")
}

func (p *Profiler) start(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return noopStopper{}
	}
	r := &record{name: name, depth: p.depth, start: time.Now()}
	p.records = append(p.records, r)
	p.depth++
	return &running{profiler: p, rec: r}
}

func (p *Profiler) stop(r *record) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r.duration = time.Since(r.start)
	if p.depth > 0 {
		p.depth--
	}
}

// reset clears all state, for tests.
func (p *Profiler) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
	p.depth = 0
	p.records = nil
}

type running struct {
	profiler *Profiler
	rec      *record
}

func (s *running) Stop() {
	s.profiler.stop(s.rec)
}

// noopStopper is returned while the profiler is disabled.
type noopStopper struct{}

func (noopStopper) Stop() {}
