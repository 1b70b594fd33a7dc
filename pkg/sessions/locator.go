package sessions

import (
	"os"
	"path/filepath"
	"time"

	"github.com/grovetools/fleet/pkg/paths"
	"github.com/grovetools/fleet/pkg/process"
)

const transcriptExt = ".jsonl"

// Locator maps a session process to its transcript file under the log root.
// Transcripts live at {root}/{project-hash}/{session-id}.jsonl.
type Locator struct {
	root string
}

// NewLocator returns a locator over root, defaulting to the per-user
// transcript root when root is empty.
func NewLocator(root string) *Locator {
	if root == "" {
		root = paths.TranscriptRoot()
	}
	return &Locator{root: root}
}

// Locate returns the transcript path for proc, or "" when none matches.
// A resume session id pins the file directly; otherwise the most recently
// modified transcript newer than the process counts as its session. Absence
// is a normal outcome: the desktop app writes no transcript, and a
// just-started CLI may not have flushed its first line yet.
func (l *Locator) Locate(proc process.Snapshot) string {
	if _, err := os.Stat(l.root); err != nil {
		return ""
	}
	if id := ResumeSessionID(proc.Argv); id != "" {
		if path := l.findByID(id, proc.StartedAt); path != "" {
			return path
		}
	}
	return l.newestSince(proc.StartedAt)
}

// findByID searches for {id}.jsonl modified at or after since. The mtime
// check guards against matching a stale file from a previous run that
// happened to reuse the same session id.
func (l *Locator) findByID(id string, since time.Time) string {
	want := id + transcriptExt
	found := ""
	filepath.Walk(l.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if info.Name() != want || info.ModTime().Before(since) {
			return nil
		}
		found = path
		return filepath.SkipAll
	})
	return found
}

// newestSince returns the most recently modified transcript whose mtime is
// at or after since, or "".
func (l *Locator) newestSince(since time.Time) string {
	best := ""
	var bestMtime time.Time
	filepath.Walk(l.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if filepath.Ext(path) != transcriptExt {
			return nil
		}
		mtime := info.ModTime()
		if mtime.Before(since) {
			return nil
		}
		if best == "" || mtime.After(bestMtime) {
			best, bestMtime = path, mtime
		}
		return nil
	})
	return best
}
