package poll

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/fleet/logging"
)

// Watcher observes the enrichment directory and triggers early refreshes
// when status documents change, so hook updates land on the dashboard
// before the next scheduled tick.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	logger   *logrus.Entry

	mu       sync.Mutex
	lastFire time.Time
}

// NewWatcher watches dir for status document changes. The directory is
// created if missing so the watch can be established before the first
// reporter writes.
func NewWatcher(dir string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		logger:   logging.NewLogger("enrichment-watcher"),
	}, nil
}

// Run processes events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) == 0 {
				continue
			}
			// Lock siblings and in-flight temp files churn on every write;
			// only a completed status document counts as a change.
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			w.handleChange(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Watcher error")
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// handleChange fires the callback, absorbing bursts within the debounce
// window: a session writing several documents in quick succession triggers
// one refresh.
func (w *Watcher) handleChange(file string) {
	w.mu.Lock()
	if time.Since(w.lastFire) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.lastFire = time.Now()
	w.mu.Unlock()

	w.logger.WithField("file", file).Debug("Enrichment change, requesting refresh")
	if w.onChange != nil {
		w.onChange()
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
