// Package hooks owns the enrichment side-channel: per-session status
// documents in a shared directory, registration of the PostToolUse
// reporter into the Claude settings document, and cleanup of stale state.
//
// The directory is shared across process trees (fleet polls it, hook
// subprocesses write to it), so every mutation goes through one protocol:
// flock on a sibling lock file, write to a fresh temp file in the same
// directory, sync, then atomic rename. Readers never lock and never see a
// partial document.
package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/paths"
	"github.com/grovetools/fleet/util/sanitize"
)

// Store reads and writes enrichment status documents in one directory,
// named {sessionID}.json.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. An empty dir selects the
// default enrichment directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = paths.FleetDir()
	}
	return &Store{dir: dir}
}

// Dir returns the enrichment directory.
func (s *Store) Dir() string { return s.dir }

// Read returns the status document for sessionID, or nil when the file is
// missing, malformed, or the reserved config name. Malformed documents
// are never an error here; the reaper removes them later.
//
// Session ids come from hook environments, so they are sanitized before
// touching the filesystem; Write applies the same mapping.
func (s *Store) Read(sessionID string) *StatusDoc {
	stem := sanitize.ForFilename(sessionID)
	if stem == "" {
		return nil
	}
	name := stem + ".json"
	if name == ReservedConfigName {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil
	}
	var doc StatusDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return &doc
}

// Write persists doc as {SessionID}.json under the atomic-write protocol.
// A failed write leaves any previous document untouched.
func (s *Store) Write(doc *StatusDoc) error {
	if doc == nil || doc.SessionID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "status document needs a session id")
	}
	stem := sanitize.ForFilename(doc.SessionID)
	if stem == "" {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("session id %q has no usable filename characters", doc.SessionID)).
			WithDetail("session_id", doc.SessionID)
	}
	name := stem + ".json"
	if name == ReservedConfigName {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s is reserved and cannot hold session status", ReservedConfigName))
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStatusWriteFailed, "failed to encode status document")
	}
	if err := atomicWriteJSON(filepath.Join(s.dir, name), payload); err != nil {
		return errors.Wrap(err, errors.ErrCodeStatusWriteFailed,
			fmt.Sprintf("failed to write status document for session %s", doc.SessionID)).
			WithDetail("session_id", doc.SessionID)
	}
	return nil
}

// atomicWriteJSON writes payload to path so that readers observe either
// the old document or the new one, never a mix. The exclusive flock on
// the sibling lock file serializes writers across processes; the lock is
// released on every exit path.
func atomicWriteJSON(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	lock, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer lock.Close()
	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(lock.Fd()), unix.LOCK_UN)

	tmp, err := os.CreateTemp(dir, ".fleet-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
