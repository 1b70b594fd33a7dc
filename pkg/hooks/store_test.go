package hooks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/fleet/errors"
)

func TestWriteReadRoundtrip(t *testing.T) {
	store := NewStore(t.TempDir())
	completed := 3
	total := 7
	doc := &StatusDoc{
		SessionID:      "4242",
		Pid:            4242,
		Timestamp:      "2025-06-01T12:00:00Z",
		ProjectDir:     "/home/dev/api",
		CurrentTask:    "wire the reaper",
		TasksCompleted: &completed,
		TasksTotal:     &total,
	}
	require.NoError(t, store.Write(doc))

	got := store.Read("4242")
	require.NotNil(t, got)
	assert.Equal(t, doc, got)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Write(&StatusDoc{SessionID: "77", Pid: 77, Timestamp: "2025-06-01T12:00:00Z"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	// Only the document and its lock file; every temp file is gone.
	assert.ElementsMatch(t, []string{"77.json", "77.json.lock"}, names)

	data, err := os.ReadFile(filepath.Join(dir, "77.json"))
	require.NoError(t, err)
	var onDisk StatusDoc
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, 77, onDisk.Pid)
}

func TestWriteOverwritesPrevious(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Write(&StatusDoc{SessionID: "9", Pid: 9, Timestamp: "2025-06-01T12:00:00Z", CurrentTask: "first"}))
	require.NoError(t, store.Write(&StatusDoc{SessionID: "9", Pid: 9, Timestamp: "2025-06-01T12:00:05Z", CurrentTask: "second"}))

	got := store.Read("9")
	require.NotNil(t, got)
	assert.Equal(t, "second", got.CurrentTask)
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "fleet")
	store := NewStore(dir)
	require.NoError(t, store.Write(&StatusDoc{SessionID: "5", Pid: 5, Timestamp: "2025-06-01T12:00:00Z"}))
	assert.NotNil(t, store.Read("5"))
}

func TestWriteValidation(t *testing.T) {
	store := NewStore(t.TempDir())

	err := store.Write(&StatusDoc{Pid: 10})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))

	err = store.Write(&StatusDoc{SessionID: "config", Pid: 10})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestReadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.Nil(t, store.Read("600"))
	assert.Nil(t, store.Read(""))
}

func TestReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "31.json"), []byte("{broken"), 0644))
	assert.Nil(t, NewStore(dir).Read("31"))
}

func TestReadReservedName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ReservedConfigName), []byte(`{"pid": 1}`), 0644))
	assert.Nil(t, NewStore(dir).Read("config"))
}

func TestSessionIDCannotTraverse(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "fleet")
	store := NewStore(dir)

	// A hostile id collapses into a plain stem inside the store directory.
	require.NoError(t, store.Write(&StatusDoc{SessionID: "../../escape", Pid: 9}))
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fleet", entries[0].Name())
	assert.FileExists(t, filepath.Join(dir, "escape.json"))

	// Read applies the same mapping, so the roundtrip still works.
	doc := store.Read("../../escape")
	require.NotNil(t, doc)
	assert.Equal(t, 9, doc.Pid)

	// And a sibling file outside the store stays out of reach.
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.json"), []byte(`{"pid": 1}`), 0644))
	assert.Nil(t, store.Read("../secret"))
}

func TestWriteRejectsUnusableSessionID(t *testing.T) {
	store := NewStore(t.TempDir())
	err := store.Write(&StatusDoc{SessionID: "!!!", Pid: 10})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestConcurrentWritersNeverCorrupt(t *testing.T) {
	store := NewStore(t.TempDir())
	tasks := []string{
		"alpha " + strings.Repeat("a", 4096),
		"omega " + strings.Repeat("z", 4096),
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task string) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_ = store.Write(&StatusDoc{
					SessionID:   "301",
					Pid:         301,
					Timestamp:   "2025-06-01T12:00:00Z",
					CurrentTask: task,
				})
			}
		}(task)
	}
	wg.Wait()

	got := store.Read("301")
	require.NotNil(t, got)
	assert.Contains(t, tasks, got.CurrentTask)
}

func TestDeployScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet", "post_tool_use.sh")
	require.NoError(t, DeployScript(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#!/bin/bash"))
	assert.Contains(t, string(data), "fleet hook report")
}

func TestReport(t *testing.T) {
	store := NewStore(t.TempDir())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := strings.NewReader(`{"tool":"Edit","context":{"project_dir":"/home/dev/api","current_task":"refactor router","tasks_completed":2,"tasks_total":5}}`)

	require.NoError(t, store.Report("812", 812, payload, now))

	doc := store.Read("812")
	require.NotNil(t, doc)
	assert.Equal(t, 812, doc.Pid)
	assert.Equal(t, "2025-06-01T12:00:00Z", doc.Timestamp)
	assert.Equal(t, "Edit", doc.ToolName)
	assert.Equal(t, "refactor router", doc.CurrentTask)
	require.NotNil(t, doc.TasksCompleted)
	assert.Equal(t, 2, *doc.TasksCompleted)
	require.NotNil(t, doc.TasksTotal)
	assert.Equal(t, 5, *doc.TasksTotal)
}

func TestReportGarbagePayload(t *testing.T) {
	store := NewStore(t.TempDir())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Report("813", 813, strings.NewReader("not json"), now))

	doc := store.Read("813")
	require.NotNil(t, doc)
	assert.Equal(t, 813, doc.Pid)
	assert.NotEmpty(t, doc.Timestamp)
	assert.Empty(t, doc.CurrentTask)
	assert.Nil(t, doc.TasksCompleted)
}
