package client

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/fleet/config"
	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/internal/server"
	"github.com/grovetools/fleet/pkg/models"
)

type stubSource struct {
	mu       sync.Mutex
	snapshot *models.FleetSnapshot
	subs     map[chan *models.FleetSnapshot]struct{}
}

func newStubSource() *stubSource {
	return &stubSource{subs: make(map[chan *models.FleetSnapshot]struct{})}
}

func (s *stubSource) Snapshot() *models.FleetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *stubSource) Subscribe() chan *models.FleetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan *models.FleetSnapshot, 4)
	s.subs[ch] = struct{}{}
	return ch
}

func (s *stubSource) Unsubscribe(ch chan *models.FleetSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *stubSource) publish(snapshot *models.FleetSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	for ch := range s.subs {
		ch <- snapshot
	}
}

func stubSnapshot() *models.FleetSnapshot {
	return &models.FleetSnapshot{
		Sessions: []models.SessionRecord{
			{ID: "101", Pid: 101, Source: models.SourceCLI, Status: models.StatusActive, ProjectDir: "/home/dev/api"},
			{ID: "202", Pid: 202, Source: models.SourceDesktop, Status: models.StatusIdle, ProjectDir: "/home/dev/web"},
		},
		BudgetMonthly: 50,
		GeneratedAt:   time.Now().UTC(),
	}
}

// startServer runs a fleet server on a temp socket and returns its path.
// Shutdown is registered as test cleanup.
func startServer(t *testing.T, source server.SnapshotSource) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "fleet.sock")
	srv := server.New(source)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(socketPath) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(socketPath)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		<-errCh
	})

	return socketPath
}

func testConfig(t *testing.T, socketPath string) *config.Config {
	t.Helper()
	return &config.Config{
		ClaudeDir: t.TempDir(),
		Server:    &config.ServerConfig{Socket: socketPath},
	}
}

func TestRemoteFleet(t *testing.T) {
	source := newStubSource()
	source.publish(stubSnapshot())
	socketPath := startServer(t, source)

	remote, err := NewRemote(socketPath)
	require.NoError(t, err)
	defer remote.Close()

	snapshot, err := remote.Fleet(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Sessions, 2)
	assert.Equal(t, 50.0, snapshot.BudgetMonthly)
}

func TestRemoteSessions(t *testing.T) {
	source := newStubSource()
	source.publish(stubSnapshot())
	socketPath := startServer(t, source)

	remote, err := NewRemote(socketPath)
	require.NoError(t, err)
	defer remote.Close()

	sessions, err := remote.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "101", sessions[0].ID)
}

func TestRemoteFleetBeforeFirstPass(t *testing.T) {
	socketPath := startServer(t, newStubSource())

	remote, err := NewRemote(socketPath)
	require.NoError(t, err)
	defer remote.Close()

	_, err = remote.Fleet(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeServerUnavailable, errors.GetCode(err))
}

func TestRemoteFleetServerGone(t *testing.T) {
	remote, err := NewRemote(filepath.Join(t.TempDir(), "absent.sock"))
	require.NoError(t, err)
	defer remote.Close()

	_, err = remote.Fleet(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeServerUnavailable, errors.GetCode(err))
}

func TestRemoteIsRunning(t *testing.T) {
	socketPath := startServer(t, newStubSource())

	remote, err := NewRemote(socketPath)
	require.NoError(t, err)
	defer remote.Close()
	assert.True(t, remote.IsRunning())

	gone, err := NewRemote(filepath.Join(t.TempDir(), "absent.sock"))
	require.NoError(t, err)
	defer gone.Close()
	assert.False(t, gone.IsRunning())
}

func TestRemoteStream(t *testing.T) {
	source := newStubSource()
	source.publish(stubSnapshot())
	socketPath := startServer(t, source)

	remote, err := NewRemote(socketPath)
	require.NoError(t, err)
	defer remote.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := remote.Stream(ctx)
	require.NoError(t, err)

	select {
	case first := <-updates:
		assert.Len(t, first.Sessions, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot on the stream")
	}

	next := stubSnapshot()
	next.Sessions = next.Sessions[:1]
	source.publish(next)

	select {
	case second := <-updates:
		assert.Len(t, second.Sessions, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("published snapshot never arrived")
	}

	cancel()
	select {
	case _, ok := <-updates:
		assert.False(t, ok, "channel should close after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("stream channel did not close after cancel")
	}
}

func TestLocalStreamUnavailable(t *testing.T) {
	local, err := NewLocal(testConfig(t, filepath.Join(t.TempDir(), "absent.sock")))
	require.NoError(t, err)
	defer local.Close()

	_, err = local.Stream(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeServerUnavailable, errors.GetCode(err))
	assert.True(t, local.IsRunning())
}

func TestFactoryPrefersServer(t *testing.T) {
	socketPath := startServer(t, newStubSource())

	c, err := New(testConfig(t, socketPath))
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*Remote)
	assert.True(t, ok, "expected a remote client while the server runs")
}

func TestFactoryFallsBackToLocal(t *testing.T) {
	c, err := New(testConfig(t, filepath.Join(t.TempDir(), "absent.sock")))
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*Local)
	assert.True(t, ok, "expected a local client without the server")
}

func TestSocketAlive(t *testing.T) {
	assert.False(t, SocketAlive(filepath.Join(t.TempDir(), "absent.sock")))

	socketPath := startServer(t, newStubSource())
	assert.True(t, SocketAlive(socketPath))
}
