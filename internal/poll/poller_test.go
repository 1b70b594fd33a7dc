package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/fleet/config"
	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/models"
)

func testPoller(t *testing.T) *Poller {
	t.Helper()
	cfg := &config.Config{ClaudeDir: t.TempDir()}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestRunPassPublishes(t *testing.T) {
	p := testPoller(t)
	want := &models.FleetSnapshot{
		Sessions:    []models.SessionRecord{{ID: "1"}},
		GeneratedAt: time.Now(),
	}
	p.discover = func(ctx context.Context, now time.Time) (*models.FleetSnapshot, error) {
		return want, nil
	}

	ch := p.Subscribe()
	got, fresh := p.RunPass(context.Background())

	assert.True(t, fresh)
	assert.Same(t, want, got)
	assert.Same(t, want, p.Snapshot())

	select {
	case update := <-ch:
		assert.Same(t, want, update)
	default:
		t.Fatal("subscriber did not receive the snapshot")
	}
}

func TestRunPassFailureKeepsPreviousSnapshot(t *testing.T) {
	p := testPoller(t)
	want := &models.FleetSnapshot{GeneratedAt: time.Now()}
	p.discover = func(ctx context.Context, now time.Time) (*models.FleetSnapshot, error) {
		return want, nil
	}
	_, fresh := p.RunPass(context.Background())
	require.True(t, fresh)

	p.discover = func(ctx context.Context, now time.Time) (*models.FleetSnapshot, error) {
		return nil, errors.New(errors.ErrCodeInternal, "census failed")
	}
	got, fresh := p.RunPass(context.Background())

	assert.False(t, fresh)
	assert.Same(t, want, got)
	assert.Same(t, want, p.Snapshot())
}

func TestRunPassSingleFlight(t *testing.T) {
	p := testPoller(t)
	release := make(chan struct{})
	started := make(chan struct{})
	p.discover = func(ctx context.Context, now time.Time) (*models.FleetSnapshot, error) {
		close(started)
		<-release
		return &models.FleetSnapshot{GeneratedAt: now}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.RunPass(context.Background())
	}()
	<-started

	// A second pass while the first is in flight is dropped.
	got, fresh := p.RunPass(context.Background())
	assert.False(t, fresh)
	assert.Nil(t, got)

	close(release)
	wg.Wait()
	assert.NotNil(t, p.Snapshot())
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	p := testPoller(t)
	p.discover = func(ctx context.Context, now time.Time) (*models.FleetSnapshot, error) {
		return &models.FleetSnapshot{GeneratedAt: now}, nil
	}

	ch := p.Subscribe()
	for i := 0; i < subscriberBuffer+3; i++ {
		_, fresh := p.RunPass(context.Background())
		require.True(t, fresh)
	}

	// The lagging subscriber holds a full buffer; extra updates were dropped.
	assert.Len(t, ch, subscriberBuffer)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	p := testPoller(t)
	ch := p.Subscribe()
	p.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
}

func TestRefreshCoalesces(t *testing.T) {
	p := testPoller(t)
	p.Refresh()
	p.Refresh()
	p.Refresh()
	assert.Len(t, p.refresh, 1)
}

func TestRunLoopTicksUntilCanceled(t *testing.T) {
	p := testPoller(t)
	p.interval = 10 * time.Millisecond

	var passes atomic.Int32
	p.discover = func(ctx context.Context, now time.Time) (*models.FleetSnapshot, error) {
		passes.Add(1)
		return &models.FleetSnapshot{GeneratedAt: now}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return passes.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunHonorsRefreshRequests(t *testing.T) {
	p := testPoller(t)
	p.interval = time.Hour

	var passes atomic.Int32
	p.discover = func(ctx context.Context, now time.Time) (*models.FleetSnapshot, error) {
		passes.Add(1)
		return &models.FleetSnapshot{GeneratedAt: now}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool { return passes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	p.Refresh()
	require.Eventually(t, func() bool { return passes.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}
