package dashboard

import (
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/models"
)

type fakeProvider struct {
	mu        sync.Mutex
	snapshot  *models.FleetSnapshot
	subs      map[chan *models.FleetSnapshot]struct{}
	refreshed int
}

func newFakeProvider(snapshot *models.FleetSnapshot) *fakeProvider {
	return &fakeProvider{snapshot: snapshot, subs: make(map[chan *models.FleetSnapshot]struct{})}
}

func (f *fakeProvider) Snapshot() *models.FleetSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeProvider) Subscribe() chan *models.FleetSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan *models.FleetSnapshot, 4)
	f.subs[ch] = struct{}{}
	return ch
}

func (f *fakeProvider) Unsubscribe(ch chan *models.FleetSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
}

func (f *fakeProvider) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed++
}

func threeSessions() *models.FleetSnapshot {
	return &models.FleetSnapshot{
		Sessions: []models.SessionRecord{
			{ID: "1", Pid: 1, ProjectDir: "/home/dev/zeta", Metrics: models.SessionMetrics{TokensUsed: 100}},
			{ID: "2", Pid: 2, ProjectDir: "/home/dev/alpha", Metrics: models.SessionMetrics{TokensUsed: 9000}},
			{ID: "3", Pid: 3, ProjectDir: "/home/dev/mid", Metrics: models.SessionMetrics{TokensUsed: 500}},
		},
	}
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestApplySnapshotKeepsSelection(t *testing.T) {
	m := New(newFakeProvider(threeSessions()), Actions{})
	m.cursor = 1
	m.syncSelection()
	require.Equal(t, "2", m.selectedID)

	// Session 2 moves to the front on the next pass.
	m.applySnapshot(&models.FleetSnapshot{
		Sessions: []models.SessionRecord{
			{ID: "2", Pid: 2},
			{ID: "1", Pid: 1},
		},
	})

	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, "2", m.selectedID)
}

func TestApplySnapshotClampsCursorWhenSelectionGone(t *testing.T) {
	m := New(newFakeProvider(threeSessions()), Actions{})
	m.cursor = 2
	m.syncSelection()

	m.applySnapshot(&models.FleetSnapshot{
		Sessions: []models.SessionRecord{{ID: "1", Pid: 1}},
	})

	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, "1", m.selectedID)
}

func TestSortModes(t *testing.T) {
	m := New(newFakeProvider(threeSessions()), Actions{})

	m.sort = sortTokens
	m.applySnapshot(threeSessions())
	assert.Equal(t, "2", m.sessions[0].ID, "highest token count first")

	m.sort = sortProject
	m.applySnapshot(threeSessions())
	assert.Equal(t, "2", m.sessions[0].ID, "alpha sorts first")
	assert.Equal(t, "3", m.sessions[1].ID)
	assert.Equal(t, "1", m.sessions[2].ID)

	m.sort = sortActivity
	m.applySnapshot(threeSessions())
	assert.Equal(t, "1", m.sessions[0].ID, "activity mode keeps snapshot order")
}

func TestSortKeyCycles(t *testing.T) {
	m := New(newFakeProvider(threeSessions()), Actions{})
	m.ready = true

	_, _ = m.handleKey(keyPress('s'))
	assert.Equal(t, sortTokens, m.sort)
	assert.Equal(t, "Sort: tokens", m.notice.text)

	_, _ = m.handleKey(keyPress('s'))
	assert.Equal(t, sortProject, m.sort)

	_, _ = m.handleKey(keyPress('s'))
	assert.Equal(t, sortActivity, m.sort)
}

func TestSetSortByName(t *testing.T) {
	m := New(newFakeProvider(threeSessions()), Actions{})

	m.setSortByName("tokens")
	assert.Equal(t, sortTokens, m.sort)
	assert.Equal(t, "2", m.sessions[0].ID)

	m.setSortByName("unknown")
	assert.Equal(t, sortActivity, m.sort)
}

func TestKillRequiresConfirmation(t *testing.T) {
	killed := 0
	m := New(newFakeProvider(threeSessions()), Actions{
		Kill: func(pid int) error { killed = pid; return nil },
	})

	_, _ = m.handleKey(keyPress('k'))
	require.True(t, m.confirming)
	assert.Equal(t, 1, m.confirmPid)
	assert.Zero(t, killed)

	_, _ = m.handleKey(keyPress('n'))
	assert.False(t, m.confirming)
	assert.Zero(t, killed)

	_, _ = m.handleKey(keyPress('k'))
	_, _ = m.handleKey(keyPress('y'))
	assert.False(t, m.confirming)
	assert.Equal(t, 1, killed)
	assert.Contains(t, m.notice.text, "Sent SIGTERM to PID 1")
}

func TestKillNotificationSeverities(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		text  string
		level noticeLevel
	}{
		{"success", nil, "Sent SIGTERM to PID 7", noticeInfo},
		{"gone", errors.ProcessNotFound(7), "PID 7 already exited", noticeWarning},
		{"denied", errors.PermissionDenied(7), "Permission denied for PID 7", noticeError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New(newFakeProvider(nil), Actions{Kill: func(int) error { return tc.err }})
			cmd := m.killSession(7)
			require.NotNil(t, cmd)
			assert.Equal(t, tc.text, m.notice.text)
			assert.Equal(t, tc.level, m.notice.level)
		})
	}
}

func TestKillWithNoSessions(t *testing.T) {
	m := New(newFakeProvider(nil), Actions{})
	_, _ = m.handleKey(keyPress('k'))
	assert.False(t, m.confirming)
	assert.Equal(t, "No session selected", m.notice.text)
}

func TestRefreshKeyPokesProvider(t *testing.T) {
	provider := newFakeProvider(threeSessions())
	m := New(provider, Actions{})

	_, _ = m.handleKey(keyPress('r'))
	assert.Equal(t, 1, provider.refreshed)
}

func TestBudgetPromptParsesAmount(t *testing.T) {
	m := New(newFakeProvider(nil), Actions{})

	_, _ = m.handleKey(keyPress('b'))
	require.True(t, m.promptOpen)

	m.budgetInput.SetValue("not a number")
	_, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.promptOpen)
	assert.Contains(t, m.notice.text, "Invalid amount")
	assert.Equal(t, noticeError, m.notice.level)
}

func TestBudgetPromptEscCancels(t *testing.T) {
	m := New(newFakeProvider(nil), Actions{})

	_, _ = m.handleKey(keyPress('b'))
	require.True(t, m.promptOpen)

	_, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.promptOpen)
	assert.Empty(t, m.notice.text)
}

func TestParseBudget(t *testing.T) {
	amount, err := parseBudget("50")
	require.NoError(t, err)
	assert.Equal(t, 50.0, amount)

	amount, err = parseBudget("$12.50")
	require.NoError(t, err)
	assert.Equal(t, 12.5, amount)

	_, err = parseBudget("abc")
	assert.Error(t, err)

	_, err = parseBudget("-3")
	assert.Error(t, err)
}

func TestSnapshotMsgUpdatesSessionsAndRearms(t *testing.T) {
	provider := newFakeProvider(nil)
	m := New(provider, Actions{})
	require.Empty(t, m.sessions)

	model, cmd := m.Update(snapshotMsg{snapshot: threeSessions()})
	assert.NotNil(t, cmd, "must re-arm the snapshot pump")

	updated := model.(*Model)
	assert.Len(t, updated.sessions, 3)
}

func TestQuitUnsubscribes(t *testing.T) {
	provider := newFakeProvider(nil)
	m := New(provider, Actions{})
	ch := m.updates

	_, cmd := m.handleKey(keyPress('q'))
	require.NotNil(t, cmd)

	select {
	case _, open := <-ch:
		assert.False(t, open, "subscription channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("subscription channel still open after quit")
	}
}

func TestOpenTailWithoutTranscript(t *testing.T) {
	m := New(newFakeProvider(&models.FleetSnapshot{
		Sessions: []models.SessionRecord{{ID: "1", Pid: 1}},
	}), Actions{})

	_, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.tailOpen)
	assert.Contains(t, m.notice.text, "No transcript")
}

func TestFormatRelative(t *testing.T) {
	assert.Equal(t, "30s", formatRelative(30*time.Second))
	assert.Equal(t, "1m", formatRelative(90*time.Second))
	assert.Equal(t, "2h", formatRelative(2*time.Hour+5*time.Minute))
	assert.Equal(t, "3d", formatRelative(72*time.Hour))
}

func TestLastActivityCell(t *testing.T) {
	now := time.Now()
	s := &models.SessionRecord{LastActivity: now.Add(-45 * time.Second)}
	assert.Equal(t, "45s", lastActivityCell(s, now))

	assert.Equal(t, "-", lastActivityCell(&models.SessionRecord{}, now))
}

func TestPidCell(t *testing.T) {
	assert.Equal(t, "42", pidCell(&models.SessionRecord{Pid: 42}))
	assert.Equal(t, "app", pidCell(&models.SessionRecord{Source: models.SourceDesktop}))
	assert.Equal(t, "agent", pidCell(&models.SessionRecord{Source: models.SourceAgent}))
	assert.Equal(t, "-", pidCell(&models.SessionRecord{Source: models.SourceAPI}))
}
