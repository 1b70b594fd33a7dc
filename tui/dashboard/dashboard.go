// Package dashboard is the fleet TUI: a live session table over the
// poller's snapshots with a detail panel, metric gauges and imperative
// actions (kill, hook toggle, budget).
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/fleet/pkg/hooks"
	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/tui/components/transcripttail"
	"github.com/grovetools/fleet/tui/theme"
)

// noticeDuration is how long a notification line stays visible.
const noticeDuration = 4 * time.Second

// SnapshotProvider feeds the dashboard. The poller satisfies this.
type SnapshotProvider interface {
	Snapshot() *models.FleetSnapshot
	Subscribe() chan *models.FleetSnapshot
	Unsubscribe(chan *models.FleetSnapshot)
	Refresh()
}

// Actions are the imperative operations the dashboard can trigger.
type Actions struct {
	// Kill sends SIGTERM to a session process.
	Kill func(pid int) error
	// Settings toggles the enrichment hook registration.
	Settings *hooks.Settings
	// Store persists the monthly budget.
	Store *hooks.Store
}

// sortMode orders the session table.
type sortMode int

const (
	sortActivity sortMode = iota
	sortTokens
	sortProject
)

func (s sortMode) String() string {
	switch s {
	case sortTokens:
		return "tokens"
	case sortProject:
		return "project"
	default:
		return "activity"
	}
}

// noticeLevel grades a transient notification line.
type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeWarning
	noticeError
)

type notice struct {
	text  string
	level noticeLevel
	seq   int
}

// snapshotMsg delivers a fresh fleet snapshot from the provider.
type snapshotMsg struct {
	snapshot *models.FleetSnapshot
}

// clearNoticeMsg expires a notification. seq guards against clearing a
// newer notice than the one this timer was armed for.
type clearNoticeMsg struct {
	seq int
}

// Model is the dashboard state.
type Model struct {
	provider SnapshotProvider
	actions  Actions
	keys     KeyMap
	theme    *theme.Theme

	snapshot *models.FleetSnapshot
	sessions []models.SessionRecord
	sort     sortMode

	cursor       int
	scrollOffset int
	selectedID   string

	width  int
	height int
	ready  bool

	spinner     spinner.Model
	budgetInput textinput.Model
	promptOpen  bool
	confirmPid  int
	confirmName string
	confirming  bool

	tail        transcripttail.Model
	tailOpen    bool
	tailFocused bool

	notice  notice
	updates chan *models.FleetSnapshot
	helpAll bool
}

// New creates the dashboard model and subscribes to the provider.
func New(provider SnapshotProvider, actions Actions) Model {
	t := theme.NewTheme()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = t.Accent

	input := textinput.New()
	input.Placeholder = "50.00"
	input.CharLimit = 12
	input.Width = 12
	input.Prompt = "$ "

	m := Model{
		provider:    provider,
		actions:     actions,
		keys:        DefaultKeyMap,
		theme:       t,
		spinner:     sp,
		budgetInput: input,
		tail:        transcripttail.New(0, 0),
		updates:     provider.Subscribe(),
	}
	m.applySnapshot(provider.Snapshot())
	return m
}

// Init starts the spinner and the snapshot pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForSnapshot())
}

// Run launches the dashboard in the alternate screen and blocks until quit.
// defaultSort names the initial table ordering; unknown names keep activity
// order.
func Run(provider SnapshotProvider, actions Actions, defaultSort string) error {
	m := New(provider, actions)
	m.setSortByName(defaultSort)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) setSortByName(name string) {
	switch name {
	case "tokens":
		m.sort = sortTokens
	case "project":
		m.sort = sortProject
	default:
		m.sort = sortActivity
	}
	m.applySnapshot(m.snapshot)
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snapshot, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

// applySnapshot installs a snapshot and rebuilds the sorted session view,
// keeping the selection on the same session id when it survives the pass.
func (m *Model) applySnapshot(snapshot *models.FleetSnapshot) {
	m.snapshot = snapshot
	if snapshot == nil {
		m.sessions = nil
		m.cursor = 0
		return
	}

	m.sessions = make([]models.SessionRecord, len(snapshot.Sessions))
	copy(m.sessions, snapshot.Sessions)
	m.applySort()

	if m.selectedID != "" {
		for i := range m.sessions {
			if m.sessions[i].ID == m.selectedID {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(m.sessions) {
		m.cursor = max(len(m.sessions)-1, 0)
	}
	m.syncSelection()
}

// applySort reorders the session view for the current mode. Activity order
// is the snapshot's own deterministic order; the other modes re-sort a copy
// and never touch the shared snapshot.
func (m *Model) applySort() {
	switch m.sort {
	case sortTokens:
		sortSessionsByTokens(m.sessions)
	case sortProject:
		sortSessionsByProject(m.sessions)
	default:
		// Snapshot order is already most-recent-activity first.
	}
}

func (m *Model) syncSelection() {
	if m.cursor >= 0 && m.cursor < len(m.sessions) {
		m.selectedID = m.sessions[m.cursor].ID
	} else {
		m.selectedID = ""
	}
}

// selected returns the session under the cursor, or nil.
func (m *Model) selected() *models.SessionRecord {
	if m.cursor < 0 || m.cursor >= len(m.sessions) {
		return nil
	}
	return &m.sessions[m.cursor]
}

func (m *Model) notify(level noticeLevel, text string) tea.Cmd {
	m.notice = notice{text: text, level: level, seq: m.notice.seq + 1}
	seq := m.notice.seq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}
