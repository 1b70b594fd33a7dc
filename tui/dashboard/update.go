package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/tui/components/transcripttail"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.tail.SetSize(msg.Width-4, m.detailHeight())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.applySnapshot(msg.snapshot)
		return m, m.waitForSnapshot()

	case clearNoticeMsg:
		if msg.seq == m.notice.seq {
			m.notice.text = ""
		}
		return m, nil

	case transcripttail.LineMsg:
		var cmd tea.Cmd
		m.tail, cmd = m.tail.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.helpAll {
		m.helpAll = false
		return m, nil
	}
	if m.promptOpen {
		return m.handleBudgetKey(msg)
	}
	if m.confirming {
		return m.handleConfirmKey(msg)
	}
	if m.tailOpen && m.tailFocused {
		return m.handleTailKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.helpAll = true

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.syncSelection()
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
			m.syncSelection()
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.PageUp):
		m.cursor = max(m.cursor-m.tableRows(), 0)
		m.syncSelection()
		m.ensureCursorVisible()

	case key.Matches(msg, m.keys.PageDown):
		if len(m.sessions) > 0 {
			m.cursor = min(m.cursor+m.tableRows(), len(m.sessions)-1)
			m.syncSelection()
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.Kill):
		session := m.selected()
		if session == nil || session.Pid <= 0 {
			return m, m.notify(noticeWarning, "No session selected")
		}
		m.confirming = true
		m.confirmPid = session.Pid
		m.confirmName = session.DisplayName()

	case key.Matches(msg, m.keys.Hook):
		return m, m.toggleHook()

	case key.Matches(msg, m.keys.Sort):
		m.sort = (m.sort + 1) % 3
		m.applySort()
		m.syncSelection()
		return m, m.notify(noticeInfo, "Sort: "+m.sort.String())

	case key.Matches(msg, m.keys.Refresh):
		m.provider.Refresh()

	case key.Matches(msg, m.keys.Budget):
		m.promptOpen = true
		m.budgetInput.SetValue("")
		m.budgetInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Tail):
		return m, m.openTail()

	case key.Matches(msg, m.keys.Focus):
		if m.tailOpen {
			m.tailFocused = true
		}
	}

	return m, nil
}

func (m *Model) handleBudgetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.promptOpen = false
		m.budgetInput.Blur()
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.budgetInput.Value())
		m.promptOpen = false
		m.budgetInput.Blur()

		amount, err := parseBudget(raw)
		if err != nil {
			return m, m.notify(noticeError, fmt.Sprintf("Invalid amount %q", raw))
		}
		if m.actions.Store == nil {
			return m, nil
		}
		if err := m.actions.Store.SetBudget(amount); err != nil {
			return m, m.notify(noticeError, "Failed to save budget: "+err.Error())
		}
		m.provider.Refresh()
		return m, m.notify(noticeInfo, fmt.Sprintf("Monthly API budget set to $%.2f", amount))
	default:
		var cmd tea.Cmd
		m.budgetInput, cmd = m.budgetInput.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		pid := m.confirmPid
		m.confirming = false
		return m, m.killSession(pid)
	case "n", "esc", "q":
		m.confirming = false
	}
	return m, nil
}

func (m *Model) handleTailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case msg.String() == "esc", key.Matches(msg, m.keys.Tail):
		m.closeTail()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		m.tailFocused = false
		return m, nil
	}

	var cmd tea.Cmd
	m.tail, cmd = m.tail.Update(msg)
	return m, cmd
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.closeTail()
	m.provider.Unsubscribe(m.updates)
	return m, tea.Quit
}

// killSession sends SIGTERM and maps the two expected failures onto their
// own notification severities.
func (m *Model) killSession(pid int) tea.Cmd {
	if m.actions.Kill == nil {
		return nil
	}
	err := m.actions.Kill(pid)
	switch {
	case err == nil:
		return m.notify(noticeInfo, fmt.Sprintf("Sent SIGTERM to PID %d", pid))
	case errors.GetCode(err) == errors.ErrCodeProcessNotFound:
		return m.notify(noticeWarning, fmt.Sprintf("PID %d already exited", pid))
	case errors.GetCode(err) == errors.ErrCodePermissionDenied:
		return m.notify(noticeError, fmt.Sprintf("Permission denied for PID %d", pid))
	default:
		return m.notify(noticeError, "Kill failed: "+err.Error())
	}
}

func (m *Model) toggleHook() tea.Cmd {
	if m.actions.Settings == nil {
		return nil
	}
	if m.actions.Settings.IsInstalled() {
		if err := m.actions.Settings.Uninstall(); err != nil {
			return m.notify(noticeError, "Failed to uninstall hook: "+err.Error())
		}
		return m.notify(noticeInfo, "Hook uninstalled")
	}
	if err := m.actions.Settings.Install(); err != nil {
		return m.notify(noticeError, "Failed to install hook: "+err.Error())
	}
	return m.notify(noticeInfo, "Hook installed. Restart sessions for effect")
}

func (m *Model) openTail() tea.Cmd {
	session := m.selected()
	if session == nil {
		return m.notify(noticeWarning, "No session selected")
	}
	if session.TranscriptPath == "" {
		return m.notify(noticeWarning, "No transcript located for this session")
	}
	m.tailOpen = true
	m.tailFocused = true
	m.tail.SetSize(m.width-4, m.detailHeight())
	return m.tail.Start(session.TranscriptPath)
}

func (m *Model) closeTail() {
	if !m.tailOpen {
		return
	}
	m.tail.Stop()
	m.tailOpen = false
	m.tailFocused = false
}

func (m *Model) ensureCursorVisible() {
	rows := m.tableRows()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+rows {
		m.scrollOffset = m.cursor - rows + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// parseBudget parses a dollar amount, tolerating a leading $.
func parseBudget(raw string) (float64, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "$")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if amount < 0 {
		return 0, fmt.Errorf("negative budget")
	}
	return amount, nil
}

func sortSessionsByTokens(sessions []models.SessionRecord) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Metrics.TokensUsed > sessions[j].Metrics.TokensUsed
	})
}

func sortSessionsByProject(sessions []models.SessionRecord) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return strings.ToLower(sessions[i].DisplayName()) < strings.ToLower(sessions[j].DisplayName())
	})
}
