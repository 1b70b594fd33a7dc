package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/pricing"
	"github.com/grovetools/fleet/tui/components/table"
	"github.com/grovetools/fleet/tui/theme"
)

const gaugeWidth = 20

// View renders the dashboard.
func (m Model) View() string {
	if !m.ready {
		return "Starting fleet..."
	}
	if m.width < 60 || m.height < 14 {
		return "Terminal too small. Please resize."
	}

	if m.helpAll {
		return m.renderFullHelp()
	}

	header := m.renderStatusBar()
	footer := m.renderFooter()

	var body string
	if m.confirming {
		body = m.renderKillConfirm()
	} else {
		fleetTable := m.renderTable()
		var detail string
		if m.tailOpen {
			detail = m.theme.DetailsBox.Width(m.width - 4).Render(m.tail.View())
		} else {
			detail = m.renderDetail()
		}
		body = lipgloss.JoinVertical(lipgloss.Left, fleetTable, detail)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderStatusBar mirrors the top summary line: session count, API spend
// against budget, subscription activity, hook indicator.
func (m Model) renderStatusBar() string {
	t := m.theme

	parts := []string{m.spinner.View() + " " + t.Bold.Render("fleet")}

	if m.snapshot == nil {
		parts = append(parts, t.Muted.Render("waiting for first pass"))
		return t.Header.Render(strings.Join(parts, "  ·  "))
	}

	total := len(m.snapshot.Sessions)
	label := "sessions"
	if total == 1 {
		label = "session"
	}
	parts = append(parts, fmt.Sprintf("%d %s", total, label))

	if len(m.snapshot.PayPerTokenSessions()) > 0 {
		spent := pricing.FormatCost(m.snapshot.SpentMonthly)
		budget := pricing.FormatCost(m.snapshot.BudgetMonthly)
		parts = append(parts, fmt.Sprintf("API: %s/%s mo", spent, budget))
	}
	if len(m.snapshot.SubscriptionSessions()) > 0 {
		parts = append(parts, fmt.Sprintf("Max: %d active · ~%.0f req/hr",
			m.snapshot.ActiveCount(), m.snapshot.TotalRequestsPerHour()))
	}

	hook := t.Muted.Render("no hook")
	if m.actions.Settings != nil && m.actions.Settings.IsInstalled() {
		hook = t.Success.Render("hook")
	}
	parts = append(parts, hook)

	return t.Header.Render(strings.Join(parts, "  ·  "))
}

func (m Model) renderTable() string {
	if len(m.sessions) == 0 {
		empty := "No sessions discovered.\n\nStart a session, or press r to refresh."
		return m.theme.Box.Width(m.width - 4).Render(m.theme.Muted.Render(empty))
	}

	rows := m.tableRows()
	start := m.scrollOffset
	if start > len(m.sessions)-1 {
		start = max(len(m.sessions)-1, 0)
	}
	end := min(start+rows, len(m.sessions))

	now := time.Now()
	visible := make([][]string, 0, end-start)
	for _, s := range m.sessions[start:end] {
		visible = append(visible, []string{
			m.statusDot(s.Status),
			pidCell(&s),
			s.DisplayName(),
			string(s.Status),
			pricing.FormatTokens(s.Metrics.TokensUsed),
			lastActivityCell(&s, now),
		})
	}

	rendered := table.SelectableTable(
		[]string{"", "PID", "Project", "Status", "Tokens", "Last Activity"},
		visible,
		m.cursor-start,
	)

	if len(m.sessions) > rows {
		rendered += "\n" + m.theme.Muted.Render(
			fmt.Sprintf("Showing %d-%d of %d sessions", start+1, end, len(m.sessions)))
	}
	return rendered
}

// renderDetail is the lower panel: selected session header, task/file,
// metric gauges and recent tool calls.
func (m Model) renderDetail() string {
	t := m.theme
	session := m.selected()
	if session == nil {
		return t.DetailsBox.Width(m.width - 4).Render(t.Muted.Render("No session selected"))
	}

	var lines []string

	pid := "-"
	if session.Pid > 0 {
		pid = fmt.Sprintf("%d", session.Pid)
	}
	header := fmt.Sprintf("%s Session %s · %s", theme.IconSelect, pid, session.DisplayName())
	if session.Branch != "" {
		header += " " + t.Branch.Render(theme.IconGitBranch+" "+session.Branch)
	}
	lines = append(lines, t.Bold.Render(header), "")

	if session.CurrentTask != "" {
		lines = append(lines, t.Info.Render("Task: ")+session.CurrentTask)
	}
	if session.CurrentFile != "" {
		lines = append(lines, t.Info.Render("File: ")+session.CurrentFile)
	}
	if session.CurrentTask != "" || session.CurrentFile != "" {
		lines = append(lines, "")
	}
	if !session.HasEnrichment {
		lines = append(lines, t.Muted.Render("Install hook for richer data (h)"), "")
	}

	lines = append(lines, m.renderGauges(session)...)
	lines = append(lines, "")
	lines = append(lines, m.renderRecentTools(session)...)

	return t.DetailsBox.Width(m.width - 4).Render(strings.Join(lines, "\n"))
}

// renderGauges draws the three metric bars: context, task progress, and
// rate or cost depending on the plan.
func (m Model) renderGauges(session *models.SessionRecord) []string {
	metrics := &session.Metrics

	contextLabel := fmt.Sprintf("Context: %s / %s",
		pricing.FormatTokens(metrics.TokensUsed), pricing.FormatTokens(metrics.TokensMax))
	contextPct := metrics.ContextPct()
	context := fmt.Sprintf("%-34s %s %5.1f%%", contextLabel, m.gauge(contextPct), contextPct)

	progressLabel := fmt.Sprintf("Progress: %d / %d", metrics.TasksCompleted, metrics.TasksTotal)
	progressPct := metrics.ProgressPct()
	progress := fmt.Sprintf("%-34s %s %5.1f%%", progressLabel, m.gauge(progressPct), progressPct)
	if metrics.TasksTotal == 0 && metrics.EstimatedProgressPct > 0 {
		progress += m.theme.Muted.Render(fmt.Sprintf(" (est %.0f%%)", metrics.EstimatedProgressPct))
	}

	var third string
	if metrics.PlanType == models.PlanSubscription {
		rate := metrics.RequestsPerHour
		label := fmt.Sprintf("Rate: %.1f req/hr", rate)
		// 120 req/hr fills the bar.
		third = fmt.Sprintf("%-34s %s %s", label, m.gauge(min(rate/120*100, 100)), rateIntensity(m.theme, rate))
	} else if metrics.BudgetDollars == 0 {
		label := fmt.Sprintf("Cost: $%.2f", metrics.CostDollars)
		third = fmt.Sprintf("%-34s %s %s", label, m.gauge(0), m.theme.Muted.Render("no budget set"))
	} else {
		costPct, _ := metrics.CostPct()
		label := fmt.Sprintf("Cost: $%.2f / $%.2f", metrics.CostDollars, metrics.BudgetDollars)
		third = fmt.Sprintf("%-34s %s %5.1f%%", label, m.gauge(costPct), costPct)
		switch {
		case costPct >= 85:
			third += " " + m.theme.Error.Render("CRITICAL")
		case costPct >= 60:
			third += " " + m.theme.Warning.Render("WARNING")
		}
	}

	return []string{context, progress, third}
}

func (m Model) renderRecentTools(session *models.SessionRecord) []string {
	t := m.theme
	if len(session.RecentTools) == 0 {
		return []string{t.Muted.Render("No tool calls recorded")}
	}

	lines := []string{t.Bold.Render("Recent Tools:")}
	tools := session.RecentTools
	if len(tools) > 10 {
		tools = tools[len(tools)-10:]
	}
	for _, call := range tools {
		stamp := t.Muted.Render(call.Timestamp.Local().Format("15:04:05"))
		name := t.Warning.Render(fmt.Sprintf("%-8s", call.ToolName))

		var duration string
		if call.DurationMs != nil {
			if *call.DurationMs > 1000 {
				duration = fmt.Sprintf(" (%.1fs)", float64(*call.DurationMs)/1000)
			} else {
				duration = fmt.Sprintf(" (%dms)", *call.DurationMs)
			}
		} else {
			duration = t.Muted.Render(" (running...)")
		}

		lines = append(lines, fmt.Sprintf("  %s  %s %s%s", stamp, name, call.Summary, duration))
	}
	return lines
}

// gauge renders a fixed-width bar for a percentage, colored by threshold.
func (m Model) gauge(pct float64) string {
	filled := int(pct / 100 * gaugeWidth)
	filled = max(min(filled, gaugeWidth), 0)

	style := m.theme.GaugeStyle(pct / 100)
	bar := style.Render(strings.Repeat("█", filled))
	bar += m.theme.Muted.Render(strings.Repeat("░", gaugeWidth-filled))
	return bar
}

func rateIntensity(t *theme.Theme, reqPerHour float64) string {
	switch {
	case reqPerHour < 30:
		return t.Success.Render("Low")
	case reqPerHour < 60:
		return t.Success.Render("Normal")
	case reqPerHour < 90:
		return t.Warning.Render("High")
	case reqPerHour < 120:
		return t.Warning.Render("Very High")
	default:
		return t.Error.Render("Extreme")
	}
}

func (m Model) renderKillConfirm() string {
	t := m.theme
	content := strings.Join([]string{
		t.Error.Render("Kill session?"),
		"",
		fmt.Sprintf("PID %d · %s", m.confirmPid, m.confirmName),
		t.Muted.Render("SIGTERM stops the session."),
		"",
		t.Bold.Render("y") + " kill    " + t.Bold.Render("n") + " cancel",
	}, "\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(t.Colors.Red).
		Padding(1, 3).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderFooter() string {
	t := m.theme

	if m.promptOpen {
		return t.Info.Render("Monthly API budget: ") + m.budgetInput.View() +
			t.Muted.Render("   enter save · esc cancel")
	}

	var left string
	switch {
	case m.notice.text != "":
		switch m.notice.level {
		case noticeError:
			left = t.Error.Render(theme.IconError + " " + m.notice.text)
		case noticeWarning:
			left = t.Warning.Render(theme.IconWarning + " " + m.notice.text)
		default:
			left = t.Info.Render(theme.IconInfo + " " + m.notice.text)
		}
	default:
		var keys []string
		for _, binding := range m.keys.ShortHelp() {
			help := binding.Help()
			keys = append(keys, t.Bold.Render(help.Key)+" "+t.Muted.Render(help.Desc))
		}
		left = strings.Join(keys, "  ")
	}

	sortTag := t.Muted.Render("sort:" + m.sort.String())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(sortTag) - 2
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + sortTag
}

func (m Model) renderFullHelp() string {
	t := m.theme
	var sections []string
	sections = append(sections, t.Title.Render("fleet keybindings"), "")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			help := binding.Help()
			sections = append(sections, fmt.Sprintf("  %s  %s",
				t.Bold.Render(fmt.Sprintf("%-10s", help.Key)), help.Desc))
		}
		sections = append(sections, "")
	}
	sections = append(sections, t.Muted.Render("press any key to close"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		strings.Join(sections, "\n"))
}

func (m Model) statusDot(status models.Status) string {
	return m.theme.StatusStyle(string(status)).Render(theme.IconBullet)
}

// pidCell shows the pid, or a short source tag for pid-less records.
func pidCell(s *models.SessionRecord) string {
	if s.Pid > 0 {
		return fmt.Sprintf("%d", s.Pid)
	}
	switch s.Source {
	case models.SourceDesktop:
		return "app"
	case models.SourceAgent:
		return "agent"
	default:
		return "-"
	}
}

// lastActivityCell formats the idle time as a compact relative duration.
func lastActivityCell(s *models.SessionRecord, now time.Time) string {
	idle, ok := s.IdleDuration(now)
	if !ok {
		return "-"
	}
	return formatRelative(idle)
}

func formatRelative(d time.Duration) string {
	seconds := int(d.Seconds())
	switch {
	case seconds < 0:
		return "0s"
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh", seconds/3600)
	default:
		return fmt.Sprintf("%dd", seconds/86400)
	}
}

// tableRows is how many session rows fit in the table area.
func (m Model) tableRows() int {
	// Header, borders, detail panel and footer all come out of the
	// terminal height; the remainder is data rows.
	rows := (m.height - 6) / 2
	return max(rows, 3)
}

func (m Model) detailHeight() int {
	return max(m.height-m.tableRows()-8, 5)
}

func (m Model) bodyHeight() int {
	return max(m.height-4, 5)
}
