// Package transcripttail follows a session transcript live and renders its
// entries in a scrollable viewport. It starts from the same trailing window
// the classifier reads, then streams appended lines as the session works.
package transcripttail

import (
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hpcloud/tail"

	"github.com/grovetools/fleet/pkg/transcript"
	"github.com/grovetools/fleet/tui/theme"
)

// LineMsg is sent for every transcript line received from the tailer.
type LineMsg struct {
	Line string
}

// Model is the live transcript view.
type Model struct {
	viewport viewport.Model
	tailer   *tail.Tail
	lines    chan LineMsg
	path     string
	follow   bool
	ready    bool
	width    int
	height   int
	rendered []string
}

// New creates a transcript tail view sized to the given area.
func New(width, height int) Model {
	vp := viewport.New(width, height-1)
	return Model{
		viewport: vp,
		follow:   true,
		width:    width,
		height:   height,
	}
}

// Start begins following the transcript at path, replacing any previous
// tail. The initial read starts at the trailing window boundary so huge
// transcripts open instantly.
func (m *Model) Start(path string) tea.Cmd {
	m.Stop()
	m.path = path
	m.rendered = nil
	m.follow = true

	var offset int64
	if info, err := os.Stat(path); err == nil && info.Size() > transcript.TailWindowBytes {
		offset = info.Size() - transcript.TailWindowBytes
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		m.rendered = []string{theme.DefaultTheme.Error.Render("cannot open transcript: " + err.Error())}
		m.setContent()
		return nil
	}
	m.tailer = t

	// A fresh channel per start keeps lines from a stopped tail out of
	// the current view.
	lines := make(chan LineMsg, 100)
	m.lines = lines
	go func() {
		for line := range t.Lines {
			lines <- LineMsg{Line: line.Text}
		}
		close(lines)
	}()

	return m.waitForLine()
}

// Stop halts the tail. Safe to call when nothing is being followed.
func (m *Model) Stop() {
	if m.tailer != nil {
		m.tailer.Stop()
		m.tailer = nil
	}
	m.lines = nil
}

// Path returns the transcript currently being followed.
func (m *Model) Path() string { return m.path }

// Following reports whether the view sticks to the newest entry.
func (m *Model) Following() bool { return m.follow }

// SetSize resizes the view.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 1
	m.ready = true
	m.setContent()
}

func (m *Model) waitForLine() tea.Cmd {
	lines := m.lines
	if lines == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-lines
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) setContent() {
	if !m.ready {
		return
	}
	wrapWidth := max(m.viewport.Width, 1)
	wrap := lipgloss.NewStyle().Width(wrapWidth)

	wrapped := make([]string, 0, len(m.rendered))
	for _, line := range m.rendered {
		wrapped = append(wrapped, wrap.Render(line))
	}
	m.viewport.SetContent(strings.Join(wrapped, "\n"))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case LineMsg:
		if line := formatEntry(msg.Line); line != "" {
			m.rendered = append(m.rendered, line)
			m.setContent()
			if m.follow {
				m.viewport.GotoBottom()
			}
		}
		cmds = append(cmds, m.waitForLine())
	case tea.KeyMsg:
		if msg.String() == "f" {
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the transcript with a one-line footer.
func (m Model) View() string {
	if !m.ready {
		return "Opening transcript..."
	}

	mode := "following"
	if !m.follow {
		mode = "paused (f to resume)"
	}
	footer := theme.DefaultTheme.Muted.Render(fmt.Sprintf("%s  %s", mode, m.path))
	return m.viewport.View() + "\n" + footer
}

// formatEntry renders one transcript line for display. Lines that do not
// parse or carry nothing displayable collapse to "".
func formatEntry(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var entry transcript.Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return ""
	}

	t := theme.DefaultTheme
	var ts string
	if at, ok := entry.Time(); ok {
		ts = t.Muted.Render(at.Local().Format("15:04:05")) + " "
	}

	role := entry.Type
	var roleStyle lipgloss.Style
	switch role {
	case "assistant":
		roleStyle = t.Accent
	case "user":
		roleStyle = t.Info
	case "system":
		roleStyle = t.Warning
	default:
		roleStyle = t.Muted
	}

	body := entryBody(entry)
	if body == "" {
		return ""
	}
	return fmt.Sprintf("%s%s %s", ts, roleStyle.Render(role), body)
}

func entryBody(entry transcript.Entry) string {
	content := entry.Message.Content
	if content.Text != "" {
		return clip(content.Text)
	}
	for _, block := range content.Blocks {
		switch block.Type {
		case "text":
			if block.Text != "" {
				return clip(block.Text)
			}
		case "tool_use":
			label := theme.DefaultTheme.Highlight.Render(theme.IconAgent + " " + block.Name)
			if file := block.InputString("file_path"); file != "" {
				return label + " " + file
			}
			return label
		case "tool_result":
			if block.Content != "" {
				return theme.DefaultTheme.Muted.Render(clip(string(block.Content)))
			}
			return theme.DefaultTheme.Muted.Render("tool result")
		}
	}
	return ""
}

func clip(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > 200 {
		return string(runes[:200]) + "..."
	}
	return s
}
