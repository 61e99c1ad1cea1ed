// Package watch provides a live terminal dashboard over a controller's
// targets: each row shows one pane or window, whether its content changed
// since the last refresh, and a preview of its last output line.
package watch

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timvw/pane-pilot/internal/controller"
)

const defaultRefresh = 2 * time.Second

// row is one target with its activity state.
type row struct {
	target  controller.Target
	hash    uint64
	idle    bool
	preview string
}

// messages
type refreshMsg struct {
	rows []row
	err  error
}

type tickMsg struct{}

type actionMsg struct {
	status string
}

// view mode
type viewMode int

const (
	modeList viewMode = iota
	modeTextInput
)

// TUI runs the interactive target watcher.
type TUI struct {
	Controller      controller.Controller
	RefreshInterval time.Duration // 0 selects the default
	CaptureLines    int
	Theme           string
}

// Run blocks until the user quits.
func (t *TUI) Run(ctx context.Context) error {
	ti := textinput.New()
	ti.Placeholder = "Type text and press Enter to send..."
	ti.CharLimit = 2048
	ti.Width = 80

	interval := t.RefreshInterval
	if interval <= 0 {
		interval = defaultRefresh
	}
	captureLines := t.CaptureLines
	if captureLines <= 0 {
		captureLines = 50
	}

	m := &tuiModel{
		ctrl:            t.Controller,
		ctx:             ctx,
		refreshInterval: interval,
		captureLines:    captureLines,
		prevHashes:      make(map[string]uint64),
		textInput:       ti,
		styles:          newStyles(ThemeByName(t.Theme)),
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// tuiModel implements tea.Model.
type tuiModel struct {
	ctrl            controller.Controller
	ctx             context.Context
	refreshInterval time.Duration
	captureLines    int

	rows       []row
	prevHashes map[string]uint64
	cursor     int
	mode       viewMode

	textInput  textinput.Model
	textTarget string

	styles styles

	width  int
	height int

	refreshing bool
	message    string
}

func (m *tuiModel) Init() tea.Cmd {
	m.refreshing = true
	return m.doRefresh()
}

func (m *tuiModel) scheduleTick() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// doRefresh lists the targets and captures each one. Idleness is judged
// against the hashes from the previous refresh, so a row is "busy" only
// when its content changed between two consecutive refreshes. The
// baseline is copied here because the command runs on its own goroutine
// while Update keeps mutating m.prevHashes.
func (m *tuiModel) doRefresh() tea.Cmd {
	ctrl := m.ctrl
	ctx := m.ctx
	lines := m.captureLines
	prev := make(map[string]uint64, len(m.prevHashes))
	for id, h := range m.prevHashes {
		prev[id] = h
	}
	return func() tea.Msg {
		targets, err := ctrl.ListTargets(ctx)
		if err != nil {
			return refreshMsg{err: err}
		}
		rows := make([]row, 0, len(targets))
		for _, t := range targets {
			r := row{target: t}
			if captured, err := ctrl.Capture(ctx, t.ID, lines); err == nil {
				r.hash = captureHash(captured)
				r.preview = lastLine(captured)
			}
			if old, ok := prev[t.ID]; ok {
				r.idle = old == r.hash
			}
			rows = append(rows, r)
		}
		return refreshMsg{rows: rows}
	}
}

func captureHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// lastLine returns the last non-empty line of a capture.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (m *tuiModel) selectedRow() *row {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[m.cursor]
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.refreshing = false
		if msg.err != nil {
			m.message = fmt.Sprintf("refresh error: %v", msg.err)
			return m, m.scheduleTick()
		}
		m.rows = msg.rows
		for _, r := range m.rows {
			m.prevHashes[r.target.ID] = r.hash
		}
		if m.cursor >= len(m.rows) {
			m.cursor = 0
		}
		return m, m.scheduleTick()

	case tickMsg:
		if m.refreshing || m.mode == modeTextInput {
			return m, m.scheduleTick()
		}
		m.refreshing = true
		return m, m.doRefresh()

	case actionMsg:
		m.message = msg.status
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.doRefresh()
	}

	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeTextInput {
		return m.handleTextInputKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *tuiModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "enter":
		if r := m.selectedRow(); r != nil {
			m.ctrl.Select(r.target.ID)
			m.message = fmt.Sprintf("selected %s", r.target.ID)
		}

	case "i":
		if r := m.selectedRow(); r != nil {
			target := r.target.ID
			ctrl := m.ctrl
			ctx := m.ctx
			return m, func() tea.Msg {
				if err := ctrl.Interrupt(ctx, target); err != nil {
					return actionMsg{status: fmt.Sprintf("interrupt failed: %v", err)}
				}
				return actionMsg{status: fmt.Sprintf("interrupted %s", target)}
			}
		}

	case "t":
		if r := m.selectedRow(); r != nil {
			m.mode = modeTextInput
			m.textTarget = r.target.ID
			m.textInput.SetValue("")
			m.textInput.Focus()
			return m, textinput.Blink
		}

	case "r":
		m.message = ""
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.doRefresh()
	}

	return m, nil
}

func (m *tuiModel) handleTextInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "escape":
		m.mode = modeList
		m.textTarget = ""
		m.textInput.Blur()
		return m, nil

	case "enter":
		text := m.textInput.Value()
		target := m.textTarget
		m.mode = modeList
		m.textTarget = ""
		m.textInput.Blur()
		if text == "" || target == "" {
			return m, nil
		}
		ctrl := m.ctrl
		ctx := m.ctx
		return m, func() tea.Msg {
			err := ctrl.Send(ctx, target, text, controller.SendOptions{Enter: true})
			if err != nil {
				return actionMsg{status: fmt.Sprintf("send failed: %v", err)}
			}
			return actionMsg{status: fmt.Sprintf("sent %q to %s", truncate(text, 40), target)}
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *tuiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.mode == modeTextInput {
		return m.viewTextInput()
	}
	return m.viewList()
}

func (m *tuiModel) viewList() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("Pane Pilot"))
	b.WriteString("  ")
	b.WriteString(m.styles.dim.Render("Enter=select  i=interrupt  t=type  r=refresh  q=quit"))
	if m.refreshing {
		b.WriteString("  ")
		b.WriteString(m.styles.busy.Render("refreshing..."))
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		if m.refreshing {
			b.WriteString("  Listing targets...\n")
		} else {
			b.WriteString("  No targets.\n")
		}
		return b.String()
	}

	idWidth := 8
	for _, r := range m.rows {
		if len(r.target.ID) > idWidth {
			idWidth = len(r.target.ID)
		}
	}
	nameWidth := 12
	for _, r := range m.rows {
		if len(r.target.Title) > nameWidth {
			nameWidth = len(r.target.Title)
		}
	}

	current := m.ctrl.Current()
	idleCount := 0
	for i, r := range m.rows {
		if r.idle {
			idleCount++
		}

		state := m.styles.busy.Render("busy")
		if r.idle {
			state = m.styles.idle.Render("idle")
		}

		marker := " "
		if r.target.ID == current {
			marker = "*"
		}

		line := fmt.Sprintf("  %s %s  %s  %s  %s",
			marker,
			padRight(r.target.ID, idWidth),
			padRight(truncate(r.target.Title, nameWidth), nameWidth),
			state,
			m.styles.dim.Render(truncate(r.preview, m.width-idWidth-nameWidth-16)))

		if i == m.cursor {
			b.WriteString(m.styles.selected.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(m.styles.dim.Render(fmt.Sprintf("  %d targets | %d idle | %s mode",
		len(m.rows), idleCount, m.ctrl.Mode())))
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString(m.styles.dim.Render("  " + m.message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *tuiModel) viewTextInput() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("  Send Text"))
	b.WriteString("\n")
	b.WriteString(m.styles.header.Render("  ─────────────────────────────────────────"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Target: %s\n", m.textTarget))
	b.WriteString("\n")
	b.WriteString(m.styles.dim.Render("  Enter=send  Escape=cancel"))
	b.WriteString("\n\n")
	b.WriteString("  " + m.textInput.View())
	b.WriteString("\n")

	return b.String()
}

// truncate cuts a string to at most maxLen characters.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// padRight pads a string with spaces to the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
