package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *LogView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case EventMsg:
		m.appendEvent(msg.Event)
		return m, nil

	case sendResultMsg:
		switch {
		case msg.err != nil:
			m.setStatus(fmt.Sprintf("send failed: %v", msg.err), false)
		case !msg.sent:
			m.setStatus("nothing to send", true)
		default:
			m.setStatus("sent to "+m.cfg.RemoteAddr, true)
			m.input.SetValue("")
		}
		return m, nil

	case saveResultMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("save failed: %v", msg.err), false)
		} else {
			m.setStatus("saved "+msg.path, true)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *LogView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.confirmingQuit {
		switch {
		case key.Matches(msg, m.keys.ConfirmYes):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ConfirmNo):
			m.confirmingQuit = false
		}
		return m, nil
	}

	if m.composing {
		switch {
		case key.Matches(msg, m.keys.Send):
			return m, m.sendCmd(m.input.Value())
		case key.Matches(msg, m.keys.Escape):
			m.composing = false
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.confirmingQuit = true
		return m, nil

	case key.Matches(msg, m.keys.Compose):
		m.composing = true
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Clear):
		m.lines = nil
		m.chart.reset()
		m.refreshViewport()
		m.setStatus("log cleared", true)
		return m, nil

	case key.Matches(msg, m.keys.Save):
		return m, m.saveCmd(m.plainLines())

	case key.Matches(msg, m.keys.Chart):
		m.showChart = !m.showChart
		m.resize(m.width, m.height)
		return m, nil

	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.follow = false
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.follow = true
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.PageUp):
		m.follow = false
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *LogView) resize(width, height int) {
	m.width = width
	m.height = height

	viewHeight := height - m.chromeHeight()
	if viewHeight < 1 {
		viewHeight = 1
	}
	viewWidth := width - 2 // border
	if viewWidth < 1 {
		viewWidth = 1
	}

	if !m.ready {
		m.viewport = viewport.New(viewWidth, viewHeight)
		m.ready = true
	} else {
		m.viewport.Width = viewWidth
		m.viewport.Height = viewHeight
	}
	m.input.Width = width - 4
	m.refreshViewport()
}

// chromeHeight is everything on screen that is not the viewport: header,
// border, composer, chart, status line.
func (m *LogView) chromeHeight() int {
	h := 1 + 2 + 1 + 1 // header + viewport border + composer + status
	if m.showChart {
		h += chartHeight + 1
	}
	return h
}

const chartHeight = 6

// sendCmd runs one outbound transaction off the update loop. The sender
// itself is synchronous; wrapping it in a command keeps the view live
// while a slow peer times out.
func (m *LogView) sendCmd(message string) tea.Cmd {
	addr := m.cfg.RemoteAddr
	timeout := m.cfg.SendTimeout
	sender := m.cfg.Sender
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		sent, err := sender.Send(ctx, addr, []byte(message))
		return sendResultMsg{sent: sent, err: err}
	}
}

func (m *LogView) saveCmd(lines []string) tea.Cmd {
	snapshot := m.cfg.Snapshot
	return func() tea.Msg {
		path, err := snapshot(lines)
		return saveResultMsg{path: path, err: err}
	}
}
