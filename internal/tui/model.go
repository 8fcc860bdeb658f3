// Package tui renders the merged log stream: a scrolling event view, a
// message composer wired to the outbound sender, and a per-second traffic
// chart.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/linetap/internal/model"
)

// EventMsg delivers one LogEvent into the UI loop. The bus subscriber
// sends it via Program.Send, which marshals onto the render goroutine, so
// event handling never races with other UI updates.
type EventMsg struct {
	Event model.LogEvent
}

type sendResultMsg struct {
	sent bool
	err  error
}

type saveResultMsg struct {
	path string
	err  error
}

// MessageSender is the outbound side the composer talks to.
type MessageSender interface {
	Send(ctx context.Context, addr string, payload []byte) (sent bool, err error)
}

// SnapshotFunc writes the given lines somewhere durable and returns the
// resulting path.
type SnapshotFunc func(lines []string) (string, error)

// Config wires the log view to its collaborators.
type Config struct {
	RemoteAddr  string
	ListenAddr  string
	SerialLabel string // device path shown in the header, empty if disabled

	MaxLines int
	Skin     Skin

	Sender   MessageSender
	Snapshot SnapshotFunc

	// SendTimeout bounds one outbound transaction. The send runs in a
	// tea.Cmd so a slow peer stalls only its own command, not the view.
	SendTimeout time.Duration
}

// displayLine keeps both renditions of one event: styled for the
// viewport, plain for snapshots.
type displayLine struct {
	plain  string
	styled string
}

// LogView is the root Bubble Tea model.
type LogView struct {
	cfg    Config
	keys   KeyMap
	styles styles

	viewport viewport.Model
	input    textinput.Model
	chart    *trafficChart

	lines      []displayLine
	eventCount uint64

	follow         bool
	composing      bool
	confirmingQuit bool
	showChart      bool

	status     string
	statusIsOK bool

	width  int
	height int
	ready  bool
}

// NewLogView creates the log view model.
func NewLogView(cfg Config) *LogView {
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = model.DefaultLogBuffer
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	input := textinput.New()
	input.Placeholder = "message to send"
	input.Prompt = "> "
	input.CharLimit = model.DefaultMaxBurstSize

	return &LogView{
		cfg:        cfg,
		keys:       DefaultKeyMap(),
		styles:     newStyles(cfg.Skin),
		input:      input,
		chart:      newTrafficChart(120),
		follow:     true,
		status:     "ready",
		statusIsOK: true,
	}
}

func (m *LogView) Init() tea.Cmd {
	return nil
}

// appendEvent formats and stores one event, trimming the buffer to the
// configured size.
func (m *LogView) appendEvent(ev model.LogEvent) {
	m.eventCount++
	m.chart.record(ev)
	m.lines = append(m.lines, displayLine{
		plain:  ev.Format(),
		styled: m.styleEvent(ev),
	})
	if len(m.lines) > m.cfg.MaxLines {
		m.lines = m.lines[len(m.lines)-m.cfg.MaxLines:]
	}
	m.refreshViewport()
}

func (m *LogView) styleEvent(ev model.LogEvent) string {
	ts := m.styles.timestamp.Render(ev.Timestamp.Format("15:04:05.000"))
	var tag string
	if ev.Source == model.SourceSocket {
		label := ev.Source.String()
		if ev.Origin != "" {
			label += " " + ev.Origin
		}
		tag = m.styles.socketTag.Render("[" + label + "]")
	} else {
		tag = m.styles.serialTag.Render("[" + ev.Source.String() + "]")
	}
	return ts + " " + tag + " " + string(ev.Payload)
}

func (m *LogView) refreshViewport() {
	if !m.ready {
		return
	}
	content := ""
	for i, line := range m.lines {
		if i > 0 {
			content += "\n"
		}
		content += line.styled
	}
	m.viewport.SetContent(content)
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// plainLines returns the current buffer as unstyled text for snapshots.
func (m *LogView) plainLines() []string {
	out := make([]string, len(m.lines))
	for i, line := range m.lines {
		out[i] = line.plain
	}
	return out
}

func (m *LogView) setStatus(msg string, ok bool) {
	m.status = msg
	m.statusIsOK = ok
}
