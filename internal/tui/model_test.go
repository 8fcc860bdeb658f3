package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/linetap/internal/model"
)

type fakeSender struct {
	addr    string
	payload []byte
	err     error
}

func (f *fakeSender) Send(_ context.Context, addr string, payload []byte) (bool, error) {
	f.addr = addr
	f.payload = append([]byte(nil), payload...)
	if f.err != nil {
		return false, f.err
	}
	return len(payload) > 0, nil
}

func newTestView(sender MessageSender) *LogView {
	if sender == nil {
		sender = &fakeSender{}
	}
	view := NewLogView(Config{
		RemoteAddr: "127.0.0.1:31001",
		ListenAddr: "127.0.0.1:31000",
		MaxLines:   5,
		Skin:       DefaultSkin(),
		Sender:     sender,
		Snapshot: func(lines []string) (string, error) {
			return "/tmp/snapshot.log", nil
		},
	})
	view.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return view
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testEvent(payload string) EventMsg {
	return EventMsg{Event: model.LogEvent{
		Source:    model.SourceSerial,
		Timestamp: time.Now(),
		Payload:   []byte(payload),
	}}
}

func TestLogView_AppendsEvents(t *testing.T) {
	t.Parallel()

	view := newTestView(nil)
	view.Update(testEvent("hello from the wire"))

	if len(view.lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(view.lines))
	}
	if !strings.Contains(view.View(), "hello from the wire") {
		t.Fatal("rendered view does not contain the event payload")
	}
}

func TestLogView_BufferIsBounded(t *testing.T) {
	t.Parallel()

	view := newTestView(nil)
	for i := 0; i < 20; i++ {
		view.Update(testEvent("line"))
	}
	if len(view.lines) != 5 {
		t.Fatalf("got %d lines, want buffer capped at 5", len(view.lines))
	}
	if view.eventCount != 20 {
		t.Fatalf("eventCount = %d, want 20", view.eventCount)
	}
}

func TestLogView_ClearEmptiesBuffer(t *testing.T) {
	t.Parallel()

	view := newTestView(nil)
	view.Update(testEvent("one"))
	view.Update(testEvent("two"))

	view.Update(keyMsg('c'))
	if len(view.lines) != 0 {
		t.Fatalf("got %d lines after clear, want 0", len(view.lines))
	}
}

func TestLogView_QuitRequiresConfirmation(t *testing.T) {
	t.Parallel()

	view := newTestView(nil)

	view.Update(keyMsg('q'))
	if !view.confirmingQuit {
		t.Fatal("quit key did not open the confirmation")
	}

	view.Update(keyMsg('n'))
	if view.confirmingQuit {
		t.Fatal("declining did not close the confirmation")
	}

	view.Update(keyMsg('q'))
	_, cmd := view.Update(keyMsg('y'))
	if cmd == nil {
		t.Fatal("confirming quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("confirming quit did not quit")
	}
}

func TestLogView_ForceQuitBypassesConfirmation(t *testing.T) {
	t.Parallel()

	view := newTestView(nil)
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c did not quit")
	}
}

func TestLogView_ComposeAndSend(t *testing.T) {
	t.Parallel()

	fake := &fakeSender{}
	view := newTestView(fake)

	view.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !view.composing {
		t.Fatal("tab did not enter compose mode")
	}

	for _, r := range "hi" {
		view.Update(keyMsg(r))
	}
	if view.input.Value() != "hi" {
		t.Fatalf("input value = %q, want %q", view.input.Value(), "hi")
	}

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter in compose mode returned no command")
	}
	msg := cmd()
	result, ok := msg.(sendResultMsg)
	if !ok {
		t.Fatalf("send command returned %T, want sendResultMsg", msg)
	}
	if !result.sent || result.err != nil {
		t.Fatalf("send result = %+v, want sent with no error", result)
	}
	if fake.addr != "127.0.0.1:31001" || string(fake.payload) != "hi" {
		t.Fatalf("sender called with addr=%q payload=%q", fake.addr, fake.payload)
	}

	// Successful delivery clears the composer, matching the original tool.
	view.Update(msg)
	if view.input.Value() != "" {
		t.Fatalf("input not cleared after send, still %q", view.input.Value())
	}
}

func TestLogView_SendFailureKeepsInput(t *testing.T) {
	t.Parallel()

	fake := &fakeSender{err: errors.New("connection refused")}
	view := newTestView(fake)

	view.Update(tea.KeyMsg{Type: tea.KeyTab})
	view.Update(keyMsg('x'))
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	view.Update(cmd())

	if view.input.Value() != "x" {
		t.Fatalf("input = %q after failed send, want preserved %q", view.input.Value(), "x")
	}
	if view.statusIsOK {
		t.Fatal("status not marked as error after failed send")
	}
}

func TestLogView_SaveReportsSnapshotPath(t *testing.T) {
	t.Parallel()

	view := newTestView(nil)
	view.Update(testEvent("keep me"))

	_, cmd := view.Update(keyMsg('w'))
	if cmd == nil {
		t.Fatal("save key returned no command")
	}
	view.Update(cmd())

	if !strings.Contains(view.status, "/tmp/snapshot.log") {
		t.Fatalf("status = %q, want snapshot path", view.status)
	}
}

func TestLogView_ChartToggles(t *testing.T) {
	t.Parallel()

	view := newTestView(nil)
	view.Update(keyMsg('t'))
	if !view.showChart {
		t.Fatal("chart key did not enable the chart")
	}
	view.Update(keyMsg('t'))
	if view.showChart {
		t.Fatal("chart key did not disable the chart")
	}
}
