package ingest

import (
	"net"
	"testing"
	"time"

	"github.com/tinytelemetry/linetap/internal/model"
)

func newTestSocket(t *testing.T, cfg SocketConfig) (*Socket, *capturePub) {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	pub := &capturePub{}
	s, err := NewSocket(cfg, pub)
	if err != nil {
		t.Fatalf("NewSocket: %v", err)
	}
	return s, pub
}

func TestSocket_OneConnectionProducesOneEvent(t *testing.T) {
	t.Parallel()

	s, pub := newTestSocket(t, SocketConfig{})
	s.Start()
	defer s.Stop()

	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	local := conn.LocalAddr().String()
	if _, err := conn.Write([]byte("hello tap")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.Close()

	events := pub.waitFor(t, 1, 2*time.Second)
	ev := events[0]
	if ev.Source != model.SourceSocket {
		t.Fatalf("source = %v, want socket", ev.Source)
	}
	if string(ev.Payload) != "hello tap" {
		t.Fatalf("payload = %q, want %q", ev.Payload, "hello tap")
	}
	if ev.Origin != local {
		t.Fatalf("origin = %q, want %q", ev.Origin, local)
	}
}

func TestSocket_ListenerSurvivesMultipleTransactions(t *testing.T) {
	t.Parallel()

	s, pub := newTestSocket(t, SocketConfig{})
	s.Start()
	defer s.Stop()

	for _, msg := range []string{"first", "second", "third"} {
		conn, err := net.Dial("tcp", s.Addr())
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		if _, err := conn.Write([]byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
		conn.Close()
	}

	events := pub.waitFor(t, 3, 2*time.Second)
	for i, want := range []string{"first", "second", "third"} {
		if got := string(events[i].Payload); got != want {
			t.Fatalf("event %d: payload = %q, want %q", i, got, want)
		}
	}
}

func TestSocket_SilentClientProducesNoEventAndKeepsAccepting(t *testing.T) {
	t.Parallel()

	s, pub := newTestSocket(t, SocketConfig{ReadyTimeout: 50 * time.Millisecond})
	s.Start()
	defer s.Stop()

	silent, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer silent.Close()

	// Let the readiness window expire with nothing sent.
	time.Sleep(120 * time.Millisecond)
	if events := pub.snapshot(); len(events) != 0 {
		t.Fatalf("got %d events from silent client, want 0", len(events))
	}

	// The listener must still accept and record the next transaction.
	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("dial after silent client: %v", err)
	}
	if _, err := conn.Write([]byte("still alive")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.Close()

	events := pub.waitFor(t, 1, 2*time.Second)
	if got := string(events[0].Payload); got != "still alive" {
		t.Fatalf("payload = %q, want %q", got, "still alive")
	}
}

func TestSocket_BurstIsCappedAtMaxBurstSize(t *testing.T) {
	t.Parallel()

	s, pub := newTestSocket(t, SocketConfig{MaxBurstSize: 8})
	s.Start()
	defer s.Stop()

	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := conn.Write([]byte("0123456789abcdef")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.Close()

	events := pub.waitFor(t, 1, 2*time.Second)
	if got := string(events[0].Payload); got != "01234567" {
		t.Fatalf("payload = %q, want first 8 bytes", got)
	}
}

func TestSocket_StopReleasesListenAddress(t *testing.T) {
	t.Parallel()

	s, _ := newTestSocket(t, SocketConfig{})
	s.Start()
	addr := s.Addr()

	start := time.Now()
	s.Stop()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Stop took %v while blocked in accept", elapsed)
	}

	// The address must be immediately reusable by a new listener.
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("rebind %s after Stop: %v", addr, err)
	}
	ln.Close()
}

func TestSocket_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	s, _ := newTestSocket(t, SocketConfig{})
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSocket_BindFailureIsFatalAtStartup(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if _, err := NewSocket(SocketConfig{Addr: ln.Addr().String()}, &capturePub{}); err == nil {
		t.Fatal("NewSocket on an occupied address succeeded, want error")
	}
}
