package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/linetap/internal/model"
)

// SocketConfig holds the listen parameters for the inbound TCP tap.
type SocketConfig struct {
	Addr string

	// ReadyTimeout is the window a client has to deliver its burst after
	// connecting. A silent client is abandoned without an event.
	ReadyTimeout time.Duration

	// MaxBurstSize caps the single read performed per connection.
	MaxBurstSize int
}

// Socket accepts TCP connections and turns each into at most one
// LogEvent. Every connection is a single connect, send, disconnect
// transaction; the listener never holds a session open.
type Socket struct {
	cfg      SocketConfig
	listener net.Listener
	pub      Publisher

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewSocket binds and starts listening immediately. A bind failure is
// fatal for this ingestor: no listener is returned and no loop ever runs.
func NewSocket(cfg SocketConfig, pub Publisher) (*Socket, error) {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = model.DefaultSocketReadyTimeout
	}
	if cfg.MaxBurstSize <= 0 {
		cfg.MaxBurstSize = model.DefaultMaxBurstSize
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		cfg:      cfg,
		listener: listener,
		pub:      pub,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

func (s *Socket) Name() string { return "socket" }

// Addr returns the bound listen address.
func (s *Socket) Addr() string { return s.listener.Addr().String() }

// Start launches the accept loop on its own goroutine.
func (s *Socket) Start() {
	s.startOnce.Do(func() { go s.run() })
}

// Stop closes the listener to force a blocked Accept to return, then
// blocks until the loop has exited and the socket is released. Safe to
// call before Start; the loop will never launch afterwards.
func (s *Socket) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.listener.Close()
	})
	s.startOnce.Do(func() { close(s.done) })
	<-s.done
}

func (s *Socket) run() {
	defer close(s.done)
	defer s.listener.Close()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return // stop-induced closure, not a failure
			}
			log.Printf("ingest: socket %s: accept: %v", s.cfg.Addr, err)
			return
		}
		s.handle(conn)
	}
}

// handle performs the read side of one transaction. Errors here are
// contained to the connection, so one bad client cannot take down the
// listener.
func (s *Socket) handle(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadyTimeout))
	buf := make([]byte, s.cfg.MaxBurstSize)
	n, err := conn.Read(buf)
	if n > 0 {
		s.pub.Publish(model.LogEvent{
			Source:    model.SourceSocket,
			Timestamp: time.Now(),
			Origin:    conn.RemoteAddr().String(),
			Payload:   append([]byte(nil), buf[:n]...),
		})
		return
	}
	if err == nil {
		return
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		// Client sent nothing within the window; abandon it silently.
	case errors.Is(err, io.EOF):
		// Client disconnected without sending; nothing to record.
	case errors.Is(err, net.ErrClosed):
	default:
		log.Printf("ingest: socket %s: read from %s: %v", s.cfg.Addr, conn.RemoteAddr(), err)
	}
}
