// Package sender implements fire-and-forget outbound messages over
// short-lived TCP connections.
package sender

import (
	"context"
	"fmt"
	"net"
	"time"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
)

// Config holds the per-transaction timeouts.
type Config struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Sender writes one message per call. There is no retry and no connection
// reuse; every call is an independent resolve, connect, write, shutdown
// transaction.
type Sender struct {
	dialTimeout  time.Duration
	writeTimeout time.Duration
}

func New(cfg Config) *Sender {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Sender{
		dialTimeout:  cfg.DialTimeout,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Send delivers payload to addr. An empty payload performs no network
// operation and reports sent=false with a nil error. On success both
// directions are shut down in an orderly fashion before the connection
// closes. Failures are reported to the caller for this attempt only.
func (s *Sender) Send(ctx context.Context, addr string, payload []byte) (sent bool, err error) {
	if len(payload) == 0 {
		return false, nil
	}

	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if _, err := conn.Write(payload); err != nil {
		return false, fmt.Errorf("write to %s: %w", addr, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return true, fmt.Errorf("shutdown to %s: %w", addr, err)
		}
		if err := tcp.CloseRead(); err != nil {
			return true, fmt.Errorf("shutdown to %s: %w", addr, err)
		}
	}
	return true, nil
}
