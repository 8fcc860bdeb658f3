// Package ingest owns the two live inbound data sources: the serial port
// reader and the one-shot TCP listener. Each ingestor runs its read loop
// on its own goroutine, publishes captured bursts as LogEvents, and
// releases its device or socket handle on every exit path.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/tinytelemetry/linetap/internal/model"
)

// Publisher receives captured events. Implementations must be safe for
// concurrent use by both ingestors.
type Publisher interface {
	Publish(model.LogEvent)
}

// SerialConfig holds the device path and framing parameters for one
// serial connection.
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string // "none", "odd" or "even"

	// ReadTimeout bounds each blocking read, which also bounds how long
	// Stop can take to be observed.
	ReadTimeout time.Duration
}

// serialPort is the slice of serial.Port the read loop needs, narrowed so
// tests can substitute a scripted device.
type serialPort interface {
	Read(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// serialDrainTimeout bounds the second read of a burst. It only has to
// cover bytes the device has already buffered, so it is kept short.
const serialDrainTimeout = 10 * time.Millisecond

// Serial reads bursts from one serial device and publishes each burst as
// a single LogEvent.
type Serial struct {
	cfg  SerialConfig
	port serialPort
	pub  Publisher

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewSerial opens the device and returns a reader ready to Start. An open
// failure is fatal for this ingestor: no reader is returned and no loop
// ever runs.
func NewSerial(cfg SerialConfig, pub Publisher) (*Serial, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = model.DefaultSerialBaud
	}
	if cfg.DataBits <= 0 {
		cfg.DataBits = model.DefaultSerialDataBits
	}
	parity, err := parseParity(cfg.Parity)
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   parity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", cfg.Device, err)
	}
	return newSerialFromPort(cfg, port, pub), nil
}

func newSerialFromPort(cfg SerialConfig, port serialPort, pub Publisher) *Serial {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = model.DefaultSerialReadTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Serial{
		cfg:    cfg,
		port:   port,
		pub:    pub,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (s *Serial) Name() string { return "serial" }

// Start launches the read loop on its own goroutine.
func (s *Serial) Start() {
	s.startOnce.Do(func() { go s.run() })
}

// Stop signals the loop and blocks until the device handle is released.
// Bounded by the read timeout plus the drain window. Safe to call before
// Start; the loop will never launch afterwards.
func (s *Serial) Stop() {
	s.stopOnce.Do(s.cancel)
	s.startOnce.Do(func() {
		s.port.Close()
		close(s.done)
	})
	<-s.done
}

func (s *Serial) run() {
	defer close(s.done)
	defer func() {
		if err := s.port.Close(); err != nil {
			log.Printf("ingest: serial %s: close: %v", s.cfg.Device, err)
		}
	}()

	first := make([]byte, 1)
	rest := make([]byte, model.DefaultMaxBurstSize)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		// Phase one: wait for the first byte of a burst. The timeout keeps
		// the loop iterating so the stop signal is observed promptly; a
		// zero-byte return is an empty window, not an error.
		if err := s.port.SetReadTimeout(s.cfg.ReadTimeout); err != nil {
			log.Printf("ingest: serial %s: set read timeout: %v", s.cfg.Device, err)
			return
		}
		n, err := s.port.Read(first)
		if err != nil {
			if s.ctx.Err() == nil {
				log.Printf("ingest: serial %s: read: %v", s.cfg.Device, err)
			}
			return
		}
		if n == 0 {
			continue
		}

		// Phase two: drain whatever else of the burst is already buffered
		// so one burst becomes one event instead of one event per byte.
		// Bytes arriving after this window form the next event.
		payload := []byte{first[0]}
		var drainErr error
		if drainErr = s.port.SetReadTimeout(serialDrainTimeout); drainErr == nil {
			var m int
			m, drainErr = s.port.Read(rest)
			if m > 0 {
				payload = append(payload, rest[:m]...)
			}
		}

		s.pub.Publish(model.LogEvent{
			Source:    model.SourceSerial,
			Timestamp: time.Now(),
			Payload:   payload,
		})

		if drainErr != nil {
			if s.ctx.Err() == nil {
				log.Printf("ingest: serial %s: read: %v", s.cfg.Device, drainErr)
			}
			return
		}
	}
}

func parseParity(p string) (serial.Parity, error) {
	switch strings.ToLower(p) {
	case "", "none", "n":
		return serial.NoParity, nil
	case "odd", "o":
		return serial.OddParity, nil
	case "even", "e":
		return serial.EvenParity, nil
	}
	return serial.NoParity, fmt.Errorf("unknown serial parity %q", p)
}
