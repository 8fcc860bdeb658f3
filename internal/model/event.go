package model

import (
	"fmt"
	"time"
)

// Source identifies which ingestor captured an event.
type Source int

const (
	SourceSerial Source = iota
	SourceSocket
)

func (s Source) String() string {
	switch s {
	case SourceSerial:
		return "serial"
	case SourceSocket:
		return "socket"
	}
	return "unknown"
}

// LogEvent carries one captured burst of bytes with source metadata.
// It is the transport contract between ingestors and the consumer; once
// published it is never mutated.
type LogEvent struct {
	Source    Source
	Timestamp time.Time // capture time, not delivery time
	Origin    string    // peer address, set only for socket events
	Payload   []byte    // raw bytes, no assumed encoding
	Seq       uint64    // assigned by the bus at publish time
}

// Format renders the event as a single display line. The payload is only
// interpreted as text here, at the display boundary.
func (e LogEvent) Format() string {
	ts := e.Timestamp.Format("2006-01-02 15:04:05.000")
	if e.Source == SourceSocket && e.Origin != "" {
		return fmt.Sprintf("%s [%s %s] %s", ts, e.Source, e.Origin, e.Payload)
	}
	return fmt.Sprintf("%s [%s] %s", ts, e.Source, e.Payload)
}

// Sink consumes LogEvents in delivery order. Implementations are invoked
// from the bus's pump goroutine, one event at a time.
type Sink interface {
	OnEvent(LogEvent)
}
