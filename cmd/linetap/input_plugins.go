package main

import (
	"log"

	"github.com/tinytelemetry/linetap/internal/ingest"
)

// Ingestor is the lifecycle contract shared by both inbound sources. Start
// runs the read loop on its own goroutine; Stop joins it and guarantees
// the underlying handle is released.
type Ingestor interface {
	Name() string
	Start()
	Stop()
}

// InputSourcePlugin is a small plugin primitive for wiring inbound taps.
type InputSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(pub ingest.Publisher) (Ingestor, error)
}

func buildInputPlugins(cfg appConfig) []InputSourcePlugin {
	return []InputSourcePlugin{
		serialInputPlugin{cfg: cfg},
		socketInputPlugin{cfg: cfg},
	}
}

// buildIngestors constructs every enabled source. A source that fails at
// startup is reported and skipped; the others are unaffected.
func buildIngestors(cfg appConfig, pub ingest.Publisher) []Ingestor {
	plugins := buildInputPlugins(cfg)
	ingestors := make([]Ingestor, 0, len(plugins))
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(pub)
		if err != nil {
			log.Printf("input plugin %q: %v", plugin.Name(), err)
			continue
		}
		ingestors = append(ingestors, src)
	}
	return ingestors
}

type serialInputPlugin struct {
	cfg appConfig
}

func (p serialInputPlugin) Name() string { return "serial" }

func (p serialInputPlugin) Enabled() bool { return p.cfg.SerialEnabled }

func (p serialInputPlugin) Build(pub ingest.Publisher) (Ingestor, error) {
	return ingest.NewSerial(ingest.SerialConfig{
		Device:      p.cfg.SerialDevice,
		BaudRate:    p.cfg.SerialBaud,
		DataBits:    p.cfg.SerialDataBits,
		Parity:      p.cfg.SerialParity,
		ReadTimeout: p.cfg.SerialTimeout,
	}, pub)
}

type socketInputPlugin struct {
	cfg appConfig
}

func (p socketInputPlugin) Name() string { return "socket" }

func (p socketInputPlugin) Enabled() bool { return p.cfg.ListenEnabled }

func (p socketInputPlugin) Build(pub ingest.Publisher) (Ingestor, error) {
	return ingest.NewSocket(ingest.SocketConfig{
		Addr: p.cfg.ListenAddr,
	}, pub)
}
