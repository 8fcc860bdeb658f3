package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/linetap/internal/bus"
	"github.com/tinytelemetry/linetap/internal/logfile"
	"github.com/tinytelemetry/linetap/internal/model"
	"github.com/tinytelemetry/linetap/internal/sender"
	"github.com/tinytelemetry/linetap/internal/tui"
)

// runTUI wires the ingestion core to the interactive log view.
func runTUI(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	skin, err := tui.LoadSkin(cfg.Skin, cfg.ConfigDir)
	if err != nil {
		log.Printf("skin %q: %v (using default)", cfg.Skin, err)
	}

	b := bus.New()
	ingestors := buildIngestors(cfg, b)
	if len(ingestors) == 0 {
		return fmt.Errorf("no input sources available (serial-enabled=%t listen-enabled=%t)", cfg.SerialEnabled, cfg.ListenEnabled)
	}

	serialLabel := ""
	listenAddr := ""
	for _, ing := range ingestors {
		switch ing.Name() {
		case "serial":
			serialLabel = cfg.SerialDevice
		case "socket":
			listenAddr = cfg.ListenAddr
		}
	}

	view := tui.NewLogView(tui.Config{
		RemoteAddr:  cfg.RemoteAddr,
		ListenAddr:  listenAddr,
		SerialLabel: serialLabel,
		MaxLines:    cfg.LogBuffer,
		Skin:        skin,
		Sender:      sender.New(sender.Config{DialTimeout: cfg.SendTimeout, WriteTimeout: cfg.SendTimeout}),
		Snapshot: func(lines []string) (string, error) {
			return logfile.Snapshot(cfg.SaveDir, lines)
		},
		SendTimeout: cfg.SendTimeout,
	})

	p := tea.NewProgram(view, tea.WithAltScreen())

	// Program.Send marshals each event onto the render goroutine, so the
	// view never observes events concurrently with its own updates.
	b.Subscribe(func(ev model.LogEvent) {
		p.Send(tui.EventMsg{Event: ev})
	})

	for _, ing := range ingestors {
		ing.Start()
	}

	_, runErr := p.Run()

	for _, ing := range ingestors {
		ing.Stop()
	}
	b.Close()

	if runErr != nil {
		return tuiRunError(runErr)
	}
	return nil
}

// tuiRunError distinguishes "no terminal to draw on" from every other
// program failure. Bubble Tea surfaces the former as a wrapped open
// error on the tty device.
func tuiRunError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("opening %s failed, a real terminal is required (try -headless): %w", pathErr.Path, err)
	}
	return fmt.Errorf("error running TUI: %w", err)
}

// runHeadless prints formatted events to stdout until SIGINT/SIGTERM,
// optionally duplicating them into a capture file.
func runHeadless(cfg appConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var capture *logfile.Writer
	if cfg.CaptureFile != "" {
		var err error
		capture, err = logfile.Open(cfg.CaptureFile)
		if err != nil {
			return err
		}
		defer capture.Close()
	}

	b := bus.New()
	ingestors := buildIngestors(cfg, b)
	if len(ingestors) == 0 {
		return fmt.Errorf("no input sources available (serial-enabled=%t listen-enabled=%t)", cfg.SerialEnabled, cfg.ListenEnabled)
	}

	events := make(chan model.LogEvent, cfg.LogBuffer)
	b.Subscribe(func(ev model.LogEvent) {
		events <- ev
	})

	for _, ing := range ingestors {
		ing.Start()
	}

	printStartupBanner(cfg, ingestors)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return drainEvents(events, os.Stdout, capture)
	})
	g.Go(func() error {
		// On signal, stop the sources, let the bus flush what was
		// already published into the channel, then end the consumer.
		<-gctx.Done()
		for _, ing := range ingestors {
			ing.Stop()
		}
		b.Close()
		close(events)
		return nil
	})
	return g.Wait()
}

// drainEvents is the headless consumer: it prints each event and mirrors
// it into the capture file until the channel closes.
func drainEvents(events <-chan model.LogEvent, out io.Writer, capture *logfile.Writer) error {
	for ev := range events {
		fmt.Fprintln(out, ev.Format())
		if capture != nil {
			capture.OnEvent(ev)
		}
	}
	return nil
}

// configureRuntimeLogger redirects the runtime log to a file while the
// TUI owns the terminal.
func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "linetap")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "linetap.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, ingestors []Ingestor) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	active := map[string]bool{}
	for _, ing := range ingestors {
		active[ing.Name()] = true
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, bold.Render("  linetap ")+dim.Render("v"+version))
	lines = append(lines, "")
	if active["serial"] {
		lines = append(lines, fmt.Sprintf("  %s  Serial   %s", check, cyan.Render(cfg.SerialDevice)))
	} else {
		lines = append(lines, fmt.Sprintf("  %s  Serial   %s", dot, dim.Render("disabled")))
	}
	if active["socket"] {
		lines = append(lines, fmt.Sprintf("  %s  Listen   %s", check, cyan.Render(cfg.ListenAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("  %s  Listen   %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, fmt.Sprintf("  %s  Remote   %s", dot, dim.Render(cfg.RemoteAddr)))
	if cfg.CaptureFile != "" {
		lines = append(lines, fmt.Sprintf("  %s  Capture  %s", check, dim.Render(cfg.CaptureFile)))
	}
	lines = append(lines, "")
	lines = append(lines, "  "+dim.Render("Press Ctrl+C to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}
