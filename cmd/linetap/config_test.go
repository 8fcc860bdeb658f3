package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tinytelemetry/linetap/internal/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if !cfg.SerialEnabled || !cfg.ListenEnabled {
		t.Fatalf("sources disabled by default: serial=%t listen=%t", cfg.SerialEnabled, cfg.ListenEnabled)
	}
	if cfg.SerialDevice != model.DefaultSerialDevice {
		t.Fatalf("serial device = %q, want %q", cfg.SerialDevice, model.DefaultSerialDevice)
	}
	if cfg.SerialBaud != model.DefaultSerialBaud {
		t.Fatalf("serial baud = %d, want %d", cfg.SerialBaud, model.DefaultSerialBaud)
	}
	if cfg.SerialTimeout != model.DefaultSerialReadTimeout {
		t.Fatalf("serial read timeout = %v, want %v", cfg.SerialTimeout, model.DefaultSerialReadTimeout)
	}
	if cfg.ListenAddr != model.DefaultListenAddr {
		t.Fatalf("listen addr = %q, want %q", cfg.ListenAddr, model.DefaultListenAddr)
	}
	if cfg.RemoteAddr != model.DefaultRemoteAddr {
		t.Fatalf("remote addr = %q, want %q", cfg.RemoteAddr, model.DefaultRemoteAddr)
	}
	if cfg.LogBuffer != model.DefaultLogBuffer {
		t.Fatalf("log buffer = %d, want %d", cfg.LogBuffer, model.DefaultLogBuffer)
	}
	if cfg.SendTimeout != defaultSendTimeout {
		t.Fatalf("send timeout = %v, want %v", cfg.SendTimeout, defaultSendTimeout)
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "" +
		"serial-enabled: false\n" +
		"listen-host: 0.0.0.0\n" +
		"listen-port: 9100\n" +
		"remote-addr: 192.168.1.20:9101\n" +
		"send-timeout: 3s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.SerialEnabled {
		t.Fatal("serial-enabled override ignored")
	}
	if cfg.ListenAddr != "0.0.0.0:9100" {
		t.Fatalf("listen addr = %q, want 0.0.0.0:9100", cfg.ListenAddr)
	}
	if cfg.RemoteAddr != "192.168.1.20:9101" {
		t.Fatalf("remote addr = %q, want explicit override", cfg.RemoteAddr)
	}
	if cfg.SendTimeout != 3*time.Second {
		t.Fatalf("send timeout = %v, want 3s", cfg.SendTimeout)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("config path = %q, want %q", cfg.ConfigPath, path)
	}
}

func TestLoadConfig_RejectsInvalidPorts(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("listen-port: 123456\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadConfig(path); err == nil {
		t.Fatal("loadConfig accepted an out-of-range port")
	}
}
