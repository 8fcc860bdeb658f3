package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/linetap/internal/model"
)

const (
	defaultListenHost  = "127.0.0.1"
	defaultListenPort  = 31000
	defaultRemoteHost  = "127.0.0.1"
	defaultRemotePort  = 31001
	defaultSendTimeout = 10 * time.Second
)

// appConfig is internal runtime configuration. All addresses live here and
// are handed to constructors; there is no process-wide mutable state.
type appConfig struct {
	SerialEnabled  bool          `mapstructure:"serial-enabled"`
	SerialDevice   string        `mapstructure:"serial-device"`
	SerialBaud     int           `mapstructure:"serial-baud"`
	SerialDataBits int           `mapstructure:"serial-data-bits"`
	SerialParity   string        `mapstructure:"serial-parity"`
	SerialTimeout  time.Duration `mapstructure:"serial-read-timeout"`

	ListenEnabled bool   `mapstructure:"listen-enabled"`
	ListenHost    string `mapstructure:"listen-host"`
	ListenPort    int    `mapstructure:"listen-port"`
	ListenAddr    string `mapstructure:"listen-addr"`

	RemoteHost  string        `mapstructure:"remote-host"`
	RemotePort  int           `mapstructure:"remote-port"`
	RemoteAddr  string        `mapstructure:"remote-addr"`
	SendTimeout time.Duration `mapstructure:"send-timeout"`

	LogBuffer   int    `mapstructure:"log-buffer"`
	Skin        string `mapstructure:"skin"`
	SaveDir     string `mapstructure:"save-dir"`
	CaptureFile string `mapstructure:"capture-file"`

	ConfigPath string `mapstructure:"-"` // not from config file
	ConfigDir  string `mapstructure:"-"`
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}
	configDir := filepath.Join(home, ".config", "linetap")

	v := viper.New()
	v.SetEnvPrefix("LINETAP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("serial-enabled", true)
	v.SetDefault("serial-device", model.DefaultSerialDevice)
	v.SetDefault("serial-baud", model.DefaultSerialBaud)
	v.SetDefault("serial-data-bits", model.DefaultSerialDataBits)
	v.SetDefault("serial-parity", model.DefaultSerialParity)
	v.SetDefault("serial-read-timeout", model.DefaultSerialReadTimeout)
	v.SetDefault("listen-enabled", true)
	v.SetDefault("listen-host", defaultListenHost)
	v.SetDefault("listen-port", defaultListenPort)
	v.SetDefault("remote-host", defaultRemoteHost)
	v.SetDefault("remote-port", defaultRemotePort)
	v.SetDefault("send-timeout", defaultSendTimeout)
	v.SetDefault("log-buffer", model.DefaultLogBuffer)
	v.SetDefault("skin", model.DefaultSkin)
	v.SetDefault("save-dir", filepath.Join(home, ".local", "share", "linetap"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(configDir, "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	cfg.ConfigDir = configDir

	if cfg.ListenPort <= 0 || cfg.ListenPort > 65535 {
		return cfg, fmt.Errorf("invalid listen-port: %d", cfg.ListenPort)
	}
	if cfg.RemotePort <= 0 || cfg.RemotePort > 65535 {
		return cfg, fmt.Errorf("invalid remote-port: %d", cfg.RemotePort)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = net.JoinHostPort(cfg.ListenHost, strconv.Itoa(cfg.ListenPort))
	}
	if cfg.RemoteAddr == "" {
		cfg.RemoteAddr = net.JoinHostPort(cfg.RemoteHost, strconv.Itoa(cfg.RemotePort))
	}

	return cfg, nil
}
