package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/linetap/internal/model"
)

// Skin defines the color palette for the log view. Values are lipgloss
// color strings (ANSI index or hex).
type Skin struct {
	Border    string `yaml:"border"`
	Title     string `yaml:"title"`
	Timestamp string `yaml:"timestamp"`
	SerialTag string `yaml:"serial-tag"`
	SocketTag string `yaml:"socket-tag"`
	Status    string `yaml:"status"`
	Error     string `yaml:"error"`
	Accent    string `yaml:"accent"`
	Dim       string `yaml:"dim"`
}

// DefaultSkin returns the built-in palette.
func DefaultSkin() Skin {
	return Skin{
		Border:    "240",
		Title:     "39",
		Timestamp: "244",
		SerialTag: "42",
		SocketTag: "39",
		Status:    "250",
		Error:     "196",
		Accent:    "220",
		Dim:       "240",
	}
}

// LoadSkin resolves a named skin from configDir/skins/<name>.yml. The
// reserved name "default" (or an empty name) returns the built-in palette.
// Keys missing from the file keep their default values.
func LoadSkin(name, configDir string) (Skin, error) {
	skin := DefaultSkin()
	if name == "" || name == model.DefaultSkin {
		return skin, nil
	}

	path := filepath.Join(configDir, "skins", name+".yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return skin, fmt.Errorf("read skin %q: %w", name, err)
	}
	if err := yaml.Unmarshal(data, &skin); err != nil {
		return skin, fmt.Errorf("parse skin %q: %w", name, err)
	}
	return skin, nil
}

// styles holds the pre-built lipgloss styles derived from a Skin, plus
// the raw source colors for chart bars.
type styles struct {
	border    lipgloss.Style
	title     lipgloss.Style
	timestamp lipgloss.Style
	serialTag lipgloss.Style
	socketTag lipgloss.Style
	status    lipgloss.Style
	errText   lipgloss.Style
	accent    lipgloss.Style
	dim       lipgloss.Style

	serialColor lipgloss.Color
	socketColor lipgloss.Color
}

func newStyles(s Skin) styles {
	return styles{
		serialColor: lipgloss.Color(s.SerialTag),
		socketColor: lipgloss.Color(s.SocketTag),

		border:    lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(s.Border)),
		title:     lipgloss.NewStyle().Foreground(lipgloss.Color(s.Title)).Bold(true),
		timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color(s.Timestamp)),
		serialTag: lipgloss.NewStyle().Foreground(lipgloss.Color(s.SerialTag)),
		socketTag: lipgloss.NewStyle().Foreground(lipgloss.Color(s.SocketTag)),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color(s.Status)),
		errText:   lipgloss.NewStyle().Foreground(lipgloss.Color(s.Error)),
		accent:    lipgloss.NewStyle().Foreground(lipgloss.Color(s.Accent)),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(s.Dim)),
	}
}
