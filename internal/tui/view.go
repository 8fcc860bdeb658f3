package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *LogView) View() string {
	if !m.ready {
		return "starting..."
	}

	sections := []string{
		m.renderHeader(),
		m.styles.border.Render(m.viewport.View()),
	}
	if m.showChart {
		sections = append(sections,
			m.styles.dim.Render("Traffic (events/s)"),
			m.chart.render(m.width, chartHeight, m.styles),
		)
	}
	sections = append(sections, m.renderComposer(), m.renderStatusLine())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *LogView) renderHeader() string {
	title := m.styles.title.Render("linetap")

	var parts []string
	if m.cfg.SerialLabel != "" {
		parts = append(parts, m.styles.serialTag.Render("serial:"+m.cfg.SerialLabel))
	}
	if m.cfg.ListenAddr != "" {
		parts = append(parts, m.styles.socketTag.Render("listen:"+m.cfg.ListenAddr))
	}
	if m.cfg.RemoteAddr != "" {
		parts = append(parts, m.styles.dim.Render("remote:"+m.cfg.RemoteAddr))
	}
	info := strings.Join(parts, "  ")

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(info)
	if gap < 1 {
		return title
	}
	return title + strings.Repeat(" ", gap) + info
}

func (m *LogView) renderComposer() string {
	if m.composing {
		return m.input.View()
	}
	return m.styles.dim.Render("tab: compose message")
}

func (m *LogView) renderStatusLine() string {
	if m.confirmingQuit {
		return m.styles.accent.Render("Quit? (y/n)")
	}

	style := m.styles.status
	if !m.statusIsOK {
		style = m.styles.errText
	}
	left := style.Render(m.status)
	right := m.styles.dim.Render(fmt.Sprintf("%d events  q:quit c:clear w:save t:chart", m.eventCount))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}
