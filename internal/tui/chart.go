package tui

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/linetap/internal/model"
)

// trafficSample is one second of per-source event counts.
type trafficSample struct {
	second time.Time
	serial int
	socket int
}

// trafficChart accumulates per-second event counts and renders them as a
// stacked bar chart, one bar per second.
type trafficChart struct {
	samples []trafficSample
	max     int
}

func newTrafficChart(max int) *trafficChart {
	if max <= 0 {
		max = 60
	}
	return &trafficChart{max: max}
}

// record buckets one event by its capture second.
func (c *trafficChart) record(ev model.LogEvent) {
	second := ev.Timestamp.Truncate(time.Second)
	if n := len(c.samples); n > 0 && c.samples[n-1].second.Equal(second) {
		if ev.Source == model.SourceSerial {
			c.samples[n-1].serial++
		} else {
			c.samples[n-1].socket++
		}
		return
	}

	sample := trafficSample{second: second}
	if ev.Source == model.SourceSerial {
		sample.serial = 1
	} else {
		sample.socket = 1
	}
	c.samples = append(c.samples, sample)
	if len(c.samples) > c.max {
		c.samples = c.samples[len(c.samples)-c.max:]
	}
}

func (c *trafficChart) reset() {
	c.samples = nil
}

// render draws the chart with a small legend to the right.
func (c *trafficChart) render(width, height int, st styles) string {
	if len(c.samples) == 0 {
		return st.dim.Render("No traffic yet")
	}

	legendWidth := 16
	chartWidth := width - legendWidth - 2
	if chartWidth < 20 {
		chartWidth = 20
	}
	if height < 3 {
		height = 3
	}

	serialStyle := st.serialTag.Background(st.serialColor)
	socketStyle := st.socketTag.Background(st.socketColor)

	bc := barchart.New(chartWidth, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)

	maxBars := chartWidth / 2
	start := 0
	if len(c.samples) > maxBars {
		start = len(c.samples) - maxBars
	}
	for _, sample := range c.samples[start:] {
		var values []barchart.BarValue
		if sample.serial > 0 {
			values = append(values, barchart.BarValue{Name: "serial", Value: float64(sample.serial), Style: serialStyle})
		}
		if sample.socket > 0 {
			values = append(values, barchart.BarValue{Name: "socket", Value: float64(sample.socket), Style: socketStyle})
		}
		if len(values) == 0 {
			values = append(values, barchart.BarValue{Name: "none", Value: 0, Style: st.dim})
		}
		bc.Push(barchart.BarData{Label: "", Values: values})
	}
	bc.Draw()

	latest := c.samples[len(c.samples)-1]
	legend := lipgloss.JoinVertical(lipgloss.Left,
		st.serialTag.Render(fmt.Sprintf("serial %4d/s", latest.serial)),
		st.socketTag.Render(fmt.Sprintf("socket %4d/s", latest.socket)),
	)

	return lipgloss.JoinHorizontal(lipgloss.Bottom, bc.View(), "  ", legend)
}
