package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tinytelemetry/pulse/internal/metric"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

var (
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#49E209")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("39"))

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// renderState renders the detail panel body for any of the stream kinds.
func renderState(state any, width int) string {
	switch s := state.(type) {
	case metric.CounterState:
		return renderCounter(s)
	case metric.GaugeState:
		return renderGauge(s)
	case metric.HistogramState:
		return renderHistogram(s, width)
	case metric.LogState:
		return renderLog(s, width)
	default:
		return labelStyle.Render(fmt.Sprintf("unsupported state %T", state))
	}
}

func renderCounter(s metric.CounterState) string {
	return labelStyle.Render("total ") + valueStyle.Render(formatFloat(s.Total))
}

func renderGauge(s metric.GaugeState) string {
	lines := []string{
		labelStyle.Render("value ") + valueStyle.Render(formatFloat(s.Value)),
	}
	if s.Count > 0 {
		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("min %s  max %s  over %d updates",
				formatFloat(s.Min), formatFloat(s.Max), s.Count)))
	}
	return strings.Join(lines, "\n")
}

// renderHistogram draws one bar per bucket, scaled by each bucket's share
// of the total observed sum, with a level/count legend underneath.
func renderHistogram(s metric.HistogramState, width int) string {
	bars := s.Bars()
	if len(bars) == 0 {
		return labelStyle.Render("no buckets")
	}

	chartWidth := len(bars) * 2
	if chartWidth > width {
		chartWidth = width
	}
	bc := barchart.New(chartWidth, 8,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	for _, bar := range bars {
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: levelLabel(bar.Level), Value: float64(bar.Pct), Style: barStyle},
			},
		})
	}
	bc.Draw()

	var legend strings.Builder
	for _, bar := range bars {
		legend.WriteString(fmt.Sprintf("%8s %6d  %5.1f%%\n",
			levelLabel(bar.Level), bar.Count, float64(bar.Pct)*100))
	}
	legend.WriteString(fmt.Sprintf("%8s %6d  sum %s",
		"all", s.Total.Count, formatFloat(s.Total.Sum)))

	return bc.View() + "\n" + labelStyle.Render(legend.String())
}

func renderLog(s metric.LogState, width int) string {
	if len(s.Records) == 0 {
		return labelStyle.Render("no records")
	}
	var b strings.Builder
	// The timestamp prefix takes 13 cells.
	maxMsg := width - 13
	if maxMsg < 8 {
		maxMsg = 8
	}
	for i, rec := range s.Records {
		msg := rec.Message
		if len(msg) > maxMsg {
			msg = msg[:maxMsg-1] + "…"
		}
		b.WriteString(logTimeStyle.Render(rec.Timestamp.Time().Format("15:04:05.000")))
		b.WriteByte(' ')
		b.WriteString(msg)
		if i < len(s.Records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func levelLabel(level float64) string {
	if math.IsInf(level, 1) {
		return "+Inf"
	}
	return formatFloat(level)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
