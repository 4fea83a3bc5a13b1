package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const sidebarWidth = 34

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#49E209")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Width(sidebarWidth).
			Padding(0, 1)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D0A1")).
			Bold(true)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

func (m *DashboardModel) View() string {
	if m.width == 0 {
		return "loading..."
	}

	header := m.renderHeader()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderDetail())
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *DashboardModel) renderHeader() string {
	title := titleStyle.Render("pulse-top")
	status := fmt.Sprintf("agent %s  up %s  %d streams",
		m.server.Version, m.server.Uptime.Truncate(time.Second), m.server.StreamCount)
	if m.paused {
		status += "  [paused]"
	}
	return title + "  " + headerStyle.Render(status)
}

func (m *DashboardModel) renderSidebar() string {
	var b strings.Builder
	if len(m.rows) == 0 {
		b.WriteString(inactiveStyle.Render("no streams registered"))
	}
	for i, row := range m.rows {
		marker := "  "
		if i == m.selected {
			marker = "> "
		}
		dot := "○"
		if row.Info.Active {
			dot = "●"
		}
		line := fmt.Sprintf("%s%s %s", marker, dot, row.Info.Path)
		switch {
		case i == m.selected:
			line = selectedStyle.Render(line)
		case !row.Info.Active:
			line = inactiveStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(m.rows)-1 {
			b.WriteByte('\n')
		}
	}
	return sidebarStyle.Height(m.bodyHeight()).Render(b.String())
}

func (m *DashboardModel) renderDetail() string {
	width := m.width - sidebarWidth - 6
	if width < 20 {
		width = 20
	}

	var content string
	row, ok := m.Selected()
	switch {
	case !ok:
		content = inactiveStyle.Render("select a stream")
	case row.State == nil:
		content = inactiveStyle.Render("no snapshot yet")
	default:
		head := fmt.Sprintf("%s\n%s  captured %s\n\n",
			row.Info.Path, row.Info.StreamType, row.Captured.Format("15:04:05"))
		content = headerStyle.Render(head) + renderState(row.State, width)
	}

	return detailStyle.Width(width).Height(m.bodyHeight()).Render(content)
}

func (m *DashboardModel) renderFooter() string {
	if m.lastErr != "" {
		return errorStyle.Render("error: " + m.lastErr)
	}
	return helpStyle.Render("↑/↓ select  space on/off  p pause  r refresh  q quit")
}

func (m *DashboardModel) bodyHeight() int {
	h := m.height - 4
	if h < 5 {
		h = 5
	}
	return h
}
