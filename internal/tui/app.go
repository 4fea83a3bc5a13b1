package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the dashboard and blocks until the user quits.
func Run(source DataSource, refresh time.Duration) error {
	model := NewDashboardModel(source, refresh)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("dashboard requires a real terminal")
		}
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}
