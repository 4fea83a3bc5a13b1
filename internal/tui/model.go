// Package tui implements the pulse-top terminal dashboard. It polls a
// running agent over the control socket and renders the live state of
// every registered stream.
package tui

import (
	"sort"
	"time"

	"github.com/tinytelemetry/pulse/internal/control"
	"github.com/tinytelemetry/pulse/internal/engine"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// DataSource is the slice of the control client the dashboard reads from.
type DataSource interface {
	ListStreams() ([]engine.StreamInfo, error)
	GetAllSnapshots() ([]control.StreamSnapshot, error)
	SwitchStream(path string, on bool) error
	ServerInfo() (control.Info, error)
}

// streamRow is one sidebar entry with its most recent decoded state.
type streamRow struct {
	Info     engine.StreamInfo
	State    any
	Captured time.Time
}

type tickMsg time.Time

type dataMsg struct {
	rows []streamRow
	info control.Info
}

type errMsg struct{ err error }

// DashboardModel is the single-page Bubble Tea model behind pulse-top.
type DashboardModel struct {
	source   DataSource
	refresh  time.Duration
	keys     KeyMap
	rows     []streamRow
	server   control.Info
	selected int
	width    int
	height   int
	paused   bool
	lastErr  string
}

// NewDashboardModel creates a dashboard polling source every refresh interval.
func NewDashboardModel(source DataSource, refresh time.Duration) *DashboardModel {
	if refresh <= 0 {
		refresh = time.Second
	}
	return &DashboardModel{
		source:  source,
		refresh: refresh,
		keys:    DefaultKeyMap(),
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd pulls streams and snapshots off the control socket in a command
// so the UI loop never blocks on socket IO.
func (m *DashboardModel) fetchCmd() tea.Cmd {
	src := m.source
	return func() tea.Msg {
		streams, err := src.ListStreams()
		if err != nil {
			return errMsg{err}
		}
		snaps, err := src.GetAllSnapshots()
		if err != nil {
			return errMsg{err}
		}
		info, err := src.ServerInfo()
		if err != nil {
			return errMsg{err}
		}
		return dataMsg{rows: buildRows(streams, snaps), info: info}
	}
}

// buildRows joins the stream listing with decoded snapshot states. Streams
// with no snapshot yet keep a nil state and still show up in the sidebar.
func buildRows(streams []engine.StreamInfo, snaps []control.StreamSnapshot) []streamRow {
	byPath := make(map[string]control.StreamSnapshot, len(snaps))
	for _, s := range snaps {
		byPath[string(s.Path)] = s
	}
	rows := make([]streamRow, 0, len(streams))
	for _, st := range streams {
		row := streamRow{Info: st}
		if snap, ok := byPath[string(st.Path)]; ok {
			if state, err := snap.DecodeState(); err == nil {
				row.State = state
				row.Captured = snap.CapturedAt
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Info.Path < rows[j].Info.Path
	})
	return rows
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.paused {
			return m, m.tickCmd()
		}
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case dataMsg:
		m.rows = msg.rows
		m.server = msg.info
		m.lastErr = ""
		if m.selected >= len(m.rows) && len(m.rows) > 0 {
			m.selected = len(m.rows) - 1
		}
		return m, nil

	case errMsg:
		m.lastErr = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.rows)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchCmd()

	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggleCmd()
	}
	return m, nil
}

// toggleCmd flips the selected stream's activation and refetches so the
// sidebar reflects the new state right away.
func (m *DashboardModel) toggleCmd() tea.Cmd {
	if m.selected >= len(m.rows) {
		return nil
	}
	row := m.rows[m.selected]
	src := m.source
	fetch := m.fetchCmd()
	return func() tea.Msg {
		if err := src.SwitchStream(string(row.Info.Path), !row.Info.Active); err != nil {
			return errMsg{err}
		}
		return fetch()
	}
}

// Selected returns the currently highlighted row, if any.
func (m *DashboardModel) Selected() (streamRow, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return streamRow{}, false
	}
	return m.rows[m.selected], true
}
