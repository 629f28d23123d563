package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxLiveRows   = 12
	chartHeight   = 8
	minChartWidth = 20
)

// Lister fetches the packages currently retained by the service.
type Lister interface {
	List(ctx context.Context) ([]json.RawMessage, error)
}

// TickMsg triggers a refresh.
type TickMsg time.Time

type packagesLoadedMsg struct {
	packages []json.RawMessage
	err      error
	at       time.Time
}

// Config holds tunables for the monitor.
type Config struct {
	UpdateInterval time.Duration
	PointLifetime  time.Duration
	ServiceURL     string
	// Now overrides the wall clock (tests).
	Now func() time.Time
}

// MonitorModel is the Bubble Tea model for the traffic monitor.
type MonitorModel struct {
	lister         Lister
	tracker        *Tracker
	keys           KeyMap
	help           help.Model
	updateInterval time.Duration
	serviceURL     string
	now            func() time.Time

	paused        bool
	fetchInFlight bool
	lastErr       string
	lastFetch     time.Time
	lastAdded     int

	width  int
	height int
}

// NewMonitorModel creates a monitor polling lister.
func NewMonitorModel(lister Lister, cfg Config) *MonitorModel {
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = time.Second
	}
	if cfg.PointLifetime <= 0 {
		cfg.PointLifetime = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &MonitorModel{
		lister:         lister,
		tracker:        NewTracker(cfg.PointLifetime),
		keys:           DefaultKeyMap(),
		help:           help.New(),
		updateInterval: cfg.UpdateInterval,
		serviceURL:     cfg.ServiceURL,
		now:            cfg.Now,
	}
}

func (m *MonitorModel) Init() tea.Cmd {
	m.fetchInFlight = true
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m *MonitorModel) tickCmd() tea.Cmd {
	return tea.Tick(m.updateInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *MonitorModel) fetchCmd() tea.Cmd {
	lister := m.lister
	now := m.now
	return func() tea.Msg {
		// The lister's own request timeout bounds the poll.
		packages, err := lister.List(context.Background())
		return packagesLoadedMsg{packages: packages, err: err, at: now()}
	}
}

// Update handles messages
func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case TickMsg:
		// Paused monitors keep ticking but stop polling.
		if m.paused || m.fetchInFlight {
			return m, m.tickCmd()
		}
		m.fetchInFlight = true
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case packagesLoadedMsg:
		m.fetchInFlight = false
		m.lastFetch = msg.at
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.tracker.Expire(msg.at)
			return m, nil
		}
		m.lastErr = ""
		if m.paused {
			return m, nil
		}
		m.lastAdded = m.tracker.Observe(msg.packages, msg.at)
		return m, nil
	}

	return m, nil
}

func (m *MonitorModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Reset):
		m.tracker.Reset()
		m.lastAdded = 0
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// Paused reports whether polling is suspended.
func (m *MonitorModel) Paused() bool {
	return m.paused
}

// Stats exposes the tracker counters.
func (m *MonitorModel) Stats() Stats {
	return m.tracker.Stats()
}

func (m *MonitorModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	stats := m.tracker.Stats()

	header := titleStyle.Render("packetstream monitor")
	if m.serviceURL != "" {
		header += "  " + labelStyle.Render(m.serviceURL)
	}
	if m.paused {
		header += "  " + pausedStyle.Render("PAUSED")
	}

	counters := lipgloss.JoinHorizontal(lipgloss.Top,
		counter("Total", fmt.Sprint(stats.Total), valueStyle),
		counter("Suspicious", fmt.Sprint(stats.Suspicious), suspiciousStyle),
		counter("Live", fmt.Sprint(stats.Live), normalStyle),
		counter("New", fmt.Sprint(m.lastAdded), valueStyle),
	)

	var body string
	if m.lastFetch.IsZero() {
		body = renderLoadingPlaceholder(width, chartHeight+4, m.serviceURL)
	} else {
		half := width/2 - 2
		if half < minChartWidth+4 {
			half = minChartWidth + 4
		}
		locations := sectionStyle.Width(half).Render(m.renderTopLocations(stats.TopLocations, half-4))
		live := sectionStyle.Width(half).Render(m.renderLivePoints())
		body = lipgloss.JoinHorizontal(lipgloss.Top, locations, live)
	}

	status := m.help.View(m.keys)
	if m.lastErr != "" {
		status = errorStyle.Render("fetch error: "+m.lastErr) + "\n" + status
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, counters, body, status)
}

func counter(label, value string, style lipgloss.Style) string {
	return sectionStyle.Render(labelStyle.Render(label) + "\n" + style.Render(value))
}

func (m *MonitorModel) renderTopLocations(top []LocationCount, width int) string {
	title := chartTitleStyle.Render("Top Locations")
	if len(top) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("No data available"))
	}
	if width < minChartWidth {
		width = minChartWidth
	}

	bc := barchart.New(width, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithNoAxis(),
	)
	for i, loc := range top {
		bc.Push(barchart.BarData{
			Label: fmt.Sprint(i + 1),
			Values: []barchart.BarValue{
				{Name: loc.Location, Value: float64(loc.Count), Style: barStyle},
			},
		})
	}
	bc.Draw()

	legend := make([]string, len(top))
	for i, loc := range top {
		legend[i] = fmt.Sprintf("%d. %s (%d)", i+1, loc.Location, loc.Count)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, bc.View(), strings.Join(legend, "\n"))
}

func (m *MonitorModel) renderLivePoints() string {
	title := chartTitleStyle.Render("Live Points")
	points := m.tracker.LivePoints()
	if len(points) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("Waiting for traffic"))
	}

	now := m.lastFetch
	lines := make([]string, 0, maxLiveRows)
	for i, p := range points {
		if i == maxLiveRows {
			lines = append(lines, helpStyle.Render(fmt.Sprintf("… %d more", len(points)-maxLiveRows)))
			break
		}
		style := normalStyle
		marker := "●"
		if p.Suspicious {
			style = suspiciousStyle
			marker = "▲"
		}
		age := now.Sub(p.SeenAt).Truncate(time.Second)
		lines = append(lines, fmt.Sprintf("%s %-15s %s %s",
			style.Render(marker), p.Address, labelStyle.Render(p.Location), helpStyle.Render(age.String())))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}
