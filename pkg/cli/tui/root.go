package tui

import (
	"strings"

	"scout-sync-go/pkg/models"
	"scout-sync-go/pkg/tasks"

	tea "github.com/charmbracelet/bubbletea"
)

// StateSource streams controller snapshots
type StateSource interface {
	Subscribe() (<-chan tasks.State, func())
}

// Controller is everything the TUI needs from the task controller
type Controller interface {
	TaskController
	StateSource
}

// rootModel is the Bubble Tea model that acts as an app shell for multiple flows.
// It owns the controller subscriptions and keeps the monitor up to date even
// while another flow is shown.
type rootModel struct {
	ctrl    Controller
	history HistoryLoader
	feed    *NotificationFeed

	states      <-chan tasks.State
	unsubscribe func()

	monitor  *monitorModel
	showHelp bool
	size     tea.WindowSizeMsg

	// Current active flow (when nil, we are in the main menu)
	current tea.Model
}

// NewRootModel constructs the root app-shell model.
func NewRootModel(ctrl Controller, history HistoryLoader, feed *NotificationFeed) tea.Model {
	states, unsubscribe := ctrl.Subscribe()
	return &rootModel{
		ctrl:        ctrl,
		history:     history,
		feed:        feed,
		states:      states,
		unsubscribe: unsubscribe,
		monitor:     newMonitorModel(ctrl),
	}
}

func (m *rootModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.states),
		waitForNotification(m.feed),
		m.monitor.Init(),
	)
}

func (m *rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if !msg.ok {
			return m, nil
		}
		m.monitor.setState(msg.state)
		return m, waitForState(m.states)

	case notificationMsg:
		m.monitor.addNotification(msg.note)
		return m, waitForNotification(m.feed)

	case backToMenuMsg:
		m.current = nil
		return m, nil

	case tea.WindowSizeMsg:
		m.size = msg
		m.monitor.Update(msg)
		if m.current != nil && m.current != tea.Model(m.monitor) {
			var cmd tea.Cmd
			m.current, cmd = m.current.Update(msg)
			return m, cmd
		}
		return m, nil

	case actionDoneMsg:
		_, cmd := m.monitor.Update(msg)
		return m, cmd
	}

	key, isKey := msg.(tea.KeyMsg)
	if m.current == nil {
		if !isKey {
			// Spinner ticks keep flowing while the menu is shown.
			_, cmd := m.monitor.Update(msg)
			return m, cmd
		}
		return m.handleMenuKey(key)
	}

	var cmd tea.Cmd
	m.current, cmd = m.current.Update(msg)
	if !isKey && m.current != tea.Model(m.monitor) {
		_, tick := m.monitor.Update(msg)
		cmd = tea.Batch(cmd, tick)
	}
	return m, cmd
}

func (m *rootModel) handleMenuKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.unsubscribe()
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "1":
		m.current = m.monitor
		return m, m.monitor.requestStart(models.JobPhotos)

	case "2":
		m.current = m.monitor
		return m, m.monitor.requestStart(models.JobData)

	case "3":
		m.current = m.monitor
		return m, nil

	case "4":
		m.current = m.monitor
		return m, m.monitor.syncCmd(false)

	case "5":
		m.current = m.monitor
		return m, m.monitor.syncCmd(true)

	case "6":
		h := newHistoryModel(m.history)
		if m.size.Width > 0 {
			h.Update(m.size)
		}
		m.current = h
		return m, h.Init()
	}

	return m, nil
}

func (m *rootModel) View() string {
	// When a flow is active, defer to its view.
	if m.current != nil {
		return m.current.View()
	}

	var b strings.Builder

	b.WriteString(renderTitle("Scout Sync"))
	b.WriteString(renderDivider(60))
	b.WriteString("\n\n")

	if s := m.monitor.state; s.TaskID != "" {
		b.WriteString(mutedStyle.Render("Tracking task ") + taskIDStyle.Render(s.TaskID))
		b.WriteString(mutedStyle.Render(" • press 3 to open the monitor") + "\n\n")
	}

	b.WriteString(boldStyle.Render("Select an action:") + "\n\n")
	b.WriteString("  " + selectedMarkerStyle.Render("1)") + " Scrape player photos\n")
	b.WriteString("  " + selectedMarkerStyle.Render("2)") + " Update player data\n")
	b.WriteString("  " + selectedMarkerStyle.Render("3)") + " Task monitor\n")
	b.WriteString("  " + selectedMarkerStyle.Render("4)") + " Import from Google Sheets\n")
	b.WriteString("  " + selectedMarkerStyle.Render("5)") + " Export to Google Sheets\n")
	b.WriteString("  " + selectedMarkerStyle.Render("6)") + " Sync history\n")
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(RootMenuHelpContent())
		b.WriteString("\n")
		b.WriteString(MonitorHelpContent())
		b.WriteString("\n")
		b.WriteString(HistoryHelpContent())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("Press the number of an option, ? for help, or 'q' / Esc to quit.") + "\n")

	return b.String()
}
