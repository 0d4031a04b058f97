package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scout-sync-go/pkg/models"
	"scout-sync-go/pkg/tasks"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var errStartDisabled = errors.New("a task is already running; cancel it or wait for it to finish")

const (
	maxNotifications = 6
	actionTimeout    = 30 * time.Second
)

// TaskController is the controller surface the TUI drives
type TaskController interface {
	StartPhotoScraping(ctx context.Context) (string, error)
	StartDataScraping(ctx context.Context) (string, error)
	Cancel(ctx context.Context) error
	StartPolling()
	StopPolling()
	SyncGoogleSheets(ctx context.Context) (*models.SyncResult, error)
	ExportToSheets(ctx context.Context) (*models.SyncResult, error)
}

// monitorModel shows the tracked task, sync state and recent notifications.
// The root model feeds it controller snapshots even while it is hidden.
type monitorModel struct {
	ctrl     TaskController
	state    tasks.State
	notes    []tasks.Notification
	actionErr error

	spinner  spinner.Model
	progress progress.Model
	width    int
}

func newMonitorModel(ctrl TaskController) *monitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = infoStyle

	p := progress.New(progress.WithDefaultGradient(), progress.WithWidth(50))

	return &monitorModel{
		ctrl:     ctrl,
		spinner:  s,
		progress: p,
		width:    80,
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *monitorModel) setState(s tasks.State) {
	m.state = s
}

func (m *monitorModel) addNotification(n tasks.Notification) {
	m.notes = append(m.notes, n)
	if len(m.notes) > maxNotifications {
		m.notes = m.notes[len(m.notes)-maxNotifications:]
	}
}

// run wraps a controller action as a command.
func run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{err: fn(ctx)}
	}
}

func (m *monitorModel) startCmd(kind models.JobKind) tea.Cmd {
	start := m.ctrl.StartPhotoScraping
	if kind == models.JobData {
		start = m.ctrl.StartDataScraping
	}
	return run(func(ctx context.Context) error {
		_, err := start(ctx)
		return err
	})
}

// requestStart starts a job unless the current state disables starting.
func (m *monitorModel) requestStart(kind models.JobKind) tea.Cmd {
	if !m.state.CanStart() {
		m.actionErr = errStartDisabled
		return nil
	}
	return m.startCmd(kind)
}

func (m *monitorModel) syncCmd(export bool) tea.Cmd {
	call := m.ctrl.SyncGoogleSheets
	if export {
		call = m.ctrl.ExportToSheets
	}
	return run(func(ctx context.Context) error {
		_, err := call(ctx)
		return err
	})
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 20; w > 10 {
			m.progress.Width = min(w, 60)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionDoneMsg:
		m.actionErr = nil
		if errors.Is(msg.err, tasks.ErrActionInFlight) {
			m.actionErr = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		m.actionErr = nil
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc", "m":
			return m, backToMenu
		case "c":
			if m.state.TaskID == "" {
				return m, nil
			}
			return m, run(m.ctrl.Cancel)
		case "p":
			if m.state.IsPolling {
				m.ctrl.StopPolling()
			} else {
				m.ctrl.StartPolling()
			}
			return m, nil
		case "1":
			return m, m.requestStart(models.JobPhotos)
		case "2":
			return m, m.requestStart(models.JobData)
		case "s":
			return m, m.syncCmd(false)
		case "e":
			return m, m.syncCmd(true)
		}
	}
	return m, nil
}

func (m *monitorModel) View() string {
	var b strings.Builder
	b.WriteString(renderTitle("Scraping Monitor"))
	b.WriteString(renderDivider(min(m.width, 70)))
	b.WriteString("\n\n")

	b.WriteString(m.renderTask())
	b.WriteString("\n")
	b.WriteString(m.renderSync())
	b.WriteString("\n")

	if m.actionErr != nil {
		b.WriteString(renderWarning(m.actionErr.Error()) + "\n\n")
	}

	b.WriteString(renderNotificationPanel(m.notes, min(m.width-4, 80)))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(monitorKeyHint(m.state)) + "\n")
	return b.String()
}

func (m *monitorModel) renderTask() string {
	s := m.state
	var b strings.Builder

	switch {
	case s.IsStarting:
		b.WriteString(m.spinner.View() + " Starting task...\n")
		return b.String()
	case s.IsCancelling:
		b.WriteString(m.spinner.View() + " Cancelling...\n")
		return b.String()
	case s.TaskID == "":
		b.WriteString(mutedStyle.Render("No task tracked. Press 1 (photos) or 2 (data) to start one.") + "\n")
		return b.String()
	}

	b.WriteString(fieldLabelStyle.Render("Task:") + " " + taskIDStyle.Render(s.TaskID) + "\n")
	b.WriteString(fieldLabelStyle.Render("Status:") + " " + renderStatus(s) + "\n")

	if s.Task != nil {
		b.WriteString(fieldLabelStyle.Render("Progress:") + " " +
			m.progress.ViewAs(float64(s.Progress())/100) + "\n")
		if s.Task.TotalItems != nil {
			b.WriteString(fieldLabelStyle.Render("Items:") + " " +
				fmt.Sprintf("%d/%d", models.IntValue(s.Task.ProcessedItems), *s.Task.TotalItems) + "\n")
		}
		if s.Task.CurrentStep != nil && *s.Task.CurrentStep != "" {
			b.WriteString(fieldLabelStyle.Render("Step:") + " " + *s.Task.CurrentStep + "\n")
		}
		if n := len(s.Task.Errors); n > 0 {
			b.WriteString(fieldLabelStyle.Render("Errors:") + " " +
				warningStyle.Render(fmt.Sprintf("%d (latest: %s)", n, truncate(s.Task.Errors[n-1], 60))) + "\n")
		}
	}
	return b.String()
}

func renderStatus(s tasks.State) string {
	switch {
	case s.IsCompleted():
		return successStyle.Render("completed")
	case s.IsFailed():
		return errorStyle.Render("failed")
	case s.IsCancelled():
		return warningStyle.Render("cancelled")
	case s.Task == nil && s.IsPolling:
		return infoStyle.Render("waiting for first status")
	case s.Task == nil:
		return mutedStyle.Render("unknown (polling paused)")
	}
	status := infoStyle.Render(string(s.Task.Status))
	if !s.IsPolling {
		status += mutedStyle.Render(" (polling paused)")
	}
	return status
}

func (m *monitorModel) renderSync() string {
	s := m.state
	if s.IsSyncing {
		return m.spinner.View() + " Syncing with Google Sheets...\n"
	}
	if s.LastSync == nil {
		return ""
	}
	r := s.LastSync
	line := fmt.Sprintf("Last sync: %d created, %d updated, %d failed",
		models.IntValue(r.RecordsCreated),
		models.IntValue(r.RecordsUpdated),
		models.IntValue(r.RecordsFailed),
	)
	if !r.Success {
		return renderError("Last sync failed: "+r.Message) + "\n"
	}
	return mutedStyle.Render(line) + "\n"
}

func monitorKeyHint(s tasks.State) string {
	keys := []string{}
	if s.CanStart() {
		keys = append(keys, "1 photos", "2 data")
	}
	if s.TaskID != "" {
		keys = append(keys, "c cancel")
		if !s.IsCompleted() && !s.IsFailed() && !s.IsCancelled() {
			if s.IsPolling {
				keys = append(keys, "p pause polling")
			} else {
				keys = append(keys, "p resume polling")
			}
		}
	}
	if !s.IsSyncing {
		keys = append(keys, "s sync", "e export")
	}
	keys = append(keys, "m menu", "q quit")
	return strings.Join(keys, " • ")
}
