package tui

import (
	"context"
	"fmt"
	"strings"

	"scout-sync-go/pkg/models"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const historyLimit = 20

// HistoryLoader lists recent sync runs
type HistoryLoader interface {
	SyncHistory(ctx context.Context, limit int) ([]models.SyncRecord, error)
}

// historyModel lists recent sync runs and shows the row errors of the
// selected one in a scrollable viewport.
type historyModel struct {
	api      HistoryLoader
	records  []models.SyncRecord
	selected int
	loading  bool
	err      error

	errors viewport.Model
	width  int
}

func newHistoryModel(api HistoryLoader) *historyModel {
	return &historyModel{
		api:     api,
		loading: true,
		errors:  viewport.New(76, 8),
		width:   80,
	}
}

func (m *historyModel) Init() tea.Cmd {
	return m.load()
}

func (m *historyModel) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		records, err := m.api.SyncHistory(ctx, historyLimit)
		return historyLoadedMsg{records: records, err: err}
	}
}

func (m *historyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.errors.Width = max(msg.Width-4, 20)
		m.errors.Height = max(msg.Height/3, 4)
		return m, nil

	case historyLoadedMsg:
		m.loading = false
		m.err = userFacingError(msg.err)
		m.records = msg.records
		m.selected = 0
		m.refreshErrors()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if handleQuitKeys(key) {
			return m, tea.Quit
		}
		switch key {
		case "esc", "m":
			return m, backToMenu
		case "r":
			m.loading = true
			m.err = nil
			return m, m.load()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.errors, cmd = m.errors.Update(msg)
			return m, cmd
		}
		if next, ok := handleListNavigation(key, m.selected, len(m.records)); ok {
			if next != m.selected {
				m.selected = next
				m.refreshErrors()
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *historyModel) refreshErrors() {
	if len(m.records) == 0 {
		m.errors.SetContent("")
		return
	}
	errs := m.records[m.selected].Errors
	if len(errs) == 0 {
		m.errors.SetContent(mutedStyle.Render("No row errors."))
	} else {
		m.errors.SetContent(strings.Join(errs, "\n"))
	}
	m.errors.GotoTop()
}

func (m *historyModel) View() string {
	if m.loading {
		return renderLoadingState("Loading sync history...")
	}
	if m.err != nil {
		return renderErrorView(m.err)
	}
	if len(m.records) == 0 {
		return renderEmptyState("No sync runs recorded.")
	}

	var b strings.Builder
	b.WriteString(renderTitle("Sync History"))

	for i, r := range m.records {
		marker := " "
		style := mutedStyle
		if i == m.selected {
			marker = selectedMarkerStyle.Render("→")
			style = selectedStyle
		}
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		line := fmt.Sprintf("%s  %-6s  %-6s  +%d ~%d !%d",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Direction,
			result,
			models.IntValue(r.RecordsCreated),
			models.IntValue(r.RecordsUpdated),
			models.IntValue(r.RecordsFailed),
		)
		b.WriteString(fmt.Sprintf("%s %s\n", marker, style.Render(line)))
	}

	b.WriteString("\n")
	b.WriteString(renderDivider(min(m.width, 70)))
	b.WriteString("\n")
	b.WriteString(renderSyncRecord(m.records[m.selected]))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.errors.View()))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ select • PgUp/PgDn scroll errors • r reload • m menu • q quit") + "\n")
	return b.String()
}
