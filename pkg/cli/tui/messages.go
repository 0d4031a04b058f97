package tui

import (
	"scout-sync-go/pkg/models"
	"scout-sync-go/pkg/tasks"

	tea "github.com/charmbracelet/bubbletea"
)

// stateMsg carries a controller snapshot; ok is false once the
// subscription channel is closed.
type stateMsg struct {
	state tasks.State
	ok    bool
}

type notificationMsg struct {
	note tasks.Notification
}

// actionDoneMsg reports the return of a controller action. Failures are
// already shown as notifications; only ErrActionInFlight needs a message.
type actionDoneMsg struct {
	err error
}

type historyLoadedMsg struct {
	records []models.SyncRecord
	err     error
}

// backToMenuMsg asks the root model to show the main menu.
type backToMenuMsg struct{}

func backToMenu() tea.Msg { return backToMenuMsg{} }

func waitForState(ch <-chan tasks.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		return stateMsg{state: s, ok: ok}
	}
}

func waitForNotification(feed *NotificationFeed) tea.Cmd {
	return func() tea.Msg {
		return notificationMsg{note: <-feed.ch}
	}
}
