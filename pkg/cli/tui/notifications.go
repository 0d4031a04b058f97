package tui

import (
	"fmt"
	"strings"

	"scout-sync-go/pkg/tasks"
)

const feedBuffer = 32

// NotificationFeed adapts controller notifications to Bubble Tea messages.
// It never blocks the controller: when the UI falls behind, the oldest
// undelivered notification is dropped.
type NotificationFeed struct {
	ch chan tasks.Notification
}

func NewNotificationFeed() *NotificationFeed {
	return &NotificationFeed{ch: make(chan tasks.Notification, feedBuffer)}
}

// Notify implements tasks.Notifier.
func (f *NotificationFeed) Notify(n tasks.Notification) {
	for {
		select {
		case f.ch <- n:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// renderNotification renders one notification with a level-colored marker
func renderNotification(n tasks.Notification) string {
	var line string
	switch n.Level {
	case tasks.LevelSuccess:
		line = renderSuccess(n.Title)
	case tasks.LevelError:
		line = renderError(n.Title)
	case tasks.LevelWarning:
		line = renderWarning(n.Title)
	default:
		line = infoStyle.Render("• " + n.Title)
	}
	if n.Description != "" {
		line += mutedStyle.Render(" - " + n.Description)
	}
	return line
}

// renderNotificationPanel renders the newest notifications last
func renderNotificationPanel(notes []tasks.Notification, width int) string {
	var b strings.Builder
	b.WriteString(boldStyle.Render(fmt.Sprintf("Notifications (%d)", len(notes))))
	if len(notes) == 0 {
		b.WriteString("\n" + mutedStyle.Render("Nothing yet."))
	}
	for _, n := range notes {
		b.WriteString("\n" + renderNotification(n))
	}
	return panelStyle.Width(width).Render(b.String())
}
