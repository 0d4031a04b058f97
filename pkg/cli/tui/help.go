package tui

import (
	"fmt"
	"strings"
)

// HelpItem represents a single keyboard shortcut and its description
type HelpItem struct {
	Key         string
	Description string
}

// RootMenuHelpContent returns help for root menu
func RootMenuHelpContent() string {
	items := []HelpItem{
		{"1-2", "Start photo / data scraping"},
		{"3", "Open the task monitor"},
		{"4-5", "Import from / export to Google Sheets"},
		{"6", "Browse sync history"},
		{"q / Esc", "Quit"},
		{"?", "Toggle this help"},
	}
	return renderHelpItems(items)
}

// MonitorHelpContent returns help for the task monitor
func MonitorHelpContent() string {
	items := []HelpItem{
		{"1 / 2", "Start photo / data scraping"},
		{"c", "Cancel the tracked task"},
		{"p", "Pause or resume status polling"},
		{"s / e", "Import / export Google Sheets"},
		{"m / Esc", "Return to menu"},
		{"q", "Quit"},
	}
	return renderHelpItems(items)
}

// HistoryHelpContent returns help for the sync history browser
func HistoryHelpContent() string {
	items := []HelpItem{
		{"↑ / ↓ / j / k", "Select a sync run"},
		{"PgUp / PgDn", "Scroll the error list"},
		{"r", "Reload"},
		{"m / Esc", "Return to menu"},
		{"q", "Quit"},
	}
	return renderHelpItems(items)
}

// renderHelpItems formats help items into a readable string
func renderHelpItems(items []HelpItem) string {
	var b strings.Builder
	keyStyle := boldStyle.Foreground(colorPrimary)
	for _, item := range items {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(item.Key),
			item.Description))
	}
	return b.String()
}
