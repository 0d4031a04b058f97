package tui

import (
	"errors"
	"fmt"
	"strings"

	"scout-sync-go/pkg/cli/client"
	"scout-sync-go/pkg/models"
)

// renderErrorView renders a standard error view with a way back
func renderErrorView(err error) string {
	return "\n" + renderError(fmt.Sprintf("Error: %v", err)) + "\n\n" +
		helpStyle.Render("Press m to return to the menu, q to quit.") + "\n"
}

// renderEmptyState renders a standard empty state message
func renderEmptyState(message string) string {
	return "\n" + mutedStyle.Render(message) + "\n\n" +
		helpStyle.Render("Press m to return to the menu, q to quit.") + "\n"
}

// renderLoadingState renders a standard loading message
func renderLoadingState(message string) string {
	return "\n" + infoStyle.Render(message) + "\n"
}

// truncate shortens s to maxLen runes
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// renderSyncRecord renders the labelled fields of one sync run
func renderSyncRecord(r models.SyncRecord) string {
	var b strings.Builder

	result := successStyle.Render("ok")
	if !r.Success {
		result = errorStyle.Render("failed")
	}

	b.WriteString(fieldLabelStyle.Render("When:"))
	b.WriteString(fmt.Sprintf(" %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	b.WriteString(fieldLabelStyle.Render("Direction:"))
	b.WriteString(fmt.Sprintf(" %s\n", r.Direction))
	b.WriteString(fieldLabelStyle.Render("Result:"))
	b.WriteString(fmt.Sprintf(" %s\n", result))
	if r.Message != "" {
		b.WriteString(fieldLabelStyle.Render("Message:"))
		b.WriteString(fmt.Sprintf(" %s\n", r.Message))
	}
	b.WriteString(fieldLabelStyle.Render("Records:"))
	b.WriteString(fmt.Sprintf(" %d created, %d updated, %d failed of %d\n",
		models.IntValue(r.RecordsCreated),
		models.IntValue(r.RecordsUpdated),
		models.IntValue(r.RecordsFailed),
		models.IntValue(r.TotalRecords),
	))
	return b.String()
}

// handleListNavigation handles common navigation keys for list views (up/down/j/k)
// Returns the new selected index and whether navigation occurred
func handleListNavigation(key string, selected int, total int) (newSelected int, handled bool) {
	switch key {
	case "up", "k":
		if selected > 0 {
			return selected - 1, true
		}
		return selected, true
	case "down", "j":
		if selected < total-1 {
			return selected + 1, true
		}
		return selected, true
	}
	return selected, false
}

// handleQuitKeys checks if a key should quit the program
func handleQuitKeys(key string) bool {
	switch key {
	case "ctrl+c", "q":
		return true
	}
	return false
}

// userFacingError converts structured client errors into friendly messages,
// while leaving other error types unchanged.
func userFacingError(err error) error {
	if err == nil {
		return nil
	}

	var reqErr *client.RequestError
	if errors.As(err, &reqErr) {
		return errors.New(reqErr.UserMessage())
	}

	return err
}
