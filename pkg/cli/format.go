package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"scout-sync-go/pkg/models"
	"scout-sync-go/pkg/tasks"
)

const barWidth = 30

// FormatProgressLine renders one status line: bar, percentage, counts, step.
func FormatProgressLine(task *models.ScrapingTask) string {
	var b strings.Builder
	b.WriteString(progressBar(task.Progress, barWidth))
	b.WriteString(fmt.Sprintf(" %3d%%", task.Progress))
	if task.TotalItems != nil {
		b.WriteString(fmt.Sprintf("  %d/%d", models.IntValue(task.ProcessedItems), *task.TotalItems))
	}
	if task.CurrentStep != nil && *task.CurrentStep != "" {
		b.WriteString("  " + *task.CurrentStep)
	}
	return b.String()
}

// FormatTaskDetails renders a task status record as labelled fields
func FormatTaskDetails(task *models.ScrapingTask) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Task:\t%s\n", task.TaskID)
	if task.Kind != "" {
		fmt.Fprintf(w, "Kind:\t%s\n", task.Kind)
	}
	fmt.Fprintf(w, "Status:\t%s\n", task.Status)
	fmt.Fprintf(w, "Progress:\t%s %d%%\n", progressBar(task.Progress, barWidth), task.Progress)
	if task.CurrentStep != nil {
		fmt.Fprintf(w, "Step:\t%s\n", *task.CurrentStep)
	}
	if task.TotalItems != nil {
		fmt.Fprintf(w, "Items:\t%d/%d\n", models.IntValue(task.ProcessedItems), *task.TotalItems)
	}
	if task.StartedAt != nil {
		fmt.Fprintf(w, "Started:\t%s\n", FormatDate(*task.StartedAt))
	}
	if task.CompletedAt != nil {
		fmt.Fprintf(w, "Finished:\t%s\n", FormatDate(*task.CompletedAt))
	}
	w.Flush()

	if len(task.Errors) > 0 {
		b.WriteString(fmt.Sprintf("\nErrors (%d):\n", len(task.Errors)))
		for _, e := range task.Errors {
			b.WriteString("  - " + e + "\n")
		}
	}
	return b.String()
}

// FormatNotification renders a controller notification on one line
func FormatNotification(n tasks.Notification) string {
	var icon string
	switch n.Level {
	case tasks.LevelSuccess:
		icon = "✓"
	case tasks.LevelError:
		icon = "✗"
	case tasks.LevelWarning:
		icon = "!"
	default:
		icon = "•"
	}
	if n.Description == "" {
		return fmt.Sprintf("%s %s", icon, n.Title)
	}
	return fmt.Sprintf("%s %s: %s", icon, n.Title, n.Description)
}

// FormatSyncErrors lists per-row sync errors
func FormatSyncErrors(errs []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d row(s) reported problems:\n", len(errs)))
	for _, e := range errs {
		b.WriteString("  - " + e + "\n")
	}
	return b.String()
}

// FormatHistoryTable formats sync runs as a table for CLI output
func FormatHistoryTable(records []models.SyncRecord) string {
	if len(records) == 0 {
		return "No sync runs recorded.\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "When\tDirection\tResult\tCreated\tUpdated\tFailed")
	fmt.Fprintln(w, strings.Repeat("─", 16)+"\t"+strings.Repeat("─", 9)+"\t"+strings.Repeat("─", 6)+"\t───\t───\t───")
	for _, r := range records {
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			FormatDate(r.CreatedAt),
			r.Direction,
			result,
			models.IntValue(r.RecordsCreated),
			models.IntValue(r.RecordsUpdated),
			models.IntValue(r.RecordsFailed),
		)
	}
	w.Flush()
	b.WriteString(fmt.Sprintf("\nTotal: %d run(s)\n", len(records)))
	return b.String()
}

// FormatDate formats a timestamp in local time
func FormatDate(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func progressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
