package mcpserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/planthub/internal/garden"
	"github.com/starford/planthub/internal/models"
)

// RenderCareSchedule formats overdue and upcoming reminders as Markdown.
func RenderCareSchedule(overdue []models.Reminder, upcoming []garden.UpcomingReminder, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Plant Care Schedule\n\n")
	fmt.Fprintf(&b, "Generated %s.\n\n", now.Format(time.RFC3339))

	b.WriteString("## Overdue\n\n")
	if len(overdue) == 0 {
		b.WriteString("Nothing overdue.\n")
	}
	for _, r := range overdue {
		fmt.Fprintf(&b, "- **%s** (`%s`): overdue by %s\n", r.Title, r.ID, humanDuration(now.Sub(r.DueAt)))
	}

	b.WriteString("\n## Upcoming\n\n")
	if len(upcoming) == 0 {
		b.WriteString("No upcoming reminders.\n")
	}
	for _, r := range upcoming {
		var when string
		switch r.Status {
		case garden.StatusOverdue:
			when = "overdue by " + humanDuration(now.Sub(r.DueAt))
		case garden.StatusDueSoon:
			when = "due today"
		default:
			when = "due in " + humanDuration(r.DueAt.Sub(now))
		}
		fmt.Fprintf(&b, "- **%s** (`%s`): %s\n", r.Title, r.ID, when)
	}
	return b.String()
}

// humanDuration renders whole hours below a day and whole days above.
func humanDuration(d time.Duration) string {
	hours := int(d.Hours())
	if hours < 24 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := hours / 24
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
