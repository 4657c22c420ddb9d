package garden

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/models"
)

// Scheduling constants.
const (
	DefaultWateringIntervalDays = 7
	FertilizeIntervalDays       = 30
	DefaultUpcomingDays         = 7
	UpcomingLimit               = 5
	DueSoonWindow               = 24 * time.Hour
	MaxScheduleDays             = 3650
)

const day = 24 * time.Hour

// ReminderStatus labels an open reminder relative to the query time.
type ReminderStatus string

const (
	StatusOverdue   ReminderStatus = "overdue"
	StatusDueSoon   ReminderStatus = "due_soon"
	StatusScheduled ReminderStatus = "scheduled"
)

// UpcomingReminder is an open reminder with its status at query time.
type UpcomingReminder struct {
	models.Reminder
	Status ReminderStatus `json:"status"`
}

// StatusAt classifies a due date against now.
func StatusAt(due, now time.Time) ReminderStatus {
	switch {
	case due.Before(now):
		return StatusOverdue
	case due.Sub(now) < DueSoonWindow:
		return StatusDueSoon
	default:
		return StatusScheduled
	}
}

func (g *Garden) seedRemindersLocked(p models.Plant, now time.Time) {
	g.ensureOpenLocked(p, models.ReminderWater, p.WateringIntervalDays, now)
	g.ensureOpenLocked(p, models.ReminderFertilize, FertilizeIntervalDays, now)
}

// ensureOpenLocked returns the open reminder of kind for p, creating one due
// now+days when none exists. At most one reminder per plant and kind is open.
func (g *Garden) ensureOpenLocked(p models.Plant, kind models.ReminderKind, days int, now time.Time) models.Reminder {
	if j := g.openReminderLocked(p.ID, kind); j >= 0 {
		return g.remind[j]
	}
	r := models.Reminder{
		ID:             g.newID(),
		PlantID:        p.ID,
		PlantName:      p.Nickname,
		Kind:           kind,
		DueAt:          now.Add(time.Duration(days) * day),
		Recurring:      true,
		RecurrenceDays: days,
	}
	switch kind {
	case models.ReminderWater:
		r.Title = "Water " + p.Nickname
		r.Description = "Time to water your " + p.Species
	case models.ReminderFertilize:
		r.Title = "Fertilize " + p.Nickname
		r.Description = "Monthly fertilizing for your " + p.Species
	}
	g.remind = append(g.remind, r)
	return r
}

func (g *Garden) openReminderLocked(plantID string, kind models.ReminderKind) int {
	for j := range g.remind {
		r := &g.remind[j]
		if r.PlantID == plantID && r.Kind == kind && !r.Completed {
			return j
		}
	}
	return -1
}

func recurrenceFor(p models.Plant, kind models.ReminderKind) int {
	if kind == models.ReminderFertilize {
		return FertilizeIntervalDays
	}
	if p.WateringIntervalDays > 0 {
		return p.WateringIntervalDays
	}
	return DefaultWateringIntervalDays
}

func careEvent(kind models.ReminderKind) string {
	if kind == models.ReminderFertilize {
		return EventPlantFertilized
	}
	return EventPlantWatered
}

// CompleteReminder marks a reminder done, applies its care action to the
// plant and schedules the successor of a recurring reminder. The successor is
// returned when one was created.
func (g *Garden) CompleteReminder(ctx context.Context, reminderID string) (*models.Reminder, error) {
	var (
		next  *models.Reminder
		found bool
	)
	err := g.apply(ctx, func(now time.Time) (Event, error) {
		j := slices.IndexFunc(g.remind, func(r models.Reminder) bool { return r.ID == reminderID })
		if j < 0 {
			return Event{}, fmt.Errorf("reminder %q: %w", reminderID, apperr.ErrNotFound)
		}
		if g.remind[j].Completed {
			return Event{}, fmt.Errorf("reminder %q already completed: %w", reminderID, apperr.ErrConflict)
		}
		found = true
		g.remind[j].Completed = true
		r := g.remind[j]

		i := g.plantIndexLocked(r.PlantID)
		if i >= 0 {
			g.markCaredLocked(i, r.Kind, now, r.ID)
		}
		if r.Recurring && r.RecurrenceDays > 0 && g.openReminderLocked(r.PlantID, r.Kind) < 0 {
			succ := models.Reminder{
				ID:             g.newID(),
				PlantID:        r.PlantID,
				PlantName:      r.PlantName,
				Kind:           r.Kind,
				Title:          r.Title,
				Description:    r.Description,
				DueAt:          now.Add(time.Duration(r.RecurrenceDays) * day),
				Recurring:      true,
				RecurrenceDays: r.RecurrenceDays,
			}
			g.remind = append(g.remind, succ)
			next = &succ
		}
		return Event{Kind: EventReminderCompleted, PlantID: r.PlantID, ReminderID: r.ID}, nil
	})
	if err != nil && !found {
		return nil, err
	}
	return next, err
}

// Upcoming returns open reminders due within the given number of days,
// earliest first and capped at UpcomingLimit. Overdue reminders are included.
// A non-positive window uses the garden's default window; larger windows are
// capped at MaxScheduleDays.
func (g *Garden) Upcoming(withinDays int) []UpcomingReminder {
	if withinDays <= 0 {
		withinDays = g.window
	}
	withinDays = min(withinDays, MaxScheduleDays)
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	horizon := time.Duration(withinDays) * day
	var due []models.Reminder
	for _, r := range g.remind {
		if !r.Completed && r.DueAt.Sub(now) <= horizon {
			due = append(due, r)
		}
	}
	sortByDue(due)
	if len(due) > UpcomingLimit {
		due = due[:UpcomingLimit]
	}

	out := make([]UpcomingReminder, len(due))
	for i, r := range due {
		out[i] = UpcomingReminder{Reminder: r, Status: StatusAt(r.DueAt, now)}
	}
	return out
}

// Overdue returns every open reminder whose due date has passed.
func (g *Garden) Overdue() []models.Reminder {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.overdueLocked(g.now())
}

func (g *Garden) overdueLocked(now time.Time) []models.Reminder {
	out := []models.Reminder{}
	for _, r := range g.remind {
		if !r.Completed && r.DueAt.Before(now) {
			out = append(out, r)
		}
	}
	sortByDue(out)
	return out
}

// NeedsWater returns open water reminders that are due now or earlier.
func (g *Garden) NeedsWater() []models.Reminder {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	out := []models.Reminder{}
	for _, r := range g.remind {
		if !r.Completed && r.Kind == models.ReminderWater && !r.DueAt.After(now) {
			out = append(out, r)
		}
	}
	sortByDue(out)
	return out
}

// Reminders returns every reminder, open and completed.
func (g *Garden) Reminders() []models.Reminder {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.remind)
}

func sortByDue(rs []models.Reminder) {
	slices.SortStableFunc(rs, func(a, b models.Reminder) int {
		return cmp.Compare(a.DueAt.UnixNano(), b.DueAt.UnixNano())
	})
}
