package garden

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/models"
)

// DefaultSunlight is used when a catalog entry carries no sunlight hint.
const DefaultSunlight = "Bright indirect light"

// AddPlant adds a plant built from a catalog entry, seeds its water and
// fertilize reminders and opens its journey.
func (g *Garden) AddPlant(ctx context.Context, entry models.CatalogEntry) (models.Plant, error) {
	if err := validateEntry(entry); err != nil {
		return models.Plant{}, err
	}

	var added models.Plant
	err := g.apply(ctx, func(now time.Time) (Event, error) {
		for _, p := range g.plants {
			if p.SpeciesID == entry.SpeciesID {
				return Event{}, fmt.Errorf("plant %q: %w", entry.SpeciesID, apperr.ErrDuplicate)
			}
		}

		interval := entry.WateringFrequencyDays
		if interval <= 0 {
			interval = DefaultWateringIntervalDays
		}
		sunlight := entry.Sunlight
		if sunlight == "" {
			sunlight = DefaultSunlight
		}
		p := models.Plant{
			ID:                   g.newID(),
			SpeciesID:            entry.SpeciesID,
			Nickname:             entry.CommonName,
			Species:              entry.CommonName,
			ScientificName:       entry.ScientificName,
			ImageURL:             entry.ImageURL,
			CareLevel:            entry.CareLevel,
			Sunlight:             sunlight,
			Watering:             entry.Watering,
			CareTips:             append([]string{}, entry.CareTips...),
			WateringIntervalDays: interval,
			AddedAt:              now,
			HealthStatus:         models.HealthHealthy,
			Notes:                []models.Note{},
		}
		g.plants = append(g.plants, p)
		g.seedRemindersLocked(p, now)
		g.journeyLocked(p.ID, models.ActionAdded, "Added "+p.Nickname+" to garden", map[string]any{
			"species":    p.Species,
			"care_level": p.CareLevel,
		}, now)

		added = clonePlant(p)
		return Event{Kind: EventPlantAdded, PlantID: p.ID}, nil
	})
	if err != nil && added.ID == "" {
		return models.Plant{}, err
	}
	return added, err
}

func validateEntry(entry models.CatalogEntry) error {
	err := validation.ValidateStruct(&entry,
		validation.Field(&entry.SpeciesID, validation.Required),
		validation.Field(&entry.CommonName, validation.Required),
		validation.Field(&entry.WateringFrequencyDays, validation.Min(0), validation.Max(MaxScheduleDays)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

// RemovePlant deletes a plant and its reminders. The journey is kept and
// closed with a removed entry.
func (g *Garden) RemovePlant(ctx context.Context, id string) error {
	return g.apply(ctx, func(now time.Time) (Event, error) {
		i := g.plantIndexLocked(id)
		if i < 0 {
			return Event{}, fmt.Errorf("plant %q: %w", id, apperr.ErrNotFound)
		}
		p := g.plants[i]
		g.plants = append(g.plants[:i], g.plants[i+1:]...)

		kept := g.remind[:0]
		for _, r := range g.remind {
			if r.PlantID != id {
				kept = append(kept, r)
			}
		}
		g.remind = kept

		g.journeyLocked(id, models.ActionRemoved, "Removed "+p.Nickname+" from garden", map[string]any{
			"reason": "Plant removed by user",
		}, now)
		return Event{Kind: EventPlantRemoved, PlantID: id}, nil
	})
}

// RecordWater marks the plant watered now and returns the next water
// reminder, or nil when the open one was not recurring.
func (g *Garden) RecordWater(ctx context.Context, id string) (*models.Reminder, error) {
	return g.recordCare(ctx, id, models.ReminderWater)
}

// RecordFertilize marks the plant fertilized now and returns the next
// fertilize reminder, or nil when the open one was not recurring.
func (g *Garden) RecordFertilize(ctx context.Context, id string) (*models.Reminder, error) {
	return g.recordCare(ctx, id, models.ReminderFertilize)
}

// recordCare completes the open reminder of kind, if any. Like
// CompleteReminder, a non-recurring reminder ends its series; a plant with no
// open reminder gets a fresh one.
func (g *Garden) recordCare(ctx context.Context, id string, kind models.ReminderKind) (*models.Reminder, error) {
	var (
		next  *models.Reminder
		found bool
	)
	err := g.apply(ctx, func(now time.Time) (Event, error) {
		i := g.plantIndexLocked(id)
		if i < 0 {
			return Event{}, fmt.Errorf("plant %q: %w", id, apperr.ErrNotFound)
		}
		found = true
		recurring := true
		if j := g.openReminderLocked(id, kind); j >= 0 {
			g.remind[j].Completed = true
			recurring = g.remind[j].Recurring
		}
		g.markCaredLocked(i, kind, now, "")
		ev := Event{Kind: careEvent(kind), PlantID: id}
		if recurring {
			r := g.ensureOpenLocked(g.plants[i], kind, recurrenceFor(g.plants[i], kind), now)
			next = &r
			ev.ReminderID = r.ID
		}
		return ev, nil
	})
	if err != nil && !found {
		return nil, err
	}
	return next, err
}

// markCaredLocked stamps the care time on plant i and logs it to the journey.
// A non-empty reminderID marks the action as coming from a reminder.
func (g *Garden) markCaredLocked(i int, kind models.ReminderKind, now time.Time, reminderID string) {
	p := &g.plants[i]
	t := now
	var (
		action models.JourneyAction
		desc   string
		meta   map[string]any
	)
	switch kind {
	case models.ReminderWater:
		p.LastWateredAt = &t
		action, desc = models.ActionWatered, "Watered "+p.Nickname
		meta = map[string]any{"notes": "Regular watering maintenance"}
	case models.ReminderFertilize:
		p.LastFertilizedAt = &t
		action, desc = models.ActionFertilized, "Fertilized "+p.Nickname
		meta = map[string]any{"notes": "Monthly fertilizer application"}
	}
	if reminderID != "" {
		desc += " (from reminder)"
		meta = map[string]any{"reminder_id": reminderID}
	}
	g.journeyLocked(p.ID, action, desc, meta, now)
}

// AddNote appends a trimmed note to the plant and its journey.
func (g *Garden) AddNote(ctx context.Context, id, text string) (models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Note{}, fmt.Errorf("%w: note text is empty", apperr.ErrValidation)
	}

	var note models.Note
	err := g.apply(ctx, func(now time.Time) (Event, error) {
		i := g.plantIndexLocked(id)
		if i < 0 {
			return Event{}, fmt.Errorf("plant %q: %w", id, apperr.ErrNotFound)
		}
		note = models.Note{ID: g.newID(), Text: text, CreatedAt: now}
		g.plants[i].Notes = append(g.plants[i].Notes, note)
		g.journeyLocked(id, models.ActionNote, "Added note: "+text, map[string]any{"note": text}, now)
		return Event{Kind: EventPlantNoted, PlantID: id}, nil
	})
	if err != nil && note.ID == "" {
		return models.Note{}, err
	}
	return note, err
}

// SetWateringInterval changes how often the plant is watered. The open water
// reminder keeps its due date but recurs with the new interval.
func (g *Garden) SetWateringInterval(ctx context.Context, id string, days int) (models.Plant, error) {
	if days < 1 || days > MaxScheduleDays {
		return models.Plant{}, fmt.Errorf("%w: watering interval must be between 1 and %d days",
			apperr.ErrValidation, MaxScheduleDays)
	}
	return g.updatePlant(ctx, id, func(p *models.Plant, now time.Time) {
		prev := p.WateringIntervalDays
		p.WateringIntervalDays = days
		if j := g.openReminderLocked(p.ID, models.ReminderWater); j >= 0 {
			g.remind[j].RecurrenceDays = days
		}
		g.journeyLocked(p.ID, models.ActionInterval,
			fmt.Sprintf("Watering interval changed from %d to %d days", prev, days),
			map[string]any{"from": prev, "to": days}, now)
	})
}

// SetHealthStatus tags the plant's condition.
func (g *Garden) SetHealthStatus(ctx context.Context, id string, status models.HealthStatus) (models.Plant, error) {
	if !status.Valid() {
		return models.Plant{}, fmt.Errorf("%w: unknown health status %q", apperr.ErrValidation, status)
	}
	return g.updatePlant(ctx, id, func(p *models.Plant, now time.Time) {
		prev := p.HealthStatus
		p.HealthStatus = status
		g.journeyLocked(p.ID, models.ActionHealth,
			fmt.Sprintf("Health changed from %s to %s", prev, status),
			map[string]any{"from": string(prev), "to": string(status)}, now)
	})
}

func (g *Garden) updatePlant(ctx context.Context, id string, fn func(p *models.Plant, now time.Time)) (models.Plant, error) {
	var updated models.Plant
	err := g.apply(ctx, func(now time.Time) (Event, error) {
		i := g.plantIndexLocked(id)
		if i < 0 {
			return Event{}, fmt.Errorf("plant %q: %w", id, apperr.ErrNotFound)
		}
		fn(&g.plants[i], now)
		updated = clonePlant(g.plants[i])
		return Event{Kind: EventPlantUpdated, PlantID: id}, nil
	})
	if err != nil && updated.ID == "" {
		return models.Plant{}, err
	}
	return updated, err
}

// Plants returns all plants in insertion order.
func (g *Garden) Plants() []models.Plant {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Plant, len(g.plants))
	for i, p := range g.plants {
		out[i] = clonePlant(p)
	}
	return out
}

// PlantSummary is a plant with the due date of its open water reminder.
type PlantSummary struct {
	models.Plant
	NextWateringAt *time.Time `json:"next_watering_at"`
}

// Summaries returns every plant with its next watering date.
func (g *Garden) Summaries() []PlantSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PlantSummary, len(g.plants))
	for i, p := range g.plants {
		out[i] = PlantSummary{Plant: clonePlant(p)}
		if j := g.openReminderLocked(p.ID, models.ReminderWater); j >= 0 {
			due := g.remind[j].DueAt
			out[i].NextWateringAt = &due
		}
	}
	return out
}

// Plant returns one plant by ID.
func (g *Garden) Plant(id string) (models.Plant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.plantIndexLocked(id)
	if i < 0 {
		return models.Plant{}, fmt.Errorf("plant %q: %w", id, apperr.ErrNotFound)
	}
	return clonePlant(g.plants[i]), nil
}

// NextWatering returns the due date of the plant's open water reminder, or
// nil when there is none.
func (g *Garden) NextWatering(id string) (*time.Time, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.plantIndexLocked(id) < 0 {
		return nil, fmt.Errorf("plant %q: %w", id, apperr.ErrNotFound)
	}
	j := g.openReminderLocked(id, models.ReminderWater)
	if j < 0 {
		return nil, nil
	}
	due := g.remind[j].DueAt
	return &due, nil
}
