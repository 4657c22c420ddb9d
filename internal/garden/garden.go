// Package garden owns the in-memory plant care state: the plant registry,
// the reminder scheduler and the per-plant journey log.
//
// Every mutation runs under a single mutex, is persisted before the call
// returns and is announced to the registered listeners.
package garden

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/planthub/internal/models"
)

// Persister loads and saves the full garden state.
type Persister interface {
	Load(ctx context.Context) models.State
	Save(ctx context.Context, st models.State) error
}

// Event kinds announced to listeners.
const (
	EventPlantAdded        = "plant.added"
	EventPlantRemoved      = "plant.removed"
	EventPlantWatered      = "plant.watered"
	EventPlantFertilized   = "plant.fertilized"
	EventPlantNoted        = "plant.noted"
	EventPlantUpdated      = "plant.updated"
	EventReminderCompleted = "reminder.completed"
	EventGardenReloaded    = "garden.reloaded"
)

// Event describes a change that has been applied to the garden.
type Event struct {
	Kind       string    `json:"kind"`
	PlantID    string    `json:"plant_id,omitempty"`
	ReminderID string    `json:"reminder_id,omitempty"`
	At         time.Time `json:"at"`
}

// Listener receives events after the change is applied. It must not block.
type Listener func(Event)

// Option configures a Garden.
type Option func(*Garden)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Garden) {
		g.now = now
	}
}

// WithIDGenerator overrides how entity IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(g *Garden) {
		g.newID = newID
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Garden) {
		g.logger = l
	}
}

// WithUpcomingWindow sets the look-ahead used by Upcoming when no window is
// given.
func WithUpcomingWindow(days int) Option {
	return func(g *Garden) {
		if days > 0 {
			g.window = days
		}
	}
}

// WithListener registers a change listener.
func WithListener(l Listener) Option {
	return func(g *Garden) {
		g.listeners = append(g.listeners, l)
	}
}

// Garden is the state container for plants, reminders and journeys.
type Garden struct {
	mu      sync.Mutex
	store   Persister
	plants  []models.Plant
	remind  []models.Reminder
	journal *Journal

	now       func() time.Time
	newID     func() string
	window    int
	logger    *slog.Logger
	listeners []Listener
}

// New loads the garden from store.
func New(ctx context.Context, store Persister, opts ...Option) *Garden {
	g := &Garden{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		window: DefaultUpcomingDays,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.mu.Lock()
	g.replaceLocked(store.Load(ctx))
	overdue := len(g.overdueLocked(g.now()))
	g.mu.Unlock()

	if overdue > 0 {
		g.logger.Warn("garden: overdue care reminders", slog.Int("count", overdue))
	}
	return g
}

// Reload replaces the in-memory state with what the store currently holds.
// The lock is held across the read so no mutation lands between the read and
// the swap.
func (g *Garden) Reload(ctx context.Context) {
	g.mu.Lock()
	g.replaceLocked(g.store.Load(ctx))
	plants := len(g.plants)
	g.mu.Unlock()

	g.logger.Info("garden: reloaded", slog.Int("plants", plants))
	g.emit(Event{Kind: EventGardenReloaded})
}

// Now returns the garden's current time.
func (g *Garden) Now() time.Time {
	return g.now()
}

// UpcomingWindow is the default look-ahead of Upcoming in days.
func (g *Garden) UpcomingWindow() int {
	return g.window
}

// Snapshot returns a deep copy of the current state.
func (g *Garden) Snapshot() models.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

func (g *Garden) replaceLocked(st models.State) {
	g.plants = st.Plants
	if g.plants == nil {
		g.plants = []models.Plant{}
	}
	g.remind = st.Reminders
	if g.remind == nil {
		g.remind = []models.Reminder{}
	}
	g.journal = NewJournal(st.Journeys)
}

func (g *Garden) stateLocked() models.State {
	st := models.State{
		Plants:    make([]models.Plant, len(g.plants)),
		Reminders: make([]models.Reminder, len(g.remind)),
		Journeys:  g.journal.Snapshot(),
	}
	for i, p := range g.plants {
		st.Plants[i] = clonePlant(p)
	}
	copy(st.Reminders, g.remind)
	return st
}

// apply runs fn under the lock, persists the result and emits the event.
// A persistence failure leaves the change applied and is returned.
func (g *Garden) apply(ctx context.Context, fn func(now time.Time) (Event, error)) error {
	g.mu.Lock()
	now := g.now()
	ev, err := fn(now)
	if err != nil {
		g.mu.Unlock()
		return err
	}
	saveErr := g.store.Save(ctx, g.stateLocked())
	g.mu.Unlock()

	if saveErr != nil {
		g.logger.Error("garden: change not persisted",
			slog.String("event", ev.Kind), slog.String("error", saveErr.Error()))
	}
	ev.At = now
	g.emit(ev)
	return saveErr
}

func (g *Garden) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = g.now()
	}
	for _, l := range g.listeners {
		l(ev)
	}
}

func (g *Garden) plantIndexLocked(id string) int {
	for i := range g.plants {
		if g.plants[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *Garden) journeyLocked(plantID string, action models.JourneyAction, desc string, meta map[string]any, at time.Time) {
	g.journal.Append(plantID, models.JourneyEntry{
		ID:          g.newID(),
		Action:      action,
		Description: desc,
		Timestamp:   at,
		Metadata:    meta,
	})
}

func clonePlant(p models.Plant) models.Plant {
	out := p
	out.CareTips = append([]string{}, p.CareTips...)
	out.Notes = append([]models.Note{}, p.Notes...)
	if p.LastWateredAt != nil {
		t := *p.LastWateredAt
		out.LastWateredAt = &t
	}
	if p.LastFertilizedAt != nil {
		t := *p.LastFertilizedAt
		out.LastFertilizedAt = &t
	}
	return out
}
