// Package persist maps the in-memory garden state onto a key-value store.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/kvstore"
	"github.com/starford/planthub/internal/models"
)

// Storage keys, one per collection.
const (
	KeyPlants    = "plants"
	KeyReminders = "reminders"
	KeyJourneys  = "journeys"
)

// SchemaVersion is written into every envelope.
const SchemaVersion = 1

// Keys lists the keys owned by the adapter, in write order.
var Keys = []string{KeyPlants, KeyReminders, KeyJourneys}

type envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// Adapter loads and saves models.State through a kvstore.Provider.
type Adapter struct {
	store  kvstore.Provider
	logger *slog.Logger
	now    func() time.Time
}

// New creates an adapter over store. A nil logger falls back to slog.Default.
func New(store kvstore.Provider, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: store, logger: logger, now: time.Now}
}

// Load reads the three collections. A missing or unreadable key leaves that
// collection empty; Load never fails.
func (a *Adapter) Load(ctx context.Context) models.State {
	st := models.NewState()

	var plants []models.Plant
	if a.loadKey(ctx, KeyPlants, &plants) && plants != nil {
		st.Plants = plants
	}
	var reminders []models.Reminder
	if a.loadKey(ctx, KeyReminders, &reminders) && reminders != nil {
		st.Reminders = reminders
	}
	var journeys map[string][]models.JourneyEntry
	if a.loadKey(ctx, KeyJourneys, &journeys) && journeys != nil {
		st.Journeys = journeys
	}

	for i := range st.Plants {
		if st.Plants[i].Notes == nil {
			st.Plants[i].Notes = []models.Note{}
		}
		if st.Plants[i].CareTips == nil {
			st.Plants[i].CareTips = []string{}
		}
	}

	a.logger.Debug("persist: loaded",
		slog.Int("plants", len(st.Plants)),
		slog.Int("reminders", len(st.Reminders)),
		slog.Int("journeys", len(st.Journeys)))
	return st
}

func (a *Adapter) loadKey(ctx context.Context, key string, target any) bool {
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			a.logger.Warn("persist: read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}
	payload, version, err := unwrap(raw)
	if err != nil {
		a.logger.Warn("persist: malformed record ignored", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	if version > SchemaVersion {
		a.logger.Warn("persist: record written by a newer schema",
			slog.String("key", key), slog.Int("version", version))
	}
	if err := json.Unmarshal(payload, target); err != nil {
		a.logger.Warn("persist: malformed record ignored", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// unwrap strips the envelope. Bare JSON arrays/objects written before the
// envelope existed are returned as-is with version 0.
func unwrap(raw []byte) (json.RawMessage, int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, 0, errors.New("empty record")
	}
	if trimmed[0] == '[' {
		return trimmed, 0, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, 0, err
	}
	if env.Version == 0 || env.Data == nil {
		// An object without an envelope: the legacy journeys map.
		return trimmed, 0, nil
	}
	return env.Data, env.Version, nil
}

// Save writes all three collections. Backends implementing kvstore.Batcher
// get a single atomic write; others are written key by key and a failure
// part-way can leave the keys out of step.
func (a *Adapter) Save(ctx context.Context, st models.State) error {
	values, err := a.encode(st)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", apperr.ErrPersistence, err)
	}

	if b, ok := a.store.(kvstore.Batcher); ok {
		if err := b.PutMany(ctx, values); err != nil {
			a.logger.Error("persist: save failed", slog.String("error", err.Error()))
			return fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
		}
		return nil
	}

	for _, key := range Keys {
		if err := a.store.Put(ctx, key, values[key]); err != nil {
			a.logger.Error("persist: save failed", slog.String("key", key), slog.String("error", err.Error()))
			return fmt.Errorf("%w: %s: %v", apperr.ErrPersistence, key, err)
		}
	}
	return nil
}

func (a *Adapter) encode(st models.State) (map[string][]byte, error) {
	savedAt := a.now().UTC()
	collections := map[string]any{
		KeyPlants:    nonNil(st.Plants),
		KeyReminders: nonNil(st.Reminders),
		KeyJourneys:  st.Journeys,
	}
	if st.Journeys == nil {
		collections[KeyJourneys] = map[string][]models.JourneyEntry{}
	}

	out := make(map[string][]byte, len(collections))
	for key, v := range collections {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		wrapped, err := json.MarshalIndent(envelope{
			Version: SchemaVersion,
			SavedAt: savedAt,
			Data:    data,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = wrapped
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
