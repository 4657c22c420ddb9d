// Package models defines the domain types for planthub.
package models

import "time"

// ReminderKind is the care task a reminder schedules.
type ReminderKind string

const (
	ReminderWater     ReminderKind = "water"
	ReminderFertilize ReminderKind = "fertilize"
)

// HealthStatus tags the condition of a plant.
type HealthStatus string

const (
	HealthHealthy        HealthStatus = "healthy"
	HealthNeedsAttention HealthStatus = "needs_attention"
	HealthSick           HealthStatus = "sick"
)

// Valid reports whether s is a known health status.
func (s HealthStatus) Valid() bool {
	switch s {
	case HealthHealthy, HealthNeedsAttention, HealthSick:
		return true
	}
	return false
}

// JourneyAction tags a journey entry.
type JourneyAction string

const (
	ActionAdded      JourneyAction = "added"
	ActionWatered    JourneyAction = "watered"
	ActionFertilized JourneyAction = "fertilized"
	ActionNote       JourneyAction = "note"
	ActionHealth     JourneyAction = "health"
	ActionInterval   JourneyAction = "interval"
	ActionRemoved    JourneyAction = "removed"
)

// Note is a free-text remark attached to a plant.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Plant is a tracked garden entry, not a catalog record.
type Plant struct {
	ID                   string       `json:"id"`
	SpeciesID            string       `json:"species_id"`
	Nickname             string       `json:"nickname"`
	Species              string       `json:"species"`
	ScientificName       string       `json:"scientific_name"`
	ImageURL             string       `json:"image_url,omitempty"`
	CareLevel            string       `json:"care_level,omitempty"`
	Sunlight             string       `json:"sunlight,omitempty"`
	Watering             string       `json:"watering,omitempty"`
	CareTips             []string     `json:"care_tips"`
	WateringIntervalDays int          `json:"watering_interval_days"`
	AddedAt              time.Time    `json:"added_at"`
	LastWateredAt        *time.Time   `json:"last_watered_at"`
	LastFertilizedAt     *time.Time   `json:"last_fertilized_at"`
	HealthStatus         HealthStatus `json:"health_status"`
	Notes                []Note       `json:"notes"`
}

// Reminder is a scheduled, possibly recurring, care task.
type Reminder struct {
	ID             string       `json:"id"`
	PlantID        string       `json:"plant_id"`
	PlantName      string       `json:"plant_name"`
	Kind           ReminderKind `json:"kind"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	DueAt          time.Time    `json:"due_at"`
	Completed      bool         `json:"completed"`
	Recurring      bool         `json:"recurring"`
	RecurrenceDays int          `json:"recurrence_days"`
}

// JourneyEntry is an immutable log record of something that happened to a plant.
type JourneyEntry struct {
	ID          string         `json:"id"`
	Action      JourneyAction  `json:"action"`
	Description string         `json:"description"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// CatalogEntry is read-only species data used as input when adding a plant.
type CatalogEntry struct {
	SpeciesID             string   `json:"species_id"`
	CommonName            string   `json:"common_name"`
	ScientificName        string   `json:"scientific_name"`
	WateringFrequencyDays int      `json:"watering_frequency_days"`
	Watering              string   `json:"watering,omitempty"`
	Sunlight              string   `json:"sunlight,omitempty"`
	CareLevel             string   `json:"care_level,omitempty"`
	ImageURL              string   `json:"image_url,omitempty"`
	CareTips              []string `json:"care_tips,omitempty"`
	Source                string   `json:"source,omitempty"`
}

// State is the full persisted garden.
type State struct {
	Plants    []Plant                   `json:"plants"`
	Reminders []Reminder                `json:"reminders"`
	Journeys  map[string][]JourneyEntry `json:"journeys"`
}

// NewState returns an empty state with non-nil collections.
func NewState() State {
	return State{
		Plants:    []Plant{},
		Reminders: []Reminder{},
		Journeys:  map[string][]JourneyEntry{},
	}
}
