package api

import (
	"github.com/starford/planthub/internal/garden"
	"github.com/starford/planthub/internal/models"
)

// AddPlantRequest names a catalog species to add. Entry, when given, is used
// as-is instead of resolving SpeciesID against earlier searches.
type AddPlantRequest struct {
	SpeciesID string               `json:"species_id" example:"snake-plant"`
	Entry     *models.CatalogEntry `json:"entry,omitempty"`
}

// AddNoteRequest is the body of POST /plants/{id}/notes.
type AddNoteRequest struct {
	Text string `json:"text" example:"New leaf unfurling" validate:"required"`
}

// WateringIntervalRequest is the body of PUT /plants/{id}/watering-interval.
type WateringIntervalRequest struct {
	Days int `json:"days" example:"10" validate:"required"`
}

// HealthRequest is the body of PUT /plants/{id}/health.
type HealthRequest struct {
	Status models.HealthStatus `json:"status" example:"needs_attention" validate:"required"`
}

// PlantListResponse wraps the garden listing.
type PlantListResponse struct {
	Plants []garden.PlantSummary `json:"plants" validate:"required"`
	Total  int                   `json:"total" example:"3"`
}

// CareResponse is returned after watering or fertilizing. Next is nil when
// the completed reminder was not recurring.
type CareResponse struct {
	Plant models.Plant     `json:"plant"`
	Next  *models.Reminder `json:"next"`
}

// CompleteResponse is returned after completing a reminder. Next is set when
// a recurring reminder was rescheduled.
type CompleteResponse struct {
	Completed string           `json:"completed"`
	Next      *models.Reminder `json:"next"`
}

// ReminderListResponse wraps reminder listings.
type ReminderListResponse struct {
	Reminders []models.Reminder `json:"reminders" validate:"required"`
}

// UpcomingResponse wraps the upcoming reminder listing.
type UpcomingResponse struct {
	WithinDays int                       `json:"within_days" example:"7"`
	Reminders  []garden.UpcomingReminder `json:"reminders" validate:"required"`
}

// JourneyResponse wraps a plant's journey log.
type JourneyResponse struct {
	PlantID string                `json:"plant_id"`
	Entries []models.JourneyEntry `json:"entries" validate:"required"`
}
