package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/catalog"
	"github.com/starford/planthub/internal/garden"
	"github.com/starford/planthub/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	garden  *garden.Garden
	catalog *catalog.Searcher
	logger  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(g *garden.Garden, cat *catalog.Searcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{garden: g, catalog: cat, logger: logger}
}

// ListPlants handles GET /api/plants.
//
//	@Summary	List plants with their next watering date
//	@Tags		plants
//	@Produce	json
//	@Success	200	{object}	PlantListResponse
//	@Security	BearerAuth
//	@Router		/plants [get]
func (h *Handler) ListPlants(w http.ResponseWriter, _ *http.Request) {
	plants := h.garden.Summaries()
	writeJSON(w, http.StatusOK, PlantListResponse{Plants: plants, Total: len(plants)})
}

// AddPlant handles POST /api/plants.
//
//	@Summary	Add a catalog species to the garden
//	@Tags		plants
//	@Accept		json
//	@Produce	json
//	@Param		body	body		AddPlantRequest	true	"Species to add"
//	@Success	201		{object}	models.Plant
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants [post]
func (h *Handler) AddPlant(w http.ResponseWriter, r *http.Request) {
	var req AddPlantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var entry models.CatalogEntry
	switch {
	case req.Entry != nil:
		entry = *req.Entry
	case req.SpeciesID != "":
		e, err := h.catalog.Lookup(req.SpeciesID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		entry = e
	default:
		h.writeError(w, r, fmt.Errorf("%w: species_id or entry is required", apperr.ErrValidation))
		return
	}

	p, err := h.garden.AddPlant(r.Context(), entry)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPlant handles GET /api/plants/{id}.
//
//	@Summary	Get a plant with its next watering date
//	@Tags		plants
//	@Produce	json
//	@Param		id	path		string	true	"Plant ID"
//	@Success	200	{object}	garden.PlantSummary
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id} [get]
func (h *Handler) GetPlant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.garden.Plant(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	next, err := h.garden.NextWatering(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, garden.PlantSummary{Plant: p, NextWateringAt: next})
}

// RemovePlant handles DELETE /api/plants/{id}.
//
//	@Summary	Remove a plant and its reminders
//	@Tags		plants
//	@Param		id	path	string	true	"Plant ID"
//	@Success	204
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id} [delete]
func (h *Handler) RemovePlant(w http.ResponseWriter, r *http.Request) {
	if err := h.garden.RemovePlant(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WaterPlant handles POST /api/plants/{id}/water.
//
//	@Summary	Record a watering
//	@Tags		plants
//	@Produce	json
//	@Param		id	path		string	true	"Plant ID"
//	@Success	200	{object}	CareResponse
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id}/water [post]
func (h *Handler) WaterPlant(w http.ResponseWriter, r *http.Request) {
	h.care(w, r, h.garden.RecordWater)
}

// FertilizePlant handles POST /api/plants/{id}/fertilize.
//
//	@Summary	Record a feeding
//	@Tags		plants
//	@Produce	json
//	@Param		id	path		string	true	"Plant ID"
//	@Success	200	{object}	CareResponse
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id}/fertilize [post]
func (h *Handler) FertilizePlant(w http.ResponseWriter, r *http.Request) {
	h.care(w, r, h.garden.RecordFertilize)
}

func (h *Handler) care(w http.ResponseWriter, r *http.Request, record func(ctx context.Context, id string) (*models.Reminder, error)) {
	id := chi.URLParam(r, "id")
	next, err := record(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.garden.Plant(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CareResponse{Plant: p, Next: next})
}

// AddNote handles POST /api/plants/{id}/notes.
//
//	@Summary	Attach a note to a plant
//	@Tags		plants
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Plant ID"
//	@Param		body	body		AddNoteRequest	true	"Note text"
//	@Success	201		{object}	models.Note
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id}/notes [post]
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req AddNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.garden.AddNote(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// SetWateringInterval handles PUT /api/plants/{id}/watering-interval.
//
//	@Summary	Change how often a plant is watered
//	@Tags		plants
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Plant ID"
//	@Param		body	body		WateringIntervalRequest	true	"Interval in days"
//	@Success	200		{object}	models.Plant
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id}/watering-interval [put]
func (h *Handler) SetWateringInterval(w http.ResponseWriter, r *http.Request) {
	var req WateringIntervalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.garden.SetWateringInterval(r.Context(), chi.URLParam(r, "id"), req.Days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetHealth handles PUT /api/plants/{id}/health.
//
//	@Summary	Set a plant's health status
//	@Tags		plants
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Plant ID"
//	@Param		body	body		HealthRequest	true	"Health status"
//	@Success	200		{object}	models.Plant
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id}/health [put]
func (h *Handler) SetHealth(w http.ResponseWriter, r *http.Request) {
	var req HealthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.garden.SetHealthStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Journey handles GET /api/plants/{id}/journey.
//
//	@Summary	Journey log of a plant, oldest first
//	@Tags		plants
//	@Produce	json
//	@Param		id	path		string	true	"Plant ID"
//	@Success	200	{object}	JourneyResponse
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id}/journey [get]
func (h *Handler) Journey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.garden.Journey(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JourneyResponse{PlantID: id, Entries: entries})
}

// ExportJourney handles GET /api/plants/{id}/journey/export and serves the
// export as a file download.
//
//	@Summary	Download a plant's journey as JSON
//	@Tags		plants
//	@Produce	json
//	@Param		id	path		string	true	"Plant ID"
//	@Success	200	{object}	garden.JourneyExport
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/plants/{id}/journey/export [get]
func (h *Handler) ExportJourney(w http.ResponseWriter, r *http.Request) {
	exp, err := h.garden.Export(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", garden.ExportFileName(exp.Plant.Nickname)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// UpcomingReminders handles GET /api/reminders?within=7.
//
//	@Summary	Open reminders due within a window, earliest first
//	@Tags		reminders
//	@Produce	json
//	@Param		within	query		int	false	"Window in days (default 7, at most 3650)"
//	@Success	200		{object}	UpcomingResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/reminders [get]
func (h *Handler) UpcomingReminders(w http.ResponseWriter, r *http.Request) {
	within := h.garden.UpcomingWindow()
	if raw := r.URL.Query().Get("within"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > garden.MaxScheduleDays {
			writeJSON(w, http.StatusBadRequest,
				errorBody(fmt.Sprintf("within must be between 1 and %d days", garden.MaxScheduleDays)))
			return
		}
		within = n
	}
	writeJSON(w, http.StatusOK, UpcomingResponse{WithinDays: within, Reminders: h.garden.Upcoming(within)})
}

// OverdueReminders handles GET /api/reminders/overdue.
//
//	@Summary	Open reminders past their due time
//	@Tags		reminders
//	@Produce	json
//	@Success	200	{object}	ReminderListResponse
//	@Security	BearerAuth
//	@Router		/reminders/overdue [get]
func (h *Handler) OverdueReminders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ReminderListResponse{Reminders: nonNil(h.garden.Overdue())})
}

// NeedsWater handles GET /api/reminders/needs-water.
//
//	@Summary	Open water reminders that are due now
//	@Tags		reminders
//	@Produce	json
//	@Success	200	{object}	ReminderListResponse
//	@Security	BearerAuth
//	@Router		/reminders/needs-water [get]
func (h *Handler) NeedsWater(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ReminderListResponse{Reminders: nonNil(h.garden.NeedsWater())})
}

// CompleteReminder handles POST /api/reminders/{id}/complete.
//
//	@Summary	Complete a reminder and apply its care action
//	@Tags		reminders
//	@Produce	json
//	@Param		id	path		string	true	"Reminder ID"
//	@Success	200	{object}	CompleteResponse
//	@Failure	404	{object}	errResponse
//	@Failure	409	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/reminders/{id}/complete [post]
func (h *Handler) CompleteReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	next, err := h.garden.CompleteReminder(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteResponse{Completed: id, Next: next})
}

// SearchCatalog handles GET /api/catalog/search?q=.
//
//	@Summary	Search plant species by name
//	@Tags		catalog
//	@Produce	json
//	@Param		q	query		string	true	"Common or scientific name"
//	@Success	200	{object}	catalog.Result
//	@Failure	400	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/catalog/search [get]
func (h *Handler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
