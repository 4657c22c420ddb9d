package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// events, if non-nil, is mounted at GET /events behind the same auth.
func NewRouter(h *Handler, authEnabled bool, token string, events http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/plants", func(r chi.Router) {
		r.Get("/", h.ListPlants)
		r.Post("/", h.AddPlant)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetPlant)
			r.Delete("/", h.RemovePlant)
			r.Post("/water", h.WaterPlant)
			r.Post("/fertilize", h.FertilizePlant)
			r.Post("/notes", h.AddNote)
			r.Put("/watering-interval", h.SetWateringInterval)
			r.Put("/health", h.SetHealth)
			r.Get("/journey", h.Journey)
			r.Get("/journey/export", h.ExportJourney)
		})
	})

	r.Route("/reminders", func(r chi.Router) {
		r.Get("/", h.UpcomingReminders)
		r.Get("/overdue", h.OverdueReminders)
		r.Get("/needs-water", h.NeedsWater)
		r.Post("/{id}/complete", h.CompleteReminder)
	})

	r.Get("/catalog/search", h.SearchCatalog)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}
	return r
}
