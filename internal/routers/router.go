package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/angesh007/CollabCode/internal/api"
	"github.com/angesh007/CollabCode/internal/middleware"
	"github.com/angesh007/CollabCode/internal/models"
)

func New(h *api.Handlers) http.Handler {
	r := chi.NewRouter()

	// The websocket route lives outside the timeout group: hijacked
	// connections outlive any request deadline.
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Get("/healthz", h.Health)
		r.Post("/rooms", h.CreateRoom)
		r.With(middleware.ValidateRequest[*models.AutocompleteRequest]()).Post("/autocomplete", h.Autocomplete)
		r.With(middleware.ValidateRequest[*models.AIChatRequest]()).Post("/ai-chat", h.AIChat)
	})

	r.Get("/ws/{roomId}", h.RoomWS)

	return r
}
