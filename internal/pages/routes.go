package pages

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouteGates struct {
	RequireAuth  func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
}

func (h *Handler) SetupRoutes(gates RouteGates) chi.Router {
	r := chi.NewRouter()
	r.With(gates.OptionalAuth).Get("/", h.ListHandler)
	r.With(gates.OptionalAuth).Get("/{id}", h.GetHandler)
	r.With(gates.RequireAuth).Post("/", h.CreateHandler)
	r.With(gates.RequireAuth).Put("/{id}", h.EditHandler)
	r.With(gates.RequireAuth).Delete("/{id}", h.DeleteHandler)
	return r
}
