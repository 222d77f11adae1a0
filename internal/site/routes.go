package site

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouteGates struct {
	RequireAdmin func(http.Handler) http.Handler
}

func (h *Handler) SetupRoutes(gates RouteGates) chi.Router {
	r := chi.NewRouter()
	r.Get("/name", h.GetNameHandler)
	r.With(gates.RequireAdmin).Put("/name", h.SetNameHandler)
	return r
}
