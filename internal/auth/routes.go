package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteGates carries the middleware the auth routes are composed with. They
// are injected so this package never depends on how the gates are built.
type RouteGates struct {
	RequireAuth  func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
}

// RegisterRoutes attaches the session, registration and user-listing
// endpoints to the given router.
func (h *Handler) RegisterRoutes(r chi.Router, gates RouteGates) {
	r.With(gates.RateLimit).Post("/sessions", h.LoginHandler)
	r.Delete("/sessions/current", h.LogoutHandler)
	r.With(gates.RequireAuth).Get("/sessions/current", h.MeHandler)
	r.With(gates.RateLimit).Post("/register", h.RegisterHandler)
	r.With(gates.RequireAdmin).Get("/users", h.ListUsersHandler)
}
