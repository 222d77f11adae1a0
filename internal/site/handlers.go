package site

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// GetNameHandler handles GET /website/name. Public: guests see the site name
// on every page.
func (h *Handler) GetNameHandler(w http.ResponseWriter, r *http.Request) {
	name, err := h.store.GetWebsiteName(r.Context())
	if err != nil {
		log.Printf("[site] website name fetch failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch the website's name.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

// SetNameHandler handles PUT /website/name behind RequireAdmin.
func (h *Handler) SetNameHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if err := h.store.SetWebsiteName(r.Context(), strings.TrimSpace(req.Name)); err != nil {
		log.Printf("[site] website name update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to edit the website's name.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
