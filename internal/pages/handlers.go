package pages

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pagemill/cms-backend/internal/utils"
)

// UserDirectory answers whether an author reassignment targets a registered
// user. Satisfied by auth.PrincipalInfo.
type UserDirectory interface {
	FindPrincipalByID(ctx context.Context, id string) (utils.Principal, error)
}

type Handler struct {
	store Store
	users UserDirectory
}

func NewHandler(store Store, users UserDirectory) *Handler {
	return &Handler{store: store, users: users}
}

type pageRequest struct {
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Tags            []string `json:"tags"`
	PublicationDate string   `json:"publicationDate"`
}

// ListHandler handles GET /pages. Guests only see published pages; the
// OptionalAuth gate decides whether a principal is present.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	principal := principalOrNil(r)
	result, err := h.store.List(r.Context(), principal, strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		log.Printf("[pages] listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch pages.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetHandler handles GET /pages/{id}.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.store.Get(r.Context(), chi.URLParam(r, "id"), principalOrNil(r))
	if err != nil {
		if errors.Is(err, ErrPageNotFound) {
			writeError(w, http.StatusNotFound, "Page not found!")
			return
		}
		log.Printf("[pages] fetch failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch the page.")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateHandler handles POST /pages. The author defaults to the principal;
// only admins may create pages on behalf of another registered user.
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	page, ok := h.decodePage(w, r, principal)
	if !ok {
		return
	}
	page.PageID = uuid.New().String()
	page.CreationDate = time.Now().UTC()

	if err := h.store.Create(r.Context(), page); err != nil {
		log.Printf("[pages] create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to add the page.")
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

// EditHandler handles PUT /pages/{id}. The store re-checks ownership even
// though the UI already hides the edit controls from non-authors.
func (h *Handler) EditHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	page, ok := h.decodePage(w, r, principal)
	if !ok {
		return
	}
	page.PageID = chi.URLParam(r, "id")

	if err := h.store.Update(r.Context(), page, principal); err != nil {
		switch {
		case errors.Is(err, ErrPageNotFound):
			writeError(w, http.StatusNotFound, "Page not found!")
		case errors.Is(err, ErrNotAllowed):
			writeError(w, http.StatusForbidden, "You cannot edit this page!")
		default:
			log.Printf("[pages] edit failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Unable to edit the page.")
		}
		return
	}

	// Re-fetch so the response carries the stored row (creation date, author
	// name) instead of echoing the partial request payload.
	updated, err := h.store.Get(r.Context(), page.PageID, &principal)
	if err != nil {
		log.Printf("[pages] fetch after edit failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to edit the page.")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteHandler handles DELETE /pages/{id}.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id"), principal); err != nil {
		switch {
		case errors.Is(err, ErrPageNotFound):
			writeError(w, http.StatusNotFound, "Page not found!")
		case errors.Is(err, ErrNotAllowed):
			writeError(w, http.StatusForbidden, "You cannot delete this page!")
		default:
			log.Printf("[pages] delete failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Unable to delete the page.")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodePage validates the request body and resolves the author field. A
// false return means the response has already been written.
func (h *Handler) decodePage(w http.ResponseWriter, r *http.Request, principal utils.Principal) (*Page, bool) {
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return nil, false
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return nil, false
	}

	author := req.Author
	if author == "" {
		author = principal.ID
	}
	if author != principal.ID {
		if !principal.IsAdmin {
			writeError(w, http.StatusForbidden, "Only admins can set authors as a different user.")
			return nil, false
		}
		if _, err := h.users.FindPrincipalByID(r.Context(), author); err != nil {
			writeError(w, http.StatusBadRequest, "The author must be a registered user.")
			return nil, false
		}
	}

	var pubDate *time.Time
	if req.PublicationDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PublicationDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Publication date must be YYYY-MM-DD")
			return nil, false
		}
		pubDate = &parsed
	}

	return &Page{
		Title:           strings.TrimSpace(req.Title),
		Author:          author,
		Tags:            pq.StringArray(req.Tags),
		PublicationDate: pubDate,
	}, true
}

func principalOrNil(r *http.Request) *utils.Principal {
	if p, ok := utils.GetPrincipalFromContext(r.Context()); ok {
		return &p
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[pages] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
