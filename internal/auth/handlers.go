package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/pagemill/cms-backend/internal/utils"
)

// Handler owns the session and registration endpoints.
type Handler struct {
	svc      *Service
	store    Store
	tokenTTL time.Duration
}

func NewHandler(svc *Service, store Store, tokenTTL time.Duration) *Handler {
	return &Handler{svc: svc, store: store, tokenTTL: tokenTTL}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

func toUserResponse(u *User) userResponse {
	return userResponse{ID: u.UserID, Email: u.Email, Name: u.Name, IsAdmin: u.IsAdmin}
}

// LoginHandler handles POST /sessions. The failure payload is identical for
// unknown emails and wrong passwords.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Incorrect email or password.")
			return
		}
		log.Printf("[auth] login failed for internal reasons: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to log in.")
		return
	}

	http.SetCookie(w, h.sessionCookie(token))
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// RegisterHandler handles POST /register. Validation failures return the
// full field list; a duplicate email is safe to disclose here, unlike at
// login.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, token, err := h.svc.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		var verr ValidationErrors
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]ValidationErrors{"errors": verr})
		case errors.Is(err, ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "User already exists.")
		default:
			log.Printf("[auth] registration failed for internal reasons: %v", err)
			writeError(w, http.StatusInternalServerError, "Unable to register the user.")
		}
		return
	}

	http.SetCookie(w, h.sessionCookie(token))
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// LogoutHandler handles DELETE /sessions/current. It only clears the cookie;
// the token itself stays valid until expiry, there is no server-side
// revocation list.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     utils.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// MeHandler handles GET /sessions/current behind RequireAuth.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	user, err := h.store.FindByID(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		log.Printf("[auth] session lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch the session.")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// ListUsersHandler handles GET /users behind RequireAdmin. The projection
// excludes emails and hashes.
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListAll(r.Context())
	if err != nil {
		log.Printf("[auth] user listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to fetch users.")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     utils.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[auth] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
