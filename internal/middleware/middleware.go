package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pagemill/cms-backend/internal/utils"
)

// TokenVerifier checks a session token's signature and expiry, returning the
// encoded user ID only when both pass.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// PrincipalFetcher resolves a verified user ID into a Principal.
type PrincipalFetcher interface {
	FindPrincipalByID(ctx context.Context, id string) (utils.Principal, error)
}

// RequireAuth gates a route on a valid session cookie. Absent, expired,
// tampered and malformed tokens are all the same: not authenticated.
func RequireAuth(verifier TokenVerifier, fetcher PrincipalFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := resolvePrincipal(r, verifier, fetcher)
			if !ok {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(utils.WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalAuth attaches a Principal when the cookie verifies and lets the
// request through anonymously otherwise. Used by routes that render
// differently for guests.
func OptionalAuth(verifier TokenVerifier, fetcher PrincipalFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principal, ok := resolvePrincipal(r, verifier, fetcher); ok {
				r = r.WithContext(utils.WithPrincipal(r.Context(), principal))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin implies RequireAuth and additionally checks the admin flag,
// which is fetched fresh rather than trusted from any client-supplied data.
func RequireAdmin(verifier TokenVerifier, fetcher PrincipalFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := resolvePrincipal(r, verifier, fetcher)
			if !ok {
				unauthorized(w)
				return
			}
			if !principal.IsAdmin {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"})
				return
			}
			next.ServeHTTP(w, r.WithContext(utils.WithPrincipal(r.Context(), principal)))
		})
	}
}

func resolvePrincipal(r *http.Request, verifier TokenVerifier, fetcher PrincipalFetcher) (utils.Principal, bool) {
	cookie, err := r.Cookie(utils.SessionCookie)
	if err != nil || cookie.Value == "" {
		return utils.Principal{}, false
	}
	userID, err := verifier.Verify(cookie.Value)
	if err != nil {
		return utils.Principal{}, false
	}
	principal, err := fetcher.FindPrincipalByID(r.Context(), userID)
	if err != nil {
		return utils.Principal{}, false
	}
	return principal, true
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// CORSMiddleware echoes the origin back only if it's on the allow-list.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin") // important for caches
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorMap hands out one limiter per client IP and evicts entries idle
// longer than idleTTL, so the map stays bounded on a public endpoint.
type visitorMap struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func newVisitorMap(limit rate.Limit, burst int, idleTTL time.Duration) *visitorMap {
	return &visitorMap{
		limit:    limit,
		burst:    burst,
		idleTTL:  idleTTL,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (m *visitorMap) get(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= m.idleTTL {
		for key, v := range m.visitors {
			if now.Sub(v.lastSeen) >= m.idleTTL {
				delete(m.visitors, key)
			}
		}
		m.lastSweep = now
	}

	v, ok := m.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimit applies a per-client-IP token bucket. Login and registration sit
// behind it so credential guessing burns out quickly.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	visitors := newVisitorMap(limit, burst, 10*time.Minute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !visitors.get(ip).Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
