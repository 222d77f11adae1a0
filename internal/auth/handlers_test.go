package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pagemill/cms-backend/internal/middleware"
	"github.com/pagemill/cms-backend/internal/utils"
)

// newTestServer mounts the auth routes on a chi router exactly as main.go
// does, over an in-memory store.
func newTestServer(t *testing.T) (*httptest.Server, *fakeStore, *Service) {
	t.Helper()

	store := newFakeStore()
	hasher := testHasher()
	tokens := NewTokenIssuer("test-secret", 7*24*time.Hour)
	svc := NewService(store, hasher, tokens)
	handler := NewHandler(svc, store, 7*24*time.Hour)
	principals := NewPrincipalInfo(store)

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		handler.RegisterRoutes(api, RouteGates{
			RequireAuth:  middleware.RequireAuth(tokens, principals),
			RequireAdmin: middleware.RequireAdmin(tokens, principals),
			RateLimit:    middleware.RateLimit(rate.Inf, 0),
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, store, svc
}

func newClientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, payload map[string]string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// createAdmin inserts an admin account directly, the way the out-of-band
// seed would.
func createAdmin(t *testing.T, store *fakeStore, email, password string) {
	t.Helper()
	hash, salt, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	err = store.Create(context.Background(), &User{
		UserID:       uuid.New().String(),
		Email:        email,
		Name:         "Site Admin",
		PasswordHash: hash,
		PasswordSalt: salt,
		IsAdmin:      true,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
}

func TestRegisterThenCurrentSession(t *testing.T) {
	server, _, _ := newTestServer(t)
	client := newClientWithJar(t)

	resp := postJSON(t, client, server.URL+"/api/register", map[string]string{
		"email": "a@b.com", "name": "Ann", "password": "Secret1!",
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, body)
	}
	if !strings.Contains(resp.Header.Get("Set-Cookie"), utils.SessionCookie) {
		t.Errorf("expected Set-Cookie with %s, got %q", utils.SessionCookie, resp.Header.Get("Set-Cookie"))
	}

	meResp, err := client.Get(server.URL + "/api/sessions/current")
	if err != nil {
		t.Fatalf("GET /api/sessions/current: %v", err)
	}
	meBody := readBody(t, meResp)
	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", meResp.StatusCode, meBody)
	}

	var me struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		IsAdmin bool   `json:"isAdmin"`
	}
	if err := json.Unmarshal([]byte(meBody), &me); err != nil {
		t.Fatalf("invalid JSON body: %s", meBody)
	}
	if me.Email != "a@b.com" || me.Name != "Ann" || me.IsAdmin {
		t.Errorf("unexpected session payload: %+v", me)
	}
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	server, _, _ := newTestServer(t)
	client := newClientWithJar(t)

	first := postJSON(t, client, server.URL+"/api/register", map[string]string{
		"email": "a@b.com", "name": "Ann", "password": "Secret1!",
	})
	readBody(t, first)

	second := postJSON(t, newClientWithJar(t), server.URL+"/api/register", map[string]string{
		"email": "a@b.com", "name": "Ann Again", "password": "Other9$x",
	})
	body := readBody(t, second)
	if second.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", second.StatusCode)
	}
	if !strings.Contains(body, "User already exists.") {
		t.Errorf("expected conflict message, got: %s", body)
	}
}

func TestRegister_ValidationErrorList(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := postJSON(t, newClientWithJar(t), server.URL+"/api/register", map[string]string{
		"email": "a@b.com", "name": "Ann", "password": "short",
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var payload struct {
		Errors []FieldError `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("invalid JSON body: %s", body)
	}
	if len(payload.Errors) == 0 || payload.Errors[0].Field != "password" {
		t.Errorf("expected a password field error, got: %+v", payload.Errors)
	}
}

func TestLogin_GenericFailurePayloads(t *testing.T) {
	server, _, _ := newTestServer(t)
	client := newClientWithJar(t)

	resp := postJSON(t, client, server.URL+"/api/register", map[string]string{
		"email": "a@b.com", "name": "Ann", "password": "Secret1!",
	})
	readBody(t, resp)

	wrongPw := postJSON(t, newClientWithJar(t), server.URL+"/api/sessions", map[string]string{
		"email": "a@b.com", "password": "Wrong1!!",
	})
	wrongPwBody := readBody(t, wrongPw)

	unknown := postJSON(t, newClientWithJar(t), server.URL+"/api/sessions", map[string]string{
		"email": "nobody@b.com", "password": "Secret1!",
	})
	unknownBody := readBody(t, unknown)

	if wrongPw.StatusCode != http.StatusBadRequest || unknown.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400/400, got %d/%d", wrongPw.StatusCode, unknown.StatusCode)
	}
	// Identical payloads: no account enumeration through login.
	if wrongPwBody != unknownBody {
		t.Errorf("failure payloads differ: %q vs %q", wrongPwBody, unknownBody)
	}
}

func TestCurrentSession_WithoutCookie(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/sessions/current")
	if err != nil {
		t.Fatalf("GET /api/sessions/current: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	server, _, _ := newTestServer(t)
	client := newClientWithJar(t)

	resp := postJSON(t, client, server.URL+"/api/register", map[string]string{
		"email": "a@b.com", "name": "Ann", "password": "Secret1!",
	})
	readBody(t, resp)

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/sessions/current", nil)
	logoutResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/sessions/current: %v", err)
	}
	readBody(t, logoutResp)
	if logoutResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", logoutResp.StatusCode)
	}

	// The jar dropped the expired cookie, so the session is gone.
	meResp, err := client.Get(server.URL + "/api/sessions/current")
	if err != nil {
		t.Fatalf("GET /api/sessions/current: %v", err)
	}
	readBody(t, meResp)
	if meResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", meResp.StatusCode)
	}
}

func TestListUsers_AdminOnly(t *testing.T) {
	server, store, _ := newTestServer(t)
	createAdmin(t, store, "admin@b.com", "Admin#123")

	// Non-admin is rejected.
	user := newClientWithJar(t)
	resp := postJSON(t, user, server.URL+"/api/register", map[string]string{
		"email": "a@b.com", "name": "Ann", "password": "Secret1!",
	})
	readBody(t, resp)
	listResp, err := user.Get(server.URL + "/api/users")
	if err != nil {
		t.Fatalf("GET /api/users: %v", err)
	}
	readBody(t, listResp)
	if listResp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", listResp.StatusCode)
	}

	// Admin gets the listing, with no email or hash fields.
	admin := newClientWithJar(t)
	loginResp := postJSON(t, admin, server.URL+"/api/sessions", map[string]string{
		"email": "admin@b.com", "password": "Admin#123",
	})
	readBody(t, loginResp)
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("admin login failed: %d", loginResp.StatusCode)
	}

	adminList, err := admin.Get(server.URL + "/api/users")
	if err != nil {
		t.Fatalf("GET /api/users: %v", err)
	}
	body := readBody(t, adminList)
	if adminList.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d; body: %s", adminList.StatusCode, body)
	}

	var entries []map[string]any
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		t.Fatalf("invalid JSON body: %s", body)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 users, got %d", len(entries))
	}
	for _, entry := range entries {
		for _, forbidden := range []string{"email", "passwordHash", "passwordSalt"} {
			if _, ok := entry[forbidden]; ok {
				t.Errorf("listing must not expose %q: %v", forbidden, entry)
			}
		}
	}
}

func TestExpiredToken_TreatedAsNoSession(t *testing.T) {
	store := newFakeStore()
	hasher := testHasher()
	verifier := NewTokenIssuer("test-secret", 7*24*time.Hour)
	expiredIssuer := NewTokenIssuer("test-secret", -time.Second)
	svc := NewService(store, hasher, verifier)
	handler := NewHandler(svc, store, 7*24*time.Hour)
	principals := NewPrincipalInfo(store)

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		handler.RegisterRoutes(api, RouteGates{
			RequireAuth:  middleware.RequireAuth(verifier, principals),
			RequireAdmin: middleware.RequireAdmin(verifier, principals),
			RateLimit:    middleware.RateLimit(rate.Inf, 0),
		})
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	user, _, err := svc.Register(context.Background(), "a@b.com", "Ann", "Secret1!")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	expired, err := expiredIssuer.Issue(user.UserID)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/sessions/current", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookie, Value: expired})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/sessions/current: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for an expired token, got %d", resp.StatusCode)
	}
}
