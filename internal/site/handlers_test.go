package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeStore struct {
	name string
}

func (f *fakeStore) GetWebsiteName(context.Context) (string, error) {
	if f.name == "" {
		return defaultWebsiteName, nil
	}
	return f.name, nil
}

func (f *fakeStore) SetWebsiteName(_ context.Context, name string) error {
	f.name = name
	return nil
}

func passThrough(next http.Handler) http.Handler { return next }

func newTestRouter(store Store) http.Handler {
	return NewHandler(store).SetupRoutes(RouteGates{RequireAdmin: passThrough})
}

func TestGetName_Default(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/name", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %s", rec.Body.String())
	}
	if body["name"] != defaultWebsiteName {
		t.Errorf("expected default name %q, got %q", defaultWebsiteName, body["name"])
	}
}

func TestSetName_RoundTrip(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/name", strings.NewReader(`{"name":"  Garden Gazette  "}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/name", nil))
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %s", rec.Body.String())
	}
	if body["name"] != "Garden Gazette" {
		t.Errorf("expected trimmed name, got %q", body["name"])
	}
}

func TestSetName_Rejected(t *testing.T) {
	for _, payload := range []string{`{"name":"   "}`, `{"name":""}`, `{`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/name", strings.NewReader(payload))
		newTestRouter(&fakeStore{}).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("payload %q: expected 400, got %d", payload, rec.Code)
		}
	}
}
