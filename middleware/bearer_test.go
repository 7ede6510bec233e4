package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/goShell/jwt"
	"github.com/go-chi/chi/v5"
)

func newManager(t *testing.T) *jwt.Manager {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{
		TTL:           time.Minute,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func newRouter(m *jwt.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(Bearer(m))
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		_, _ = w.Write([]byte(claims.TID))
	})
	r.With(RequireRole("Reseller", "Sub-Reseller")).Put("/settings", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func do(h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBearerAttachesClaims(t *testing.T) {
	m := newManager(t)
	token, _ := m.Issue("u1", "tenant-3", "User")

	rec := do(newRouter(m), http.MethodGet, "/me", "Bearer "+token)
	if rec.Code != http.StatusOK || rec.Body.String() != "tenant-3" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestBearerRejects(t *testing.T) {
	m := newManager(t)
	h := newRouter(m)
	for _, auth := range []string{"", "Basic abc", "Bearer ", "Bearer not-a-token"} {
		if rec := do(h, http.MethodGet, "/me", auth); rec.Code != http.StatusUnauthorized {
			t.Fatalf("auth %q: expected 401, got %d", auth, rec.Code)
		}
	}
	if rec := do(Bearer(nil)(http.NotFoundHandler()), http.MethodGet, "/", "Bearer x"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("nil verifier: expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	m := newManager(t)
	h := newRouter(m)

	user, _ := m.Issue("u1", "t", "User")
	if rec := do(h, http.MethodPut, "/settings", "Bearer "+user); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	reseller, _ := m.Issue("u2", "t", "Reseller")
	if rec := do(h, http.MethodPut, "/settings", "Bearer "+reseller); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	bare := RequireRole("Admin")(http.NotFoundHandler())
	if rec := do(bare, http.MethodGet, "/", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing claims: expected 401, got %d", rec.Code)
	}
}
