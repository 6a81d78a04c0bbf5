package handlers_test_suite

import (
	"net/http"
	"testing"

	handler "github.com/rogerio-castellano/everytools-api/internal/http/handlers"
)

func TestAdmin_NotMountedWithoutCredentials(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := do(env.router, http.MethodPost, "/admin/login", "", handler.LoginRequest{Username: "admin", Password: adminPassword})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAdmin_Login(t *testing.T) {
	env := newTestEnv(t, envOptions{admin: true})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", handler.LoginRequest{Username: "admin", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", handler.LoginRequest{Username: "root", Password: adminPassword}, http.StatusUnauthorized},
		{"missing fields", handler.LoginRequest{Username: "admin"}, http.StatusBadRequest},
		{"not json", "plain", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(env.router, http.MethodPost, "/admin/login", "", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}

	if token := login(t, env.router); token == "" {
		t.Fatalf("expected a token")
	}
}

func TestAdmin_FlushCache(t *testing.T) {
	env := newTestEnv(t, envOptions{admin: true})
	target := "/url-generator/mediafire?id=abc"

	get(env.router, target)
	if env.store.Len() != 1 {
		t.Fatalf("expected one cached entry, got %d", env.store.Len())
	}

	if w := do(env.router, http.MethodDelete, "/admin/cache", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := do(env.router, http.MethodDelete, "/admin/cache", "not-a-jwt", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a bad token, got %d", w.Code)
	}

	token := login(t, env.router)
	w := do(env.router, http.MethodDelete, "/admin/cache", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env.store.Len() != 0 {
		t.Errorf("expected empty cache after flush")
	}
	if h := get(env.router, target).Header().Get("X-Cache"); h != "MISS" {
		t.Errorf("expected MISS after flush, got %q", h)
	}
}

func TestAdmin_ResetRateLimits(t *testing.T) {
	env := newTestEnv(t, envOptions{admin: true, randomizerLimits: "1/day"})
	target := "/randomizer/random-int-number?min=1&max=2"

	get(env.router, target)
	if w := get(env.router, target); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	token := login(t, env.router)
	if w := do(env.router, http.MethodDelete, "/admin/rate-limits", token, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := get(env.router, target); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after reset, got %d", w.Code)
	}
}
