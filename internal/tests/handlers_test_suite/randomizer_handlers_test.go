package handlers_test_suite

import (
	"net/http"
	"strconv"
	"strings"
	"testing"
)

func TestRandomInt(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	for i := 0; i < 50; i++ {
		w := get(env.router, "/randomizer/random-int-number?min=-3&max=3")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		body := envelope(t, w)
		n, ok := body["number"].(float64)
		if !ok || n < -3 || n > 3 || n != float64(int(n)) {
			t.Fatalf("unexpected number %v", body["number"])
		}
		if body["type"] != "int" {
			t.Errorf("expected type int, got %v", body["type"])
		}
	}
}

func TestRandomInt_ZeroIsAResult(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := get(env.router, "/api/randomizer/v1/random-int-number?min=0&max=0")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := envelope(t, w)
	if n, ok := body["number"]; !ok || n != float64(0) {
		t.Errorf("expected number 0, got %v", n)
	}
}

func TestRandomInt_Validation(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		query   string
		message string
	}{
		{"min=5&max=3", "The min parameter must be less than the max parameter."},
		{"min=1", "The min and max parameters are required and must be integers."},
		{"min=a&max=3", "The min and max parameters are required and must be integers."},
		{"min=1.5&max=3", "The min and max parameters are required and must be integers."},
		{"min=1&max=99999999999999999999", "The min and max parameters are required and must be integers."},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(env.router, "/randomizer/random-int-number?"+tt.query)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if msg := envelope(t, w)["message"]; msg != tt.message {
				t.Errorf("expected %q, got %v", tt.message, msg)
			}
		})
	}
}

func TestRandomFloat(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	for i := 0; i < 50; i++ {
		w := get(env.router, "/randomizer/random-float-number?min=1.5&max=2.125")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		body := envelope(t, w)
		v, ok := body["number"].(float64)
		if !ok || v < 1.5 || v > 2.125 {
			t.Fatalf("unexpected number %v", body["number"])
		}
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 3 {
			t.Errorf("expected at most 3 decimals, got %s", s)
		}
		if body["type"] != "float" {
			t.Errorf("expected type float, got %v", body["type"])
		}
	}
}

func TestRandomFloat_Validation(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		query   string
		message string
	}{
		{"min=2.5&max=1.5", "The min parameter must be less than the max parameter."},
		{"max=1.5", "The min and max parameters are required and must be floats."},
		{"min=1.2.3&max=4", "The min and max parameters are required and must be floats."},
		{"min=1e3&max=4", "The min and max parameters are required and must be floats."},
		{"min=.5&max=4", "The min and max parameters are required and must be floats."},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(env.router, "/api/randomizer/v1/random-float-number?"+tt.query)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if msg := envelope(t, w)["message"]; msg != tt.message {
				t.Errorf("expected %q, got %v", tt.message, msg)
			}
		})
	}
}

func TestRandomizers_AreNotCached(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := get(env.router, "/randomizer/random-int-number?min=1&max=1000000")
	if h := w.Header().Get("X-Cache"); h != "" {
		t.Errorf("expected no X-Cache header, got %q", h)
	}
	if env.store.Len() != 0 {
		t.Errorf("randomizer responses must not be cached")
	}
}

func TestRandomFloat_WholeResultKeepsDecimalPoint(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := get(env.router, "/randomizer/random-float-number?min=3&max=3.0")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	raw := w.Body.String()
	for _, want := range []string{`"number":3.0`, `"type":"float"`, `"min":3.0`, `"max":3.0`} {
		if !strings.Contains(raw, want) {
			t.Errorf("expected %s in %s", want, raw)
		}
	}
}
