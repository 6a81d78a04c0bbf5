package handlers_test_suite

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rogerio-castellano/everytools-api/internal/auth"
	"github.com/rogerio-castellano/everytools-api/internal/clock"
	api "github.com/rogerio-castellano/everytools-api/internal/http"
	"github.com/rogerio-castellano/everytools-api/internal/http/cache"
	handler "github.com/rogerio-castellano/everytools-api/internal/http/handlers"
	rl "github.com/rogerio-castellano/everytools-api/internal/http/rate_limiter"
	"github.com/rogerio-castellano/everytools-api/internal/models"
	"github.com/rogerio-castellano/everytools-api/internal/randomizer"
)

const (
	adminPassword = "secret-pass"
	looseLimits   = "1000/second"
)

type fakeGenerator struct {
	source string
	url    string
	err    error
	calls  atomic.Int32
}

func (g *fakeGenerator) Source() string { return g.source }

func (g *fakeGenerator) Generate(_ context.Context, id string) (string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return "", g.err
	}
	return g.url + id, nil
}

type fakeWrapper struct {
	product *models.Product
	err     error
	calls   atomic.Int32
}

func (f *fakeWrapper) Source() string { return "aliexpress" }

func (f *fakeWrapper) Product(_ context.Context, id int64) (*models.Product, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	p := *f.product
	p.ProductInfo.ID = id
	return &p, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type envOptions struct {
	scraperLimits    string
	randomizerLimits string
	maintenance      bool
	admin            bool
	redis            handler.Pinger
}

type testEnv struct {
	router      http.Handler
	clock       *clock.FakeClock
	mediafire   *fakeGenerator
	googledrive *fakeGenerator
	gofile      *fakeGenerator
	wrapper     *fakeWrapper
	store       *cache.MemoryStore
	limiter     *rl.MemoryLimiter
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	if opts.scraperLimits == "" {
		opts.scraperLimits = looseLimits
	}
	if opts.randomizerLimits == "" {
		opts.randomizerLimits = looseLimits
	}
	scraperPolicy, err := rl.ParsePolicy(opts.scraperLimits)
	if err != nil {
		t.Fatalf("scraper policy: %v", err)
	}
	randomizerPolicy, err := rl.ParsePolicy(opts.randomizerLimits)
	if err != nil {
		t.Fatalf("randomizer policy: %v", err)
	}

	fc := clock.NewFake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	env := &testEnv{
		clock:       fc,
		mediafire:   &fakeGenerator{source: "mediafire", url: "https://download.mediafire.test/"},
		googledrive: &fakeGenerator{source: "googledrive", url: "https://drive.usercontent.test/"},
		gofile:      &fakeGenerator{source: "gofile", url: "https://store1.gofile.test/download/"},
		wrapper:     &fakeWrapper{product: sampleProduct()},
		store:       cache.NewMemoryStore(fc),
		limiter:     rl.NewMemoryLimiter(fc),
	}

	var authService *auth.Service
	if opts.admin {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		authService = auth.NewService("admin", string(hash), "test-secret")
	}

	h := handler.New(handler.Deps{
		MediaFire:         env.mediafire,
		GoogleDrive:       env.googledrive,
		Gofile:            env.gofile,
		AliExpress:        env.wrapper,
		Randomizer:        randomizer.New(rand.NewPCG(7, 11)),
		Cache:             env.store,
		Limiter:           env.limiter,
		Redis:             opts.redis,
		Auth:              authService,
		GofileMaintenance: opts.maintenance,
		ScraperLimits:     opts.scraperLimits,
		RandomizerLimits:  opts.randomizerLimits,
	})

	env.router = api.NewRouter(h, api.RouterConfig{
		Limiter:          env.limiter,
		ScraperPolicy:    scraperPolicy,
		RandomizerPolicy: randomizerPolicy,
		Cache:            env.store,
		DefaultTTL:       300 * time.Second,
		IndexTTL:         24 * time.Hour,
		Auth:             authService,
	})
	return env
}

func sampleProduct() *models.Product {
	return &models.Product{
		StoreInfo: models.StoreInfo{ID: 1102345678, Name: "Hydro Goods Store"},
		ProductInfo: models.ProductInfo{
			URL:            "https://www.aliexpress.com/item/1005001.html",
			Name:           "Water Bottle",
			AvailableStock: 12,
		},
		ProductPrice: models.ProductPrice{CurrencyCode: "USD", OriginalValue: 25.99, DiscountPercentage: 30, FinalPrice: 18.19},
	}
}

func get(r http.Handler, target string, headers ...http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if len(headers) > 0 {
		for k, v := range headers[0] {
			req.Header[k] = v
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func do(r http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope decodes a tool response into a generic map so absent keys can be checked.
func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("error decoding response %q: %v", w.Body.String(), err)
	}
	return m
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, http.MethodPost, "/admin/login", "", handler.LoginRequest{Username: "admin", Password: adminPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d: %s", w.Code, w.Body.String())
	}
	var resp handler.LoginResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("token decoding failed: %v", err)
	}
	return resp.Token
}
