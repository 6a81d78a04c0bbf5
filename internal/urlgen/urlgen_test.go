package urlgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerio-castellano/everytools-api/internal/fetch"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

// upstream serves page for every request and records the last request URI.
func upstream(t *testing.T, status int, page []byte, lastURI *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastURI != nil {
			lastURI.Store(r.URL.RequestURI())
		}
		if status >= 300 && status < 400 {
			w.Header().Set("Location", "https://elsewhere.example/file")
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = w.Write(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher() *fetch.Client {
	return fetch.NewClient(fetch.Options{Timeout: 2 * time.Second, UserAgent: "test"})
}

func TestMediaFire(t *testing.T) {
	var uri atomic.Value
	srv := upstream(t, http.StatusOK, fixture(t, "mediafire.html"), &uri)
	g := NewMediaFire(newFetcher(), srv.URL)

	got, err := g.Generate(context.Background(), "xyz123abc")
	require.NoError(t, err)
	assert.Equal(t, "https://download1234.mediafire.com/abcdEFgh/xyz123abc", got)
	assert.Equal(t, "/file/xyz123abc", uri.Load())
}

func TestGoogleDrive_ConfirmationForm(t *testing.T) {
	var uri atomic.Value
	srv := upstream(t, http.StatusOK, fixture(t, "googledrive_confirm.html"), &uri)
	g := NewGoogleDrive(newFetcher(), srv.URL)

	got, err := g.Generate(context.Background(), "1AbC_d-E")
	require.NoError(t, err)
	assert.Equal(t, "https://drive.usercontent.google.com/download?id=1AbC_d-E&export=download&confirm=t", got)
	assert.Equal(t, "/uc?export=download&id=1AbC_d-E", uri.Load())
}

func TestGoogleDrive_FallsBackToRequestURL(t *testing.T) {
	tests := []struct {
		name   string
		status int
		page   []byte
	}{
		{"no form", http.StatusOK, fixture(t, "no_link.html")},
		{"redirect", http.StatusSeeOther, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := upstream(t, tt.status, tt.page, nil)
			g := NewGoogleDrive(newFetcher(), srv.URL)

			got, err := g.Generate(context.Background(), "abc")
			require.NoError(t, err)
			assert.Equal(t, srv.URL+"/uc?export=download&id=abc", got)
		})
	}
}

func TestGofile(t *testing.T) {
	srv := upstream(t, http.StatusOK, fixture(t, "gofile.html"), nil)
	g := NewGofile(newFetcher(), srv.URL)

	got, err := g.Generate(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://store1.gofile.io/download/web/0f1e2d/archive.7z", got)
}

func TestGenerators_SelectorMiss(t *testing.T) {
	page := fixture(t, "no_link.html")
	srv := upstream(t, http.StatusOK, page, nil)
	f := newFetcher()

	for _, g := range []Generator{NewMediaFire(f, srv.URL), NewGofile(f, srv.URL)} {
		t.Run(g.Source(), func(t *testing.T) {
			_, err := g.Generate(context.Background(), "abc")
			assert.ErrorIs(t, err, ErrSelectorMiss)
		})
	}
}

func TestMediaFire_EmptyLink(t *testing.T) {
	srv := upstream(t, http.StatusOK, []byte(`<a id="downloadButton" href="/report.zip">x</a>`), nil)
	_, err := NewMediaFire(newFetcher(), srv.URL).Generate(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrSelectorMiss)
}

func TestGenerators_UpstreamFailures(t *testing.T) {
	srv := upstream(t, http.StatusNotFound, nil, nil)
	f := newFetcher()

	for _, g := range []Generator{NewMediaFire(f, srv.URL), NewGoogleDrive(f, srv.URL), NewGofile(f, srv.URL)} {
		t.Run(g.Source(), func(t *testing.T) {
			_, err := g.Generate(context.Background(), "abc")
			assert.ErrorIs(t, err, fetch.ErrUpstreamStatus)
		})
	}

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	_, err := NewMediaFire(f, deadURL).Generate(context.Background(), "abc")
	assert.ErrorIs(t, err, fetch.ErrUpstreamUnavailable)
}

func TestGofile_RedirectIsMiss(t *testing.T) {
	srv := upstream(t, http.StatusFound, nil, nil)
	_, err := NewGofile(newFetcher(), srv.URL).Generate(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrSelectorMiss)
}
