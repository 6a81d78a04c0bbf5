// Package urlgen resolves direct download links from file hosting pages.
package urlgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rogerio-castellano/everytools-api/internal/fetch"
)

var ErrSelectorMiss = errors.New("download link not found in page")

const (
	MediaFireBaseURL   = "https://www.mediafire.com"
	GoogleDriveBaseURL = "https://drive.google.com"
	GofileBaseURL      = "https://gofile.io"
)

// Fetcher is the part of fetch.Client the generators depend on.
type Fetcher interface {
	Get(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Generator turns a host-specific file id into a download URL.
type Generator interface {
	Source() string
	Generate(ctx context.Context, id string) (string, error)
}

func parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// attr returns the trimmed attribute of the first node matching selector.
func attr(doc *goquery.Document, selector, name string) (string, bool) {
	v, ok := doc.Find(selector).First().Attr(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

type MediaFire struct {
	f       Fetcher
	baseURL string
}

func NewMediaFire(f Fetcher, baseURL string) *MediaFire {
	if baseURL == "" {
		baseURL = MediaFireBaseURL
	}
	return &MediaFire{f: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (g *MediaFire) Source() string { return "mediafire" }

// Generate reads a#downloadButton and drops the trailing file name segment.
func (g *MediaFire) Generate(ctx context.Context, id string) (string, error) {
	resp, err := g.f.Get(ctx, fetch.Request{
		Source:          g.Source(),
		URL:             g.baseURL + "/file/" + url.PathEscape(id),
		FollowRedirects: true,
	})
	if err != nil {
		return "", err
	}
	doc, err := parse(resp.Body)
	if err != nil {
		return "", err
	}
	href, ok := attr(doc, "a#downloadButton", "href")
	if !ok {
		return "", fmt.Errorf("%w: a#downloadButton", ErrSelectorMiss)
	}
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return "", fmt.Errorf("%w: empty mediafire link", ErrSelectorMiss)
	}
	return href, nil
}

type GoogleDrive struct {
	f       Fetcher
	baseURL string
}

func NewGoogleDrive(f Fetcher, baseURL string) *GoogleDrive {
	if baseURL == "" {
		baseURL = GoogleDriveBaseURL
	}
	return &GoogleDrive{f: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (g *GoogleDrive) Source() string { return "googledrive" }

// Generate returns the confirmation form action for large files and the
// export URL itself otherwise, which Drive serves directly.
func (g *GoogleDrive) Generate(ctx context.Context, id string) (string, error) {
	reqURL := g.baseURL + "/uc?export=download&id=" + url.QueryEscape(id)
	resp, err := g.f.Get(ctx, fetch.Request{Source: g.Source(), URL: reqURL})
	if err != nil {
		return "", err
	}
	if resp.IsRedirect() {
		return reqURL, nil
	}
	doc, err := parse(resp.Body)
	if err != nil {
		return "", err
	}
	if action, ok := attr(doc, "form#download-form", "action"); ok {
		return action, nil
	}
	return reqURL, nil
}

type Gofile struct {
	f       Fetcher
	baseURL string
}

func NewGofile(f Fetcher, baseURL string) *Gofile {
	if baseURL == "" {
		baseURL = GofileBaseURL
	}
	return &Gofile{f: f, baseURL: strings.TrimRight(baseURL, "/")}
}

func (g *Gofile) Source() string { return "gofile" }

func (g *Gofile) Generate(ctx context.Context, id string) (string, error) {
	resp, err := g.f.Get(ctx, fetch.Request{
		Source: g.Source(),
		URL:    g.baseURL + "/d/" + url.PathEscape(id),
	})
	if err != nil {
		return "", err
	}
	if resp.IsRedirect() {
		return "", fmt.Errorf("%w: gofile redirected to %q", ErrSelectorMiss, resp.Header.Get("Location"))
	}
	doc, err := parse(resp.Body)
	if err != nil {
		return "", err
	}
	href, ok := attr(doc, `a[href*="/download/"]`, "href")
	if !ok {
		return "", fmt.Errorf("%w: gofile download anchor", ErrSelectorMiss)
	}
	return href, nil
}
