package handlers

import (
	"net/http"

	rl "github.com/rogerio-castellano/everytools-api/internal/http/rate_limiter"
)

// IndexHandler godoc
// @Summary Welcome message and endpoint catalogue
// @Tags general
// @Produce json
// @Success 200 {object} IndexResponse
// @Router / [get]
func (h *Handlers) IndexHandler(w http.ResponseWriter, r *http.Request) {
	scrapers, randomizers := h.deps.ScraperLimits, h.deps.RandomizerLimits

	gofile := EndpointInfo{
		URL:         "/api/url-generator/v1/gofile-file?id=",
		Alias:       "/url-generator/gofile?id=",
		Description: "Generates a direct download link for a file hosted on Gofile.",
		RateLimit:   scrapers,
	}
	if h.deps.GofileMaintenance {
		gofile.Status = "maintenance"
	}

	h.respond(w, http.StatusOK, IndexResponse{
		Message:   "Welcome to the EveryTools API. Where you can find all the tools you need in one place.",
		SourceURL: "https://github.com/Henrique-Coder/everytools-api",
		Docs:      "/swagger/index.html",
		Endpoints: map[string]map[string]EndpointInfo{
			"url-generator": {
				"mediafire": {
					URL:         "/api/url-generator/v1/mediafire-file?id=",
					Alias:       "/url-generator/mediafire?id=",
					Description: "Generates a direct download link for a file hosted on MediaFire.",
					RateLimit:   scrapers,
				},
				"googledrive": {
					URL:         "/api/url-generator/v1/googledrive-file?id=",
					Alias:       "/url-generator/googledrive?id=",
					Description: "Generates a direct download link for a file hosted on Google Drive.",
					RateLimit:   scrapers,
				},
				"gofile": gofile,
			},
			"wrapper": {
				"aliexpress-product": {
					URL:         "/api/wrapper/v1/aliexpress-product?id=",
					Alias:       "/wrapper/aliexpress-product?id=",
					Description: "Wraps AliExpress product info into a friendly JSON format.",
					RateLimit:   scrapers,
				},
			},
			"randomizer": {
				"random-int-number": {
					URL:         "/api/randomizer/v1/random-int-number?min=&max=",
					Alias:       "/randomizer/random-int-number?min=&max=",
					Description: "Generates a random integer number between two numbers.",
					RateLimit:   randomizers,
				},
				"random-float-number": {
					URL:         "/api/randomizer/v1/random-float-number?min=&max=",
					Alias:       "/randomizer/random-float-number?min=&max=",
					Description: "Generates a random float number between two numbers.",
					RateLimit:   randomizers,
				},
			},
		},
	})
}

func (h *Handlers) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.fail(w, http.StatusNotFound, msgEndpointMissing)
}

func (h *Handlers) MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	h.fail(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// RateLimitedHandler matches rl.LimitedFunc.
func (h *Handlers) RateLimitedHandler(w http.ResponseWriter, r *http.Request, _ rl.Decision) {
	h.fail(w, http.StatusTooManyRequests, msgRateLimited)
}
