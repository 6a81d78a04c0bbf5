package handlers

import (
	"net/http"
	"regexp"

	"github.com/rogerio-castellano/everytools-api/internal/urlgen"
)

// MediaFireFileHandler godoc
// @Summary Direct download link for a MediaFire file
// @Tags url-generator
// @Produce json
// @Param id query string true "MediaFire file key (alphanumeric)"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope "Invalid id"
// @Failure 404 {object} Envelope "Link not found"
// @Failure 429 {object} Envelope "Rate limit exceeded"
// @Router /api/url-generator/v1/mediafire-file [get]
func (h *Handlers) MediaFireFileHandler(w http.ResponseWriter, r *http.Request) {
	h.generateURL(w, r, h.deps.MediaFire, alphanumericID)
}

// GoogleDriveFileHandler godoc
// @Summary Direct download link for a Google Drive file
// @Tags url-generator
// @Produce json
// @Param id query string true "Drive file id (letters, digits, - and _)"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope "Invalid id"
// @Failure 404 {object} Envelope "Link not found"
// @Failure 429 {object} Envelope "Rate limit exceeded"
// @Router /api/url-generator/v1/googledrive-file [get]
func (h *Handlers) GoogleDriveFileHandler(w http.ResponseWriter, r *http.Request) {
	h.generateURL(w, r, h.deps.GoogleDrive, driveID)
}

// GofileFileHandler godoc
// @Summary Direct download link for a Gofile file
// @Description Disabled while the maintenance flag is on.
// @Tags url-generator
// @Produce json
// @Param id query string true "Gofile content id (alphanumeric)"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope "Invalid id"
// @Failure 404 {object} Envelope "Link not found"
// @Failure 429 {object} Envelope "Rate limit exceeded"
// @Failure 503 {object} Envelope "Under maintenance"
// @Router /api/url-generator/v1/gofile-file [get]
func (h *Handlers) GofileFileHandler(w http.ResponseWriter, r *http.Request) {
	if h.deps.GofileMaintenance {
		h.fail(w, http.StatusServiceUnavailable, msgMaintenance)
		return
	}
	h.generateURL(w, r, h.deps.Gofile, alphanumericID)
}

func (h *Handlers) generateURL(w http.ResponseWriter, r *http.Request, g urlgen.Generator, pattern *regexp.Regexp) {
	id, ok := queryID(r, pattern)
	if !ok {
		h.fail(w, http.StatusBadRequest, msgIDAlphanumeric)
		return
	}

	query := IDQuery[string]{ID: id}
	link, err := g.Generate(r.Context(), id)
	if err != nil {
		h.extractionFailed(w, r, g.Source(), err, query, msgQueryNotFound)
		return
	}

	h.respond(w, http.StatusOK, Envelope{
		Success: true,
		Output:  URLOutput{URL: link},
		Query:   query,
	})
}
