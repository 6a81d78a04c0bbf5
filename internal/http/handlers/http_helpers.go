package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/rogerio-castellano/everytools-api/internal/aliexpress"
	"github.com/rogerio-castellano/everytools-api/internal/fetch"
	"github.com/rogerio-castellano/everytools-api/internal/metrics"
	"github.com/rogerio-castellano/everytools-api/internal/randomizer"
	"github.com/rogerio-castellano/everytools-api/internal/urlgen"
)

// readJSON decodes a single JSON value of at most one megabyte from the body.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1048576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}

	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must have only a single json value")
	}

	return nil
}

var errEncodeJSON = errors.New("failed to encode JSON")

// writeJSON takes a response status code and arbitrary data and writes a json response to the client
func writeJSON(w http.ResponseWriter, status int, data any, headers ...http.Header) error {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %w", errEncodeJSON, err)
	}

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header()[key] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("failed to write to response: %w", err)
	}

	return nil
}

// respond writes data as JSON. Nothing has been sent when encoding fails, so
// the client gets a 500 envelope instead of an empty 200.
func (h *Handlers) respond(w http.ResponseWriter, status int, data any) {
	err := writeJSON(w, status, data)
	if err == nil {
		return
	}
	h.log.Error("failed to write JSON response", zap.Int("status", status), zap.Error(err))
	if errors.Is(err, errEncodeJSON) {
		if err := writeJSON(w, http.StatusInternalServerError, Envelope{Success: false, Message: msgInternal}); err != nil {
			h.log.Error("failed to write error response", zap.Error(err))
		}
	}
}

func (h *Handlers) fail(w http.ResponseWriter, status int, message string) {
	h.respond(w, status, Envelope{Success: false, Message: message})
}

// Reject matches auth.RejectFunc.
func (h *Handlers) Reject(w http.ResponseWriter, status int, message string) {
	h.fail(w, status, message)
}

// extractionFailed logs and counts err, then answers 404 with the query echoed.
func (h *Handlers) extractionFailed(w http.ResponseWriter, r *http.Request, source string, err error, query any, message string) {
	reason := failureReason(err)
	metrics.UpstreamFailuresTotal.WithLabelValues(source, reason).Inc()
	h.log.Warn("extraction failed",
		zap.String("source", source),
		zap.String("reason", reason),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	h.respond(w, http.StatusNotFound, Envelope{Success: false, Message: message, Query: query})
}

func failureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, fetch.ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, fetch.ErrUpstreamStatus):
		return "status"
	case errors.Is(err, fetch.ErrBodyTooLarge):
		return "body_too_large"
	case errors.Is(err, urlgen.ErrSelectorMiss):
		return "selector_miss"
	case errors.Is(err, aliexpress.ErrScriptNotFound):
		return "script_not_found"
	case errors.Is(err, aliexpress.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, aliexpress.ErrFieldMissing):
		return "field_missing"
	case errors.Is(err, randomizer.ErrInvalidRange):
		return "invalid_range"
	default:
		return "other"
	}
}
