package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rogerio-castellano/everytools-api/internal/auth"
)

// LoginHandler godoc
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Admin username and password"
// @Success 200 {object} LoginResult
// @Failure 400 {object} Envelope "Invalid input"
// @Failure 401 {object} Envelope "Invalid credentials"
// @Router /admin/login [post]
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds LoginRequest
	if err := readJSON(w, r, &creds); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		h.fail(w, http.StatusBadRequest, "Missing credentials.")
		return
	}

	token, err := h.deps.Auth.Login(creds.Username, creds.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.log.Info("admin login refused", zap.String("username", creds.Username))
		h.fail(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if err != nil {
		h.log.Error("failed to issue admin token", zap.Error(err))
		h.fail(w, http.StatusInternalServerError, "Failed to generate token.")
		return
	}

	h.respond(w, http.StatusOK, LoginResult{Success: true, Token: token})
}

// FlushCacheHandler godoc
// @Summary Drop every cached response
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope "Unauthorized"
// @Failure 403 {object} Envelope "Forbidden"
// @Failure 500 {object} Envelope "Store error"
// @Router /admin/cache [delete]
func (h *Handlers) FlushCacheHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Cache.Flush(r.Context()); err != nil {
		h.log.Error("failed to flush response cache", zap.Error(err))
		h.fail(w, http.StatusInternalServerError, "Failed to flush the response cache.")
		return
	}
	h.log.Info("response cache flushed", zap.String("by", auth.Subject(r)))
	h.respond(w, http.StatusOK, Envelope{Success: true, Message: "Response cache flushed."})
}

// ResetRateLimitsHandler godoc
// @Summary Forget every rate limit counter
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope "Unauthorized"
// @Failure 403 {object} Envelope "Forbidden"
// @Failure 500 {object} Envelope "Store error"
// @Router /admin/rate-limits [delete]
func (h *Handlers) ResetRateLimitsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Limiter.Reset(r.Context()); err != nil {
		h.log.Error("failed to reset rate limits", zap.Error(err))
		h.fail(w, http.StatusInternalServerError, "Failed to reset the rate limits.")
		return
	}
	h.log.Info("rate limits reset", zap.String("by", auth.Subject(r)))
	h.respond(w, http.StatusOK, Envelope{Success: true, Message: "Rate limits reset."})
}

// HealthHandler godoc
// @Summary Liveness and Redis reachability
// @Tags general
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /healthz [get]
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.deps.Redis == nil {
		h.respond(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	if err := h.deps.Redis.Ping(r.Context()); err != nil {
		h.log.Warn("health check: redis unreachable", zap.Error(err))
		h.respond(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Redis: "unreachable"})
		return
	}
	h.respond(w, http.StatusOK, HealthResponse{Status: "ok", Redis: "ok"})
}
