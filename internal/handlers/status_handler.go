package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/promoparse/internal/common"
)

// StatusHandler serves health and version probes.
type StatusHandler struct {
	startedAt time.Time
}

// NewStatusHandler creates a status handler.
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{startedAt: time.Now().UTC()}
}

// HealthHandler handles GET /api/health.
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
		"version": common.GetVersion(),
	})
}

// VersionHandler handles GET /api/version.
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetFullVersion(),
	})
}
