package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/openfolio/openfolio/internal/database"
	"github.com/openfolio/openfolio/internal/modules/reconcile"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	portfolioDB *database.DB
	sessions    *reconcile.SessionStore
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, portfolioDB *database.DB, sessions *reconcile.SessionStore) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		portfolioDB: portfolioDB,
		sessions:    sessions,
	}
}

// HandleHealth is the liveness check: process up, database reachable
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := h.portfolioDB.QuickCheck(ctx); err != nil {
		h.log.Error().Err(err).Msg("Database health check failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.startupTime).String(),
	})
}

// HandleSystemStatus returns process and host resource usage plus pipeline
// state (live import sessions)
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent := 0.0
	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		cpuPercent = percentages[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	memUsedPercent := 0.0
	memUsedMB := 0.0
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memUsedPercent = vmStat.UsedPercent
		memUsedMB = float64(vmStat.Used) / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	dbStatus := "ok"
	if err := h.portfolioDB.QuickCheck(ctx); err != nil {
		dbStatus = "error: " + err.Error()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime":           time.Since(h.startupTime).String(),
		"cpu_percent":      cpuPercent,
		"mem_used_percent": memUsedPercent,
		"mem_used_mb":      memUsedMB,
		"database":         dbStatus,
		"import_sessions":  h.sessions.Len(),
	})
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
