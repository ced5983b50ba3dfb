package handlers

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"watchsweep/models"
	"watchsweep/services/scheduler"
)

// SummarySource exposes the most recent run summary.
type SummarySource interface {
	LastSummary() (models.RunSummary, bool)
}

// SchedulerSource exposes the scheduler state.
type SchedulerSource interface {
	Status() scheduler.Status
}

// StatusHandler serves read-only run status.
type StatusHandler struct {
	summaries SummarySource
	scheduler SchedulerSource
	startedAt time.Time
	version   string
}

// NewStatusHandler creates a status handler. sched may be nil when the
// process runs once.
func NewStatusHandler(summaries SummarySource, sched SchedulerSource, version string) *StatusHandler {
	return &StatusHandler{
		summaries: summaries,
		scheduler: sched,
		startedAt: time.Now(),
		version:   version,
	}
}

type statusResponse struct {
	Version   string             `json:"version"`
	Uptime    string             `json:"uptime"`
	Scheduler *scheduler.Status  `json:"scheduler,omitempty"`
	LastRun   *models.RunSummary `json:"lastRun,omitempty"`
}

// Health reports liveness.
// GET /healthz
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status returns the scheduler state and the last run summary.
// GET /api/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Version: h.version,
		Uptime:  time.Since(h.startedAt).Truncate(time.Second).String(),
	}
	if h.scheduler != nil {
		st := h.scheduler.Status()
		resp.Scheduler = &st
	}
	if h.summaries != nil {
		if last, ok := h.summaries.LastSummary(); ok {
			resp.LastRun = &last
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
