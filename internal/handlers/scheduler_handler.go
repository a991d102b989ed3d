package handlers

import (
	"net/http"

	"github.com/ternarybob/colligo/internal/interfaces"
)

// SchedulerHandler exposes the maintenance scheduler's job bookkeeping
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
	}
}

// GetStatusHandler handles GET /api/scheduler/status.
// Reports whether the scheduler is running plus per-job schedule,
// last-run, next-run, and last-error bookkeeping.
func (h *SchedulerHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if h.schedulerService == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"running": false,
			"jobs":    map[string]*interfaces.JobStatus{},
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.schedulerService.IsRunning(),
		"jobs":    h.schedulerService.GetAllJobStatuses(),
	})
}
