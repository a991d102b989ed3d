package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// RunsHandler serves the run registry over HTTP
type RunsHandler struct {
	runs   interfaces.RunStorage
	logger arbor.ILogger
}

// NewRunsHandler creates a new RunsHandler
func NewRunsHandler(runs interfaces.RunStorage, logger arbor.ILogger) *RunsHandler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &RunsHandler{
		runs:   runs,
		logger: logger,
	}
}

// GetRunHandler handles GET /api/runs/{id}
func (h *RunsHandler) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := extractRunID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunNotFound) {
			WriteError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		WriteError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// ListRunsHandler handles GET /api/runs
func (h *RunsHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit, offset := GetListParams(r)

	runs, err := h.runs.ListRuns(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	total, err := h.runs.CountRuns(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count runs")
		WriteError(w, http.StatusInternalServerError, "Failed to count runs")
		return
	}

	WriteJSON(w, http.StatusOK, models.RunListResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// extractRunID extracts the run ID from a path like "/api/runs/{id}"
func extractRunID(path string) string {
	path = strings.TrimSuffix(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) >= 4 && parts[1] == "api" && parts[2] == "runs" {
		return parts[3]
	}

	return ""
}
