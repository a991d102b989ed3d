package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/accounts"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/scrape"
)

// ScrapeHandler handles scrape run submission
type ScrapeHandler struct {
	config       *common.Config
	orchestrator *scrape.Orchestrator
	runs         interfaces.RunStorage
	store        interfaces.AccountStore
	selector     *accounts.Selector
	logger       arbor.ILogger
}

// NewScrapeHandler creates a new ScrapeHandler
func NewScrapeHandler(config *common.Config, orchestrator *scrape.Orchestrator, runs interfaces.RunStorage, store interfaces.AccountStore, logger arbor.ILogger) *ScrapeHandler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &ScrapeHandler{
		config:       config,
		orchestrator: orchestrator,
		runs:         runs,
		store:        store,
		selector:     accounts.NewSelector(config.Accounts.DailyLimit, logger),
		logger:       logger,
	}
}

// SubmitHandler handles POST /api/scrape.
// Accepts the run, registers it pending, and executes it in the background.
func (h *ScrapeHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, items, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	if !h.checkCapacity(w, r) {
		return
	}

	run := h.newRun(req, items)
	if err := h.runs.SaveRun(r.Context(), run); err != nil {
		h.logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to register run")
		WriteError(w, http.StatusInternalServerError, "Failed to register run")
		return
	}

	h.logger.Info().
		Str("run_id", run.ID).
		Int("items", run.ItemCount).
		Int("batches", run.BatchCount).
		Msg("Scrape run accepted")

	opts := scrape.RunOptions{ChunkSize: req.ChunkSize, MaxConcurrent: req.MaxConcurrent}
	common.SafeGo(h.logger, "scrape-run-"+run.ID, func() {
		h.executeRun(context.Background(), run, req.URLs, opts)
	})

	WriteJSON(w, http.StatusAccepted, models.ScrapeAccepted{
		RunID:      run.ID,
		ItemCount:  run.ItemCount,
		BatchCount: run.BatchCount,
		StatusURL:  "/api/runs/" + run.ID,
	})
}

// WaitHandler handles POST /api/scrape/wait.
// Runs the orchestration synchronously and returns the full report.
func (h *ScrapeHandler) WaitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, items, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	if !h.checkCapacity(w, r) {
		return
	}

	run := h.newRun(req, items)
	if err := h.runs.SaveRun(r.Context(), run); err != nil {
		h.logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to register run")
		WriteError(w, http.StatusInternalServerError, "Failed to register run")
		return
	}

	opts := scrape.RunOptions{ChunkSize: req.ChunkSize, MaxConcurrent: req.MaxConcurrent}
	report, err := h.executeRun(r.Context(), run, req.URLs, opts)
	if err != nil {
		switch {
		case errors.Is(err, scrape.ErrNoWorkItems):
			WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, accounts.ErrNoEligibleAccount):
			WriteError(w, http.StatusTooManyRequests, "No account capacity available")
		default:
			WriteError(w, http.StatusInternalServerError, "Scrape run failed: "+err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// parseRequest decodes, validates, and extracts work items from the body.
// Writes the error response itself and returns ok=false on any failure.
func (h *ScrapeHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*models.ScrapeRequest, []string, bool) {
	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode scrape request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return nil, nil, false
	}

	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return nil, nil, false
	}

	items := models.ExtractWorkItems(req.URLs)
	if len(items) == 0 {
		WriteError(w, http.StatusBadRequest, "No profile identifiers could be extracted from urls")
		return nil, nil, false
	}

	return &req, items, true
}

// checkCapacity rejects submissions when no account can take work today.
// The same check runs again inside the orchestrator; this one exists so the
// async endpoint can refuse before accepting the run.
func (h *ScrapeHandler) checkCapacity(w http.ResponseWriter, r *http.Request) bool {
	pool, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load account pool")
		WriteError(w, http.StatusInternalServerError, "Failed to load account pool")
		return false
	}

	if len(h.selector.Available(pool)) == 0 {
		h.logger.Warn().Int("pool_size", len(pool)).Msg("Scrape rejected: no account capacity")
		WriteError(w, http.StatusTooManyRequests, "No account capacity available; retry after the daily usage reset")
		return false
	}

	return true
}

func (h *ScrapeHandler) newRun(req *models.ScrapeRequest, items []string) *models.ScrapeRun {
	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = h.config.Scrape.ChunkSize
	}

	now := time.Now()
	return &models.ScrapeRun{
		ID:         common.NewRunID(),
		Status:     models.RunStatusPending,
		ItemCount:  len(items),
		BatchCount: len(scrape.Split(items, chunkSize)),
		ChunkSize:  chunkSize,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(h.config.Scrape.RegistryTTLDuration()),
	}
}

// executeRun drives one orchestration and keeps the registry record current
func (h *ScrapeHandler) executeRun(ctx context.Context, run *models.ScrapeRun, urls []string, opts scrape.RunOptions) (*models.RunReport, error) {
	run.Status = models.RunStatusRunning
	run.UpdatedAt = time.Now()
	if err := h.runs.SaveRun(ctx, run); err != nil {
		h.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to mark run running")
	}

	report, err := h.orchestrator.Execute(ctx, run.ID, urls, opts)
	if err != nil {
		run.MarkFailed(err)
		if saveErr := h.runs.SaveRun(ctx, run); saveErr != nil {
			h.logger.Warn().Err(saveErr).Str("run_id", run.ID).Msg("Failed to persist failed run")
		}
		return nil, err
	}

	run.ApplyReport(report)
	if err := h.runs.SaveRun(ctx, run); err != nil {
		h.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to persist completed run")
	}

	return report, nil
}
