// Package scrape implements the batch orchestration core: splitting work
// items into chunks, pairing each chunk with an eligible account, running
// bounded dispatch+poll pipelines, and aggregating per-batch results.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/accounts"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// ErrNoWorkItems is returned when no profile identifier could be extracted
// from the submitted URLs.
var ErrNoWorkItems = errors.New("no work items extracted from input")

// RunOptions carries per-run overrides. Zero values fall back to the
// configured defaults.
type RunOptions struct {
	ChunkSize     int
	MaxConcurrent int
}

// Orchestrator coordinates one scrape run end to end. Failures inside a
// batch stay inside that batch; the run only aborts on preconditions
// (no work items, no eligible account).
type Orchestrator struct {
	config   *common.Config
	store    interfaces.AccountStore
	client   interfaces.ScrapeClient
	events   interfaces.EventService
	selector *accounts.Selector
	poller   *Poller
	logger   arbor.ILogger
}

func NewOrchestrator(config *common.Config, store interfaces.AccountStore, client interfaces.ScrapeClient, events interfaces.EventService, logger arbor.ILogger) *Orchestrator {
	if logger == nil {
		logger = common.GetLogger()
	}

	policy := &PollPolicy{
		Interval:   config.Scrape.PollIntervalDuration(),
		Jitter:     config.Scrape.PollJitter,
		MaxRetries: config.Scrape.MaxPollRetries,
	}

	return &Orchestrator{
		config:   config,
		store:    store,
		client:   client,
		events:   events,
		selector: accounts.NewSelector(config.Accounts.DailyLimit, logger),
		poller:   NewPoller(client, policy, events, logger),
		logger:   logger,
	}
}

// Execute runs the full pipeline for one set of source URLs and blocks
// until every batch reaches a terminal state. The returned report always
// carries the successful-vs-total batch summary, partial failures included.
func (o *Orchestrator) Execute(ctx context.Context, runID string, urls []string, opts RunOptions) (*models.RunReport, error) {
	started := time.Now()

	items := models.ExtractWorkItems(urls)
	if len(items) == 0 {
		return nil, ErrNoWorkItems
	}

	pool, err := o.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load account pool: %w", err)
	}

	available := o.selector.Available(pool)
	if len(available) == 0 {
		return nil, fmt.Errorf("cannot start run: %w", accounts.ErrNoEligibleAccount)
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = o.config.Scrape.ChunkSize
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = o.config.Scrape.MaxConcurrent
	}

	chunks := Split(items, chunkSize)

	o.logger.Info().
		Str("run_id", runID).
		Int("items", len(items)).
		Int("batches", len(chunks)).
		Int("accounts", len(available)).
		Int("chunk_size", chunkSize).
		Int("max_concurrent", maxConcurrent).
		Msg("Starting scrape run")

	o.publish(ctx, interfaces.EventRunStarted, map[string]interface{}{
		"run_id":  runID,
		"items":   len(items),
		"batches": len(chunks),
	})

	outcomes := make([]models.BatchOutcome, len(chunks))
	tasks := make([]Task, 0, len(chunks))

	for i, chunk := range chunks {
		outcomes[i] = models.BatchOutcome{
			Number:    i + 1,
			ItemCount: len(chunk),
			Status:    models.BatchStatusPending,
		}

		// One account serves exactly one batch per run. Batches beyond the
		// eligible pool are reported as failed rather than silently dropped.
		if i >= len(available) {
			outcomes[i].Status = models.BatchStatusFailed
			outcomes[i].Error = "no eligible account for batch"
			o.logger.Warn().
				Str("run_id", runID).
				Int("batch", i+1).
				Msg("No eligible account for batch")
			continue
		}

		account := available[i]
		outcomes[i].AccountRow = account.Row

		outcome := &outcomes[i]
		batchItems := chunk
		tasks = append(tasks, Task{
			Name: fmt.Sprintf("%s-batch-%d", runID, outcome.Number),
			Run: func(taskCtx context.Context) {
				o.runPipeline(taskCtx, runID, outcome, account, batchItems)
			},
		})
	}

	staggerMin, staggerMax := o.config.Scrape.StaggerRange()
	controller := NewController(maxConcurrent, staggerMin, staggerMax, o.logger)
	controller.Run(ctx, tasks)

	results, successful := Aggregate(outcomes)

	report := &models.RunReport{
		RunID:             runID,
		ItemCount:         len(items),
		BatchCount:        len(chunks),
		Outcomes:          outcomes,
		Results:           results,
		SuccessfulBatches: successful,
		StartedAt:         started,
		FinishedAt:        time.Now(),
	}

	o.logger.Info().
		Str("run_id", runID).
		Str("successful_batches", fmt.Sprintf("%d/%d", successful, len(chunks))).
		Int("results", len(results)).
		Msg("Scrape run completed")

	o.publish(ctx, interfaces.EventRunCompleted, map[string]interface{}{
		"run_id":             runID,
		"successful_batches": successful,
		"total_batches":      len(chunks),
		"results":            len(results),
	})

	return report, nil
}

// runPipeline dispatches one batch and awaits its terminal status, writing
// everything it learns onto the outcome slot it owns.
func (o *Orchestrator) runPipeline(ctx context.Context, runID string, outcome *models.BatchOutcome, account *models.Account, items []string) {
	outcome.DispatchedAt = time.Now()

	batchID, err := o.client.Dispatch(ctx, account, items)
	if err != nil {
		outcome.Status = models.BatchStatusFailed
		outcome.Error = fmt.Sprintf("dispatch failed: %v", err)
		outcome.CompletedAt = time.Now()
		o.logger.Warn().
			Str("run_id", runID).
			Int("batch", outcome.Number).
			Str("account", account.Label()).
			Err(err).
			Msg("Batch dispatch failed")
		o.publish(ctx, interfaces.EventBatchFailed, map[string]interface{}{
			"run_id": runID,
			"batch":  outcome.Number,
			"error":  outcome.Error,
		})
		return
	}

	outcome.JobHandle = batchID
	outcome.Status = models.BatchStatusInProgress

	// Usage counts against the account only when the dispatch was accepted.
	if err := o.store.IncrementUsage(ctx, account); err != nil {
		o.logger.Warn().
			Str("account", account.Label()).
			Err(err).
			Msg("Failed to persist usage increment")
	}

	o.logger.Info().
		Str("run_id", runID).
		Int("batch", outcome.Number).
		Str("batch_id", batchID).
		Str("account", account.Label()).
		Int("items", len(items)).
		Msg("Batch dispatched")
	o.publish(ctx, interfaces.EventBatchDispatched, map[string]interface{}{
		"run_id":   runID,
		"batch":    outcome.Number,
		"batch_id": batchID,
		"items":    len(items),
	})

	result := o.poller.Await(ctx, batchID)

	outcome.Status = result.Status
	outcome.Results = result.Results
	outcome.Error = result.Error
	outcome.CompletedAt = time.Now()

	switch result.Status {
	case models.BatchStatusCompleted:
		o.logger.Info().
			Str("run_id", runID).
			Int("batch", outcome.Number).
			Int("results", len(result.Results)).
			Int("polls", result.Attempts).
			Msg("Batch completed")
		o.publish(ctx, interfaces.EventBatchCompleted, map[string]interface{}{
			"run_id":   runID,
			"batch":    outcome.Number,
			"batch_id": batchID,
			"results":  len(result.Results),
		})
	case models.BatchStatusTimedOut:
		o.logger.Warn().
			Str("run_id", runID).
			Int("batch", outcome.Number).
			Str("batch_id", batchID).
			Int("polls", result.Attempts).
			Msg("Batch timed out awaiting completion")
		o.publish(ctx, interfaces.EventBatchFailed, map[string]interface{}{
			"run_id":   runID,
			"batch":    outcome.Number,
			"batch_id": batchID,
			"timeout":  true,
		})
	default:
		o.logger.Warn().
			Str("run_id", runID).
			Int("batch", outcome.Number).
			Str("batch_id", batchID).
			Str("error", result.Error).
			Msg("Batch failed")
		o.publish(ctx, interfaces.EventBatchFailed, map[string]interface{}{
			"run_id":   runID,
			"batch":    outcome.Number,
			"batch_id": batchID,
			"error":    result.Error,
		})
	}
}

func (o *Orchestrator) publish(ctx context.Context, eventType interfaces.EventType, payload map[string]interface{}) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		o.logger.Warn().Str("event", string(eventType)).Err(err).Msg("Failed to publish event")
	}
}
