package scrape

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/upstream"
)

// PollPolicy defines how batch completion is awaited
type PollPolicy struct {
	Interval   time.Duration
	Jitter     float64 // fraction of Interval, 0.2 = ±20%
	MaxRetries int
}

// NewPollPolicy creates the default polling policy
func NewPollPolicy() *PollPolicy {
	return &PollPolicy{
		Interval:   10 * time.Second,
		Jitter:     0.2,
		MaxRetries: 10,
	}
}

// PollResult is the terminal outcome of awaiting one job handle
type PollResult struct {
	Status   models.BatchStatus
	Results  []models.ResultRecord
	Error    string
	Attempts int
}

// Poller drives the per-batch status state machine:
// Pending -> {Completed, Failed, TimedOut}. Waits are timer-driven and
// honor context cancellation, so a pending batch never blocks shutdown.
type Poller struct {
	client interfaces.ScrapeClient
	policy *PollPolicy
	events interfaces.EventService
	logger arbor.ILogger
}

func NewPoller(client interfaces.ScrapeClient, policy *PollPolicy, events interfaces.EventService, logger arbor.ILogger) *Poller {
	if policy == nil {
		policy = NewPollPolicy()
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Poller{
		client: client,
		policy: policy,
		events: events,
		logger: logger,
	}
}

// Await polls the batch until a terminal status or the retry budget is
// spent. Each attempt waits Interval with jitter applied, then polls once.
// Upstream "completed"/"failed" map to the matching terminal status; any
// other value keeps the batch pending. Transport errors consume an attempt
// and are retried, except client errors (4xx) which fail the batch with no
// further attempts.
func (p *Poller) Await(ctx context.Context, batchID string) PollResult {
	for attempt := 1; attempt <= p.policy.MaxRetries; attempt++ {
		if err := p.waitInterval(ctx); err != nil {
			return PollResult{
				Status:   models.BatchStatusTimedOut,
				Error:    fmt.Sprintf("polling cancelled: %v", err),
				Attempts: attempt - 1,
			}
		}

		status, err := p.client.Status(ctx, batchID)
		if err != nil {
			var apiErr *upstream.APIError
			if errors.As(err, &apiErr) && apiErr.IsClientError() {
				p.logger.Warn().
					Str("batch_id", batchID).
					Int("attempt", attempt).
					Int("status_code", apiErr.StatusCode).
					Msg("Upstream rejected status poll, failing batch")
				return PollResult{
					Status:   models.BatchStatusFailed,
					Error:    err.Error(),
					Attempts: attempt,
				}
			}

			p.logger.Debug().
				Str("batch_id", batchID).
				Int("attempt", attempt).
				Err(err).
				Msg("Status poll failed, retrying")
			continue
		}

		switch strings.ToLower(strings.TrimSpace(status.Status)) {
		case "completed":
			return PollResult{
				Status:   models.BatchStatusCompleted,
				Results:  models.ExtractResults(status.Result),
				Attempts: attempt,
			}
		case "failed":
			message := status.Error
			if message == "" {
				message = "upstream reported failure"
			}
			return PollResult{
				Status:   models.BatchStatusFailed,
				Error:    message,
				Attempts: attempt,
			}
		default:
			p.logger.Debug().
				Str("batch_id", batchID).
				Int("attempt", attempt).
				Str("status", status.Status).
				Msg("Batch still pending")

			if p.events != nil {
				p.events.Publish(ctx, interfaces.Event{
					Type: interfaces.EventBatchPolling,
					Payload: map[string]interface{}{
						"batch_id": batchID,
						"attempt":  attempt,
						"status":   status.Status,
					},
				})
			}
		}
	}

	p.logger.Warn().
		Str("batch_id", batchID).
		Int("max_retries", p.policy.MaxRetries).
		Msg("Poll retry budget exhausted")

	return PollResult{
		Status:   models.BatchStatusTimedOut,
		Error:    fmt.Sprintf("no terminal status after %d polls", p.policy.MaxRetries),
		Attempts: p.policy.MaxRetries,
	}
}

// waitInterval sleeps the poll interval with jitter applied, honoring
// context cancellation.
func (p *Poller) waitInterval(ctx context.Context) error {
	interval := p.policy.Interval
	if p.policy.Jitter > 0 {
		offset := float64(interval) * p.policy.Jitter * (rand.Float64()*2 - 1)
		interval += time.Duration(offset)
	}
	if interval < 0 {
		interval = 0
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(interval):
		return nil
	}
}
