package scrape

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/upstream"
)

// mockScrapeClient implements interfaces.ScrapeClient for testing
type mockScrapeClient struct {
	mu           sync.Mutex
	dispatchFunc func(ctx context.Context, account *models.Account, items []string) (string, error)
	statusFunc   func(ctx context.Context, batchID string) (*models.BatchStatusResponse, error)
	dispatches   int
	polls        int
}

func (m *mockScrapeClient) Dispatch(ctx context.Context, account *models.Account, items []string) (string, error) {
	m.mu.Lock()
	m.dispatches++
	m.mu.Unlock()
	if m.dispatchFunc != nil {
		return m.dispatchFunc(ctx, account, items)
	}
	return "batch-1", nil
}

func (m *mockScrapeClient) Status(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
	m.mu.Lock()
	m.polls++
	m.mu.Unlock()
	if m.statusFunc != nil {
		return m.statusFunc(ctx, batchID)
	}
	return &models.BatchStatusResponse{Status: "completed"}, nil
}

func (m *mockScrapeClient) pollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

func (m *mockScrapeClient) dispatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatches
}

func fastPolicy(maxRetries int) *PollPolicy {
	return &PollPolicy{
		Interval:   time.Millisecond,
		Jitter:     0,
		MaxRetries: maxRetries,
	}
}

func TestPoller_TimedOutAfterExactBudget(t *testing.T) {
	client := &mockScrapeClient{
		statusFunc: func(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
			return &models.BatchStatusResponse{Status: "in_progress"}, nil
		},
	}

	poller := NewPoller(client, fastPolicy(3), nil, nil)
	result := poller.Await(context.Background(), "batch-1")

	if result.Status != models.BatchStatusTimedOut {
		t.Errorf("Status = %q, want timeout", result.Status)
	}
	if client.pollCount() != 3 {
		t.Errorf("polls = %d, want exactly 3", client.pollCount())
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if len(result.Results) != 0 {
		t.Errorf("Results = %v, want empty", result.Results)
	}
}

func TestPoller_Completed(t *testing.T) {
	calls := 0
	client := &mockScrapeClient{
		statusFunc: func(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
			calls++
			if calls < 2 {
				return &models.BatchStatusResponse{Status: "in_progress"}, nil
			}
			return &models.BatchStatusResponse{
				Status: "completed",
				Result: []interface{}{
					map[string]interface{}{"profile": "alice"},
					map[string]interface{}{"profile": "bob"},
				},
			}, nil
		},
	}

	poller := NewPoller(client, fastPolicy(5), nil, nil)
	result := poller.Await(context.Background(), "batch-1")

	if result.Status != models.BatchStatusCompleted {
		t.Fatalf("Status = %q, want completed", result.Status)
	}
	if len(result.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(result.Results))
	}
	if result.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", result.Attempts)
	}
}

func TestPoller_UpstreamFailed(t *testing.T) {
	client := &mockScrapeClient{
		statusFunc: func(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
			return &models.BatchStatusResponse{Status: "failed", Error: "all profiles blocked"}, nil
		},
	}

	poller := NewPoller(client, fastPolicy(5), nil, nil)
	result := poller.Await(context.Background(), "batch-1")

	if result.Status != models.BatchStatusFailed {
		t.Fatalf("Status = %q, want failed", result.Status)
	}
	if result.Error != "all profiles blocked" {
		t.Errorf("Error = %q", result.Error)
	}
	if client.pollCount() != 1 {
		t.Errorf("polls = %d, want 1", client.pollCount())
	}
}

func TestPoller_ClientErrorStopsImmediately(t *testing.T) {
	client := &mockScrapeClient{
		statusFunc: func(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
			return nil, &upstream.APIError{
				StatusCode: 404,
				Message:    "unknown batch",
				Endpoint:   "/status/batch-1",
			}
		},
	}

	poller := NewPoller(client, fastPolicy(10), nil, nil)
	result := poller.Await(context.Background(), "batch-1")

	if result.Status != models.BatchStatusFailed {
		t.Fatalf("Status = %q, want failed", result.Status)
	}
	// 4xx is permanent: exactly one poll, zero further attempts.
	if client.pollCount() != 1 {
		t.Errorf("polls = %d, want 1", client.pollCount())
	}
}

func TestPoller_TransportErrorsRetried(t *testing.T) {
	client := &mockScrapeClient{
		statusFunc: func(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
			return nil, errors.New("connection reset")
		},
	}

	poller := NewPoller(client, fastPolicy(3), nil, nil)
	result := poller.Await(context.Background(), "batch-1")

	if result.Status != models.BatchStatusTimedOut {
		t.Errorf("Status = %q, want timeout", result.Status)
	}
	if client.pollCount() != 3 {
		t.Errorf("polls = %d, want 3", client.pollCount())
	}
}

func TestPoller_ServerErrorRetried(t *testing.T) {
	client := &mockScrapeClient{
		statusFunc: func(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
			return nil, &upstream.APIError{
				StatusCode: 503,
				Message:    "scraper busy",
				Endpoint:   "/status/batch-1",
			}
		},
	}

	poller := NewPoller(client, fastPolicy(2), nil, nil)
	result := poller.Await(context.Background(), "batch-1")

	if result.Status != models.BatchStatusTimedOut {
		t.Errorf("Status = %q, want timeout after retrying 5xx", result.Status)
	}
	if client.pollCount() != 2 {
		t.Errorf("polls = %d, want 2", client.pollCount())
	}
}

func TestPoller_ContextCancelled(t *testing.T) {
	client := &mockScrapeClient{
		statusFunc: func(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
			return &models.BatchStatusResponse{Status: "in_progress"}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	poller := NewPoller(client, &PollPolicy{Interval: time.Minute, MaxRetries: 10}, nil, nil)
	result := poller.Await(ctx, "batch-1")

	if result.Status != models.BatchStatusTimedOut {
		t.Errorf("Status = %q, want timeout on cancellation", result.Status)
	}
	if client.pollCount() != 0 {
		t.Errorf("polls = %d, want 0", client.pollCount())
	}
}
