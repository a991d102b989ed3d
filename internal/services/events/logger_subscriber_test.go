package events

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
)

// TestNewLoggerSubscriber verifies that the logger subscriber logs events
func TestNewLoggerSubscriber(t *testing.T) {
	logger := arbor.NewLogger()

	subscriber := NewLoggerSubscriber(logger)

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventBatchDispatched,
		Payload: map[string]interface{}{
			"run_id":   "run_test-123",
			"batch_id": "batch-1",
			"batch":    1,
		},
	}

	if err := subscriber(ctx, event); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Event without payload must not error either
	event2 := interfaces.Event{
		Type:    interfaces.EventRunCompleted,
		Payload: nil,
	}

	if err := subscriber(ctx, event2); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

// TestPublishAllEventTypes verifies every known event type can be published
func TestPublishAllEventTypes(t *testing.T) {
	logger := arbor.NewLogger()

	eventService := NewService(logger)
	defer eventService.Close()

	ctx := context.Background()
	eventTypes := []interfaces.EventType{
		interfaces.EventRunStarted,
		interfaces.EventBatchDispatched,
		interfaces.EventBatchPolling,
		interfaces.EventBatchCompleted,
		interfaces.EventBatchFailed,
		interfaces.EventRunCompleted,
	}

	for _, eventType := range eventTypes {
		event := interfaces.Event{
			Type:    eventType,
			Payload: map[string]interface{}{"run_id": "run_test"},
		}

		if err := eventService.Publish(ctx, event); err != nil {
			t.Errorf("Expected no error publishing %s event, got: %v", eventType, err)
		}
	}
}

// TestPublishSyncReachesSubscribers verifies handlers run before PublishSync returns
func TestPublishSyncReachesSubscribers(t *testing.T) {
	logger := arbor.NewLogger()

	eventService := NewService(logger)
	defer eventService.Close()

	var callCount int64
	customHandler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt64(&callCount, 1)
		return nil
	}

	if err := eventService.Subscribe(interfaces.EventBatchCompleted, customHandler); err != nil {
		t.Fatalf("Failed to subscribe custom handler: %v", err)
	}

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventBatchCompleted,
		Payload: map[string]interface{}{
			"run_id": "run_test",
			"batch":  2,
		},
	}

	if err := eventService.PublishSync(ctx, event); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if got := atomic.LoadInt64(&callCount); got != 1 {
		t.Errorf("Expected custom handler to be called once, got: %d", got)
	}
}

// TestSubscribeNilHandler verifies nil handlers are rejected
func TestSubscribeNilHandler(t *testing.T) {
	logger := arbor.NewLogger()

	eventService := NewService(logger)
	defer eventService.Close()

	if err := eventService.Subscribe(interfaces.EventRunStarted, nil); err == nil {
		t.Error("Expected error subscribing nil handler, got nil")
	}
}
