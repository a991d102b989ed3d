package scrape

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestController_CapEnforced(t *testing.T) {
	var current, peak, completed int64

	controller := NewController(2, 0, 0, nil)

	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = Task{
			Name: "cap-test",
			Run: func(ctx context.Context) {
				now := atomic.AddInt64(&current, 1)
				for {
					observed := atomic.LoadInt64(&peak)
					if now <= observed || atomic.CompareAndSwapInt64(&peak, observed, now) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&current, -1)
				atomic.AddInt64(&completed, 1)
			},
		}
	}

	controller.Run(context.Background(), tasks)

	if got := atomic.LoadInt64(&completed); got != 6 {
		t.Errorf("completed = %d, want 6", got)
	}
	if got := atomic.LoadInt64(&peak); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestController_PanicIsolation(t *testing.T) {
	var completed int64

	controller := NewController(3, 0, 0, nil)

	tasks := []Task{
		{Name: "ok-1", Run: func(ctx context.Context) { atomic.AddInt64(&completed, 1) }},
		{Name: "boom", Run: func(ctx context.Context) { panic("pipeline exploded") }},
		{Name: "ok-2", Run: func(ctx context.Context) { atomic.AddInt64(&completed, 1) }},
	}

	// Run must return despite the panic; siblings must complete.
	done := make(chan struct{})
	go func() {
		controller.Run(context.Background(), tasks)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after a task panicked")
	}

	if got := atomic.LoadInt64(&completed); got != 2 {
		t.Errorf("completed = %d, want 2", got)
	}
}

func TestController_NoTasks(t *testing.T) {
	controller := NewController(3, 0, 0, nil)

	done := make(chan struct{})
	go func() {
		controller.Run(context.Background(), nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with no tasks did not return")
	}
}

func TestController_StaggerDelaysStart(t *testing.T) {
	const delay = 30 * time.Millisecond

	controller := NewController(1, delay, delay, nil)

	started := time.Now()
	var elapsed time.Duration
	controller.Run(context.Background(), []Task{
		{Name: "staggered", Run: func(ctx context.Context) { elapsed = time.Since(started) }},
	})

	if elapsed < delay {
		t.Errorf("task started after %v, want at least %v", elapsed, delay)
	}
}
