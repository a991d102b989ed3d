package scrape

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
)

// Task is one named batch pipeline scheduled by the Controller.
type Task struct {
	Name string
	Run  func(context.Context)
}

// Controller bounds how many pipelines run at once. Pipelines queue on a
// counting semaphore; after taking a slot each one sleeps a randomized
// stagger delay so dispatches never reach the upstream in a burst.
type Controller struct {
	maxConcurrent int
	staggerMin    time.Duration
	staggerMax    time.Duration
	logger        arbor.ILogger
}

func NewController(maxConcurrent int, staggerMin, staggerMax time.Duration, logger arbor.ILogger) *Controller {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if staggerMax < staggerMin {
		staggerMax = staggerMin
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Controller{
		maxConcurrent: maxConcurrent,
		staggerMin:    staggerMin,
		staggerMax:    staggerMax,
		logger:        logger,
	}
}

// Run executes every task and blocks until all of them have returned. A
// panicking task is recovered and logged without affecting its siblings;
// its outcome slot keeps whatever state the task had written before dying.
func (c *Controller) Run(ctx context.Context, tasks []Task) {
	if len(tasks) == 0 {
		return
	}

	semaphore := make(chan struct{}, c.maxConcurrent)
	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		t := task
		common.SafeGo(c.logger, t.Name, func() {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				c.logger.Warn().Str("task", t.Name).Msg("Cancelled while waiting for slot")
				return
			}
			defer func() { <-semaphore }()

			if err := c.stagger(ctx); err != nil {
				c.logger.Warn().Str("task", t.Name).Msg("Cancelled during stagger delay")
				return
			}

			t.Run(ctx)
		})
	}

	wg.Wait()
}

// stagger sleeps a delay drawn uniformly from [staggerMin, staggerMax].
func (c *Controller) stagger(ctx context.Context) error {
	delay := c.staggerMin
	if spread := c.staggerMax - c.staggerMin; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread) + 1))
	}
	if delay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
