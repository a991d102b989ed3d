package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/colligo/internal/models"
)

// ErrRunNotFound is returned by GetRun for unknown run IDs
var ErrRunNotFound = errors.New("run not found")

// RunStorage is the keyed registry of orchestration runs. Runs are created
// on submit, updated as pipelines resolve, and evicted after their TTL.
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.ScrapeRun) error
	GetRun(ctx context.Context, id string) (*models.ScrapeRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*models.ScrapeRun, error)
	CountRuns(ctx context.Context) (int, error)

	// DeleteExpired removes runs whose ExpiresAt lies before cutoff,
	// returning how many were evicted.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// StorageManager owns the database connection and hands out typed stores
type StorageManager interface {
	RunStorage() RunStorage
	Close() error
}
