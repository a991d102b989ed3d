package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// ScrapeClient talks to the upstream scraping service. Implementations are
// safe for concurrent use; one client is shared by all batch pipelines.
type ScrapeClient interface {
	// Dispatch submits one batch of work items under one account's
	// credentials and returns the upstream job handle.
	Dispatch(ctx context.Context, account *models.Account, items []string) (string, error)

	// Status polls the upstream for the state of a dispatched batch.
	Status(ctx context.Context, batchID string) (*models.BatchStatusResponse, error)
}
