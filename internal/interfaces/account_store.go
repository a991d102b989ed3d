package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// AccountStore is the credential pool collaborator. The pool is read in
// full at run start; usage writebacks happen one row at a time.
type AccountStore interface {
	// Load reads every parseable account record. Malformed rows are
	// skipped with a warning, never returned as errors.
	Load(ctx context.Context) ([]*models.Account, error)

	// IncrementUsage adds one to the account's daily-usage counter and
	// persists it synchronously. Called once per successful dispatch.
	IncrementUsage(ctx context.Context, account *models.Account) error

	// ResetAllUsage zeroes every account's daily-usage counter.
	// Invoked by the daily maintenance job.
	ResetAllUsage(ctx context.Context) error
}
