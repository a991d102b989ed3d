package models

import (
	"github.com/go-playground/validator/v10"
)

// ScrapeRequest is the body of POST /api/scrape and /api/scrape/wait.
// URLs may be full profile URLs or bare identifiers; extraction happens
// server-side. Zero overrides fall back to configured defaults.
type ScrapeRequest struct {
	URLs          []string `json:"urls" validate:"required,min=1,dive,min=1"`
	ChunkSize     int      `json:"chunk_size,omitempty" validate:"omitempty,min=1"`
	MaxConcurrent int      `json:"max_concurrent,omitempty" validate:"omitempty,min=1"`
}

// Validate validates the request using go-playground/validator.
// Returns an error if any required fields are missing or invalid.
func (r *ScrapeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ScrapeAccepted is the 202 response of the async scrape endpoint
type ScrapeAccepted struct {
	RunID      string `json:"run_id"`
	ItemCount  int    `json:"items"`
	BatchCount int    `json:"batches"`
	StatusURL  string `json:"status_url"`
}

// AccountsStatusResponse is the body of GET /api/accounts/status
type AccountsStatusResponse struct {
	Total      int           `json:"total"`
	Eligible   int           `json:"eligible"`
	DailyLimit int           `json:"daily_limit"`
	Accounts   []AccountView `json:"accounts"`
}

// RunListResponse is the paginated body of GET /api/runs
type RunListResponse struct {
	Runs   []*ScrapeRun `json:"runs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}
