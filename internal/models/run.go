package models

import (
	"encoding/json"
	"time"
)

// RunStatus represents the state of one orchestration run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the run has finished, successfully or not
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// ScrapeRun is the registry record of one orchestration run. Runs are
// created pending on submit, move through running to a terminal status, and
// are evicted once ExpiresAt passes.
type ScrapeRun struct {
	ID                string         `json:"id" badgerhold:"index"`
	Status            RunStatus      `json:"status" badgerhold:"index"`
	ItemCount         int            `json:"item_count"`
	BatchCount        int            `json:"batch_count"`
	ChunkSize         int            `json:"chunk_size"`
	Outcomes          []BatchOutcome `json:"outcomes,omitempty"`
	SuccessfulBatches int            `json:"successful_batches"`
	ResultCount       int            `json:"result_count"`
	Error             string         `json:"error,omitempty"`
	CreatedAt         time.Time      `json:"created_at" badgerhold:"index"`
	UpdatedAt         time.Time      `json:"updated_at"`
	CompletedAt       time.Time      `json:"completed_at,omitempty"`
	// ExpiresAt bounds registry growth; the maintenance sweep deletes
	// runs past this instant.
	ExpiresAt time.Time `json:"expires_at" badgerhold:"index"`
}

// ApplyReport copies a finished run report onto the registry record
func (r *ScrapeRun) ApplyReport(report *RunReport) {
	r.Outcomes = report.Outcomes
	r.SuccessfulBatches = report.SuccessfulBatches
	r.ResultCount = len(report.Results)
	r.Status = RunStatusCompleted
	r.CompletedAt = report.FinishedAt
	r.UpdatedAt = time.Now()
}

// MarkFailed records a run that aborted before producing a report
func (r *ScrapeRun) MarkFailed(err error) {
	r.Status = RunStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	now := time.Now()
	r.CompletedAt = now
	r.UpdatedAt = now
}

// ToJSON serializes the run for logs and debugging
func (r *ScrapeRun) ToJSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RunReport is what the orchestrator hands back after the join barrier:
// per-batch outcomes plus the flat aggregate in batch-index order.
type RunReport struct {
	RunID             string         `json:"run_id,omitempty"`
	ItemCount         int            `json:"item_count"`
	BatchCount        int            `json:"batch_count"`
	Outcomes          []BatchOutcome `json:"outcomes"`
	Results           []ResultRecord `json:"results"`
	SuccessfulBatches int            `json:"successful_batches"`
	StartedAt         time.Time      `json:"started_at"`
	FinishedAt        time.Time      `json:"finished_at"`
}
