package models

import (
	"encoding/json"
	"time"
)

// BatchStatus represents the state of one dispatched batch
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
	// BatchStatusTimedOut is synthesized client-side when the poll retry
	// budget is exhausted while the upstream still reports in_progress.
	BatchStatusTimedOut BatchStatus = "timeout"
)

// Terminal reports whether no further polling can change this status
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusTimedOut:
		return true
	default:
		return false
	}
}

// Batch pairs one chunk of work items with exactly one account for its
// lifetime. Number is 1-based and exists for logging only.
type Batch struct {
	Number  int      `json:"number"`
	Items   []string `json:"items"`
	Account *Account `json:"-"`
}

// ResultRecord is one scraped profile payload. The shape is upstream-defined;
// the coordinator treats it as opaque.
type ResultRecord map[string]interface{}

// BatchOutcome is the terminal record of one dispatch+poll pipeline
type BatchOutcome struct {
	Number      int            `json:"number"`
	AccountRow  int            `json:"account_row"`
	ItemCount   int            `json:"item_count"`
	JobHandle   string         `json:"batch_id,omitempty"`
	Status      BatchStatus    `json:"status"`
	Results     []ResultRecord `json:"results,omitempty"`
	Error       string         `json:"error,omitempty"`
	DispatchedAt time.Time     `json:"dispatched_at,omitempty"`
	CompletedAt  time.Time     `json:"completed_at,omitempty"`
}

// Succeeded reports whether this batch contributed at least one result
func (o *BatchOutcome) Succeeded() bool {
	return o.Status == BatchStatusCompleted && len(o.Results) > 0
}

// ToJSON serializes the outcome for storage
func (o *BatchOutcome) ToJSON() (string, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FromJSONBatchOutcome deserializes an outcome from storage
func FromJSONBatchOutcome(data string) (*BatchOutcome, error) {
	var outcome BatchOutcome
	if err := json.Unmarshal([]byte(data), &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}
