package interfaces

import "time"

// JobStatus represents the current status of a scheduled maintenance job
type JobStatus struct {
	Name      string
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService manages cron-based maintenance jobs (daily usage reset,
// run-registry sweep).
type SchedulerService interface {
	// Start begins running registered jobs
	Start() error

	// Stop halts the scheduler, waiting for in-flight jobs
	Stop() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// RegisterJob registers a job under a cron schedule
	RegisterJob(name string, schedule string, handler func() error) error

	// GetJobStatus returns the status of a specific job
	GetJobStatus(name string) (*JobStatus, error)

	// GetAllJobStatuses returns all job statuses
	GetAllJobStatuses() map[string]*JobStatus
}
