package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/tx-categorizer/internal/categorize"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeCategorizeRun represents one full categorization run.
	JobTypeCategorizeRun JobType = "categorize_run"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

// CategorizeRunJob represents a queued categorization run. A run is not
// retried automatically: a failed run stays failed and the caller decides
// whether to trigger another one.
type CategorizeRunJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job itself failed to execute.
	Error string `json:"error,omitempty"`

	// Result is the run outcome once the job has executed.
	Result *categorize.Result `json:"result,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *CategorizeRunJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *CategorizeRunJob) GetType() JobType {
	return JobTypeCategorizeRun
}

// GetStatus implements the Job interface.
func (j *CategorizeRunJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	// PublishCategorizeRun publishes a categorization run job.
	PublishCategorizeRun(ctx context.Context, job *CategorizeRunJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
// This abstraction allows for different queue implementations (in-memory, Cloud Tasks, Pub/Sub).
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for the in-flight job to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job and returns the run result. An error means the
// job itself could not execute, not that the run reported a failure.
type JobHandler func(ctx context.Context, job Job) (*categorize.Result, error)

// JobStore defines the interface for storing and retrieving job status.
// This allows tracking job execution across service restarts.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *CategorizeRunJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*CategorizeRunJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*CategorizeRunJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
