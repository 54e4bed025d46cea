package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by JobStore lookups of unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// ErrQueueClosed is returned when publishing to or starting a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeProcessDocument extracts the fields of a stored report.
	JobTypeProcessDocument JobType = "process_document"
	// JobTypeSummarizeDocument summarises a stored PDF.
	JobTypeSummarizeDocument JobType = "summarize_document"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and waits for another attempt.
	JobStatusRetrying JobStatus = "retrying"
)

// DocumentJob is a request to run the pipeline over a stored document.
type DocumentJob struct {
	JobID      string  `json:"job_id"`
	Type       JobType `json:"type"`
	DocumentID string  `json:"document_id"`
	GCSURI     string  `json:"gcs_uri,omitempty"`

	// RunID is the extraction run of the last attempt.
	RunID string `json:"run_id,omitempty"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *DocumentJob) GetID() string        { return j.JobID }
func (j *DocumentJob) GetType() JobType     { return j.Type }
func (j *DocumentJob) GetStatus() JobStatus { return j.Status }

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	Publish(ctx context.Context, job *DocumentJob) error
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue. The handler is called for
	// each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error makes the job eligible for
// a retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	SaveJob(ctx context.Context, job *DocumentJob) error

	// GetJob returns ErrJobNotFound for unknown IDs.
	GetJob(ctx context.Context, jobID string) (*DocumentJob, error)

	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*DocumentJob, error)

	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	DocumentID string
	Status     JobStatus
	Limit      int
	Offset     int
}
