package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType names a background task
type JobType string

const (
	JobOrderImport  JobType = "order_import"
	JobStockSync    JobType = "stock_sync"
	JobPriceSync    JobType = "price_sync"
	JobFeedUpload   JobType = "feed_upload"
	JobReportImport JobType = "report_import"
)

// AllJobTypes lists every job type
func AllJobTypes() []JobType {
	return []JobType{JobOrderImport, JobStockSync, JobPriceSync, JobFeedUpload, JobReportImport}
}

// ParseJobType validates s
func ParseJobType(s string) (JobType, error) {
	for _, t := range AllJobTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJobType, s)
}

// JobStatus is the state of a Job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// maxRetryDelay caps the exponential backoff
const maxRetryDelay = 30 * time.Minute

// Job is one queued unit of work. An empty Target means every enabled
// marketplace; feed uploads use it for the feed name.
type Job struct {
	ID          uuid.UUID
	Type        JobType
	Target      string
	Status      JobStatus
	Error       string
	Summary     string
	EnqueuedAt  time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job
func NewJob(t JobType, target string, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       t,
		Target:     target,
		Status:     JobStatusPending,
		EnqueuedAt: time.Now(),
		MaxRetries: maxRetries,
	}
}

// key identifies jobs doing the same work
func (j *Job) key() string {
	return string(j.Type) + "/" + j.Target
}

// Name is used for logs and job records
func (j *Job) Name() string {
	if j.Target == "" {
		return string(j.Type)
	}
	return string(j.Type) + " " + j.Target
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.CompletedAt = nil
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete(summary string) {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
	j.Summary = summary
	j.NextRetryAt = nil
}

// Fail marks the job as failed
func (j *Job) Fail(err error) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err.Error()
}

// ShouldRetry reports whether a failed job has attempts left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry puts the job back to pending and returns the backoff delay
func (j *Job) ScheduleRetry(base time.Duration) time.Duration {
	j.RetryCount++
	delay := RetryDelay(base, j.RetryCount)
	next := time.Now().Add(delay)
	j.Status = JobStatusPending
	j.NextRetryAt = &next
	return delay
}

// RetryDelay is base * 2^(attempt-1), capped at 30 minutes
func RetryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

// Duration returns the run time of the last attempt
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}
