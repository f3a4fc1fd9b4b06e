package catalogapp

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
)

// JobService keeps the job and error history of management commands
type JobService struct {
	jobs   catalog.JobRepository
	errors catalog.ErrorRecordRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewJobService creates a new JobService
func NewJobService(jobs catalog.JobRepository, errors catalog.ErrorRecordRepository, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{jobs: jobs, errors: errors, logger: logger, now: time.Now}
}

// Track wraps fn in a job record. The record is written before fn runs and
// closed afterwards, also when the context was canceled.
func (s *JobService) Track(ctx context.Context, cmd, description string, fn func(ctx context.Context) error) error {
	job := catalog.StartJob(cmd, description)
	if err := s.jobs.Save(ctx, job); err != nil {
		s.logger.Warn("Failed to save job record", zap.String("cmd", cmd), zap.Error(err))
	}

	runErr := fn(ctx)

	job.Finish(runErr)
	if err := s.jobs.Save(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Warn("Failed to close job record", zap.String("cmd", cmd), zap.Error(err))
	}
	if runErr != nil {
		s.logger.Error("Job failed", zap.String("cmd", cmd), zap.Duration("duration", job.Duration()), zap.Error(runErr))
	} else {
		s.logger.Info("Job finished", zap.String("cmd", cmd), zap.Duration("duration", job.Duration()))
	}
	return runErr
}

// Truncate removes job records older than olderThan. Zero or less means the default retention.
func (s *JobService) Truncate(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = catalog.DefaultJobRetention
	}
	cutoff := s.now().Add(-olderThan)
	n, err := s.jobs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Old job records removed", zap.Time("cutoff", cutoff), zap.Int64("deleted", n))
	return n, nil
}

// RecentJobs lists the latest job records
func (s *JobService) RecentJobs(ctx context.Context, limit int) ([]JobResponse, error) {
	jobs, err := s.jobs.FindRecent(ctx, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return ToJobResponses(jobs), nil
}

// RecentErrors lists the latest error records, optionally of one marketplace
func (s *JobService) RecentErrors(ctx context.Context, marketplace string, limit int) ([]ErrorRecordResponse, error) {
	records, err := s.errors.FindRecent(ctx, marketplace, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return ToErrorRecordResponses(records), nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
