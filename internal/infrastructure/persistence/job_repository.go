package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/catalog"
)

// GormJobRepository implements catalog.JobRepository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

var _ catalog.JobRepository = (*GormJobRepository)(nil)

// Save creates or updates a job
func (r *GormJobRepository) Save(ctx context.Context, job *catalog.Job) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// FindRecent lists the latest jobs
func (r *GormJobRepository) FindRecent(ctx context.Context, limit int) ([]*catalog.Job, error) {
	query := r.db.WithContext(ctx).Order("start DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var jobs []*catalog.Job
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// DeleteOlderThan removes jobs started before the cutoff
func (r *GormJobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("start < ?", cutoff).Delete(&catalog.Job{})
	return result.RowsAffected, result.Error
}

// GormErrorRecordRepository implements catalog.ErrorRecordRepository using GORM
type GormErrorRecordRepository struct {
	db *gorm.DB
}

// NewGormErrorRecordRepository creates a new GormErrorRecordRepository
func NewGormErrorRecordRepository(db *gorm.DB) *GormErrorRecordRepository {
	return &GormErrorRecordRepository{db: db}
}

var _ catalog.ErrorRecordRepository = (*GormErrorRecordRepository)(nil)

// Save stores an error record
func (r *GormErrorRecordRepository) Save(ctx context.Context, rec *catalog.ErrorRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// FindRecent lists the latest records. An empty marketplace lists all.
func (r *GormErrorRecordRepository) FindRecent(ctx context.Context, marketplace string, limit int) ([]*catalog.ErrorRecord, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if marketplace != "" {
		query = query.Where("marketplace = ?", marketplace)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var recs []*catalog.ErrorRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
