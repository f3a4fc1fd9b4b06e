package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/persistence/models"
)

// GormFeedUploadRepository implements integration.FeedUploadRepository using GORM
type GormFeedUploadRepository struct {
	db *gorm.DB
}

// NewGormFeedUploadRepository creates a new GormFeedUploadRepository
func NewGormFeedUploadRepository(db *gorm.DB) *GormFeedUploadRepository {
	return &GormFeedUploadRepository{db: db}
}

var _ integration.FeedUploadRepository = (*GormFeedUploadRepository)(nil)

// Save stores a feed upload
func (r *GormFeedUploadRepository) Save(ctx context.Context, upload *integration.FeedUpload) error {
	return r.db.WithContext(ctx).Save(models.FeedUploadModelFromDomain(upload)).Error
}

// FindRecent lists the latest uploads. An empty marketplace lists all.
func (r *GormFeedUploadRepository) FindRecent(ctx context.Context, m integration.Marketplace, limit int) ([]*integration.FeedUpload, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if m != "" {
		query = query.Where("marketplace = ?", m)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.FeedUploadModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*integration.FeedUpload, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
