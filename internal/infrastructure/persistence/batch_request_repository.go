package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/persistence/models"
)

// GormBatchRequestRepository implements integration.BatchRequestRepository using GORM
type GormBatchRequestRepository struct {
	db *gorm.DB
}

// NewGormBatchRequestRepository creates a new GormBatchRequestRepository
func NewGormBatchRequestRepository(db *gorm.DB) *GormBatchRequestRepository {
	return &GormBatchRequestRepository{db: db}
}

var _ integration.BatchRequestRepository = (*GormBatchRequestRepository)(nil)

// Save creates or updates a batch request
func (r *GormBatchRequestRepository) Save(ctx context.Context, batch *integration.BatchRequest) error {
	return r.db.WithContext(ctx).Save(models.BatchRequestModelFromDomain(batch)).Error
}

// FindByBatchID finds the newest batch with the marketplace id
func (r *GormBatchRequestRepository) FindByBatchID(ctx context.Context, m integration.Marketplace, batchID string) (*integration.BatchRequest, error) {
	var model models.BatchRequestModel
	err := r.db.WithContext(ctx).
		Where("marketplace = ? AND batch_request_id = ?", m, batchID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrBatchNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPending lists batches of a marketplace that have not completed yet, oldest first
func (r *GormBatchRequestRepository) FindPending(ctx context.Context, m integration.Marketplace) ([]*integration.BatchRequest, error) {
	var rows []models.BatchRequestModel
	err := r.db.WithContext(ctx).
		Where("marketplace = ? AND status <> ?", m, integration.BatchStatusCompleted).
		Order("started ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*integration.BatchRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
