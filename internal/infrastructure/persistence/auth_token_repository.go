package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/persistence/models"
)

// GormAuthTokenRepository implements integration.AuthTokenRepository using GORM
type GormAuthTokenRepository struct {
	db *gorm.DB
}

// NewGormAuthTokenRepository creates a new GormAuthTokenRepository
func NewGormAuthTokenRepository(db *gorm.DB) *GormAuthTokenRepository {
	return &GormAuthTokenRepository{db: db}
}

var _ integration.AuthTokenRepository = (*GormAuthTokenRepository)(nil)

// FindLatest returns the newest token of a marketplace
func (r *GormAuthTokenRepository) FindLatest(ctx context.Context, m integration.Marketplace) (*integration.AuthToken, error) {
	var model models.AuthTokenModel
	err := r.db.WithContext(ctx).
		Where("marketplace = ?", m).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrAuthTokenNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a token
func (r *GormAuthTokenRepository) Save(ctx context.Context, token *integration.AuthToken) error {
	return r.db.WithContext(ctx).Save(models.AuthTokenModelFromDomain(token)).Error
}
