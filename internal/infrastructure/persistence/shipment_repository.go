package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/persistence/models"
)

// GormShipmentRepository implements integration.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

var _ integration.ShipmentRepository = (*GormShipmentRepository)(nil)

// Save stores a shipment
func (r *GormShipmentRepository) Save(ctx context.Context, shipment *integration.Shipment) error {
	return r.db.WithContext(ctx).Save(models.ShipmentModelFromDomain(shipment)).Error
}

// FindAll lists shipments newest first. An empty marketplace lists all.
func (r *GormShipmentRepository) FindAll(ctx context.Context, m integration.Marketplace, limit int) ([]*integration.Shipment, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if m != "" {
		query = query.Where("marketplace = ?", m)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.ShipmentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*integration.Shipment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// GormWebhookMessageRepository implements integration.WebhookMessageRepository using GORM
type GormWebhookMessageRepository struct {
	db *gorm.DB
}

// NewGormWebhookMessageRepository creates a new GormWebhookMessageRepository
func NewGormWebhookMessageRepository(db *gorm.DB) *GormWebhookMessageRepository {
	return &GormWebhookMessageRepository{db: db}
}

var _ integration.WebhookMessageRepository = (*GormWebhookMessageRepository)(nil)

// Save stores a message
func (r *GormWebhookMessageRepository) Save(ctx context.Context, msg *integration.WebhookMessage) error {
	return r.db.WithContext(ctx).Create(models.WebhookMessageModelFromDomain(msg)).Error
}
