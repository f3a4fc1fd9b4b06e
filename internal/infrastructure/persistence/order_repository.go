package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements integration.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var _ integration.OrderRepository = (*GormOrderRepository)(nil)

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Order, error) {
	var model models.OrderModel
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMarketplaceOrderID finds an order by its marketplace key
func (r *GormOrderRepository) FindByMarketplaceOrderID(ctx context.Context, m integration.Marketplace, marketplaceOrderID string) (*integration.Order, error) {
	var model models.OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("marketplace = ? AND marketplace_order_id = ?", m, marketplaceOrderID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists orders matching the filter, newest first unless a sort is given
func (r *GormOrderRepository) FindAll(ctx context.Context, filter integration.OrderFilter) ([]*integration.Order, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	if filter.Marketplace != "" {
		query = query.Where("marketplace = ?", filter.Marketplace)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.InternalStatus != "" {
		query = query.Where("internal_status = ?", filter.InternalStatus)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where(
			"LOWER(order_number) LIKE ? OR LOWER(marketplace_order_id) LIKE ? OR LOWER(email) LIKE ? OR LOWER(delivery_last_name) LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.SortBy, OrderSortFields, "order_date")
	sortDir := ValidateSortOrder(filter.SortDir)

	var rows []models.OrderModel
	err := query.
		Preload("Items", preloadItems).
		Order(sortField + " " + sortDir).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]*integration.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, total, nil
}

// FindWithItemsCreatedBetween returns orders of a marketplace holding items created in [from, to).
// Only the matching items are loaded.
func (r *GormOrderRepository) FindWithItemsCreatedBetween(ctx context.Context, m integration.Marketplace, from, to time.Time) ([]*integration.Order, error) {
	db := r.db.WithContext(ctx)
	itemOrders := db.Model(&models.OrderItemModel{}).
		Select("order_id").
		Where("created_at >= ? AND created_at < ?", from, to)

	var rows []models.OrderModel
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("created_at >= ? AND created_at < ?", from, to).Order("created_at ASC")
		}).
		Where("marketplace = ? AND id IN (?)", m, itemOrders).
		Order("order_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*integration.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

// Save creates or updates the order and all of its items in one transaction
func (r *GormOrderRepository) Save(ctx context.Context, order *integration.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.OrderModelFromDomain(order)
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
			Create(model).Error
		if err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}

		items := make([]*models.OrderItemModel, len(order.Items))
		for i, item := range order.Items {
			item.OrderID = order.ID
			items[i] = models.OrderItemModelFromDomain(item)
		}
		return tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
			CreateInBatches(items, 100).Error
	})
}
