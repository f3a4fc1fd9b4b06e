package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/infrastructure/persistence/models"
)

// reportBatchSize bounds the rows per INSERT of report lines
const reportBatchSize = 200

// ---------------------------------------------------------------------------
// Transaction files
// ---------------------------------------------------------------------------

// GormTransactionFileRepository implements report.TransactionFileRepository using GORM
type GormTransactionFileRepository struct {
	db *gorm.DB
}

// NewGormTransactionFileRepository creates a new GormTransactionFileRepository
func NewGormTransactionFileRepository(db *gorm.DB) *GormTransactionFileRepository {
	return &GormTransactionFileRepository{db: db}
}

var _ report.TransactionFileRepository = (*GormTransactionFileRepository)(nil)

// FindByID finds a file
func (r *GormTransactionFileRepository) FindByID(ctx context.Context, id uuid.UUID) (*report.TransactionFile, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByName finds a file by its unique name
func (r *GormTransactionFileRepository) FindByName(ctx context.Context, fileName string) (*report.TransactionFile, error) {
	return r.first(r.db.WithContext(ctx).Where("file_name = ?", fileName))
}

func (r *GormTransactionFileRepository) first(query *gorm.DB) (*report.TransactionFile, error) {
	var model models.TransactionFileModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, report.ErrFileNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnprocessed lists files not imported yet, oldest first
func (r *GormTransactionFileRepository) FindUnprocessed(ctx context.Context) ([]*report.TransactionFile, error) {
	return r.find(r.db.WithContext(ctx).Where("processed = ?", false).Order("created_at ASC"))
}

// FindRecent lists the latest uploads
func (r *GormTransactionFileRepository) FindRecent(ctx context.Context, limit int) ([]*report.TransactionFile, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(query)
}

func (r *GormTransactionFileRepository) find(query *gorm.DB) ([]*report.TransactionFile, error) {
	var rows []models.TransactionFileModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*report.TransactionFile, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a file. A second file with a known name is rejected.
func (r *GormTransactionFileRepository) Save(ctx context.Context, file *report.TransactionFile) error {
	db := r.db.WithContext(ctx)
	var clash int64
	err := db.Model(&models.TransactionFileModel{}).
		Where("file_name = ? AND id <> ?", file.FileName, file.ID).
		Count(&clash).Error
	if err != nil {
		return err
	}
	if clash > 0 {
		return report.ErrFileAlreadyUploaded
	}
	return db.Save(models.TransactionFileModelFromDomain(file)).Error
}

// ---------------------------------------------------------------------------
// Report lines
// ---------------------------------------------------------------------------

// GormDailyShipmentRepository implements report.DailyShipmentRepository using GORM
type GormDailyShipmentRepository struct {
	db *gorm.DB
}

// NewGormDailyShipmentRepository creates a new GormDailyShipmentRepository
func NewGormDailyShipmentRepository(db *gorm.DB) *GormDailyShipmentRepository {
	return &GormDailyShipmentRepository{db: db}
}

var _ report.DailyShipmentRepository = (*GormDailyShipmentRepository)(nil)

// SaveAll stores lines whose key is not known yet and returns how many were new
func (r *GormDailyShipmentRepository) SaveAll(ctx context.Context, lines []*report.DailyShipment) (int, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	rows := make([]*models.DailyShipmentModel, len(lines))
	for i, l := range lines {
		rows[i] = models.DailyShipmentModelFromDomain(l)
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "line_key"}}, DoNothing: true}).
		CreateInBatches(rows, reportBatchSize)
	return int(result.RowsAffected), result.Error
}

// GormSalesLineRepository implements report.SalesLineRepository using GORM
type GormSalesLineRepository struct {
	db *gorm.DB
}

// NewGormSalesLineRepository creates a new GormSalesLineRepository
func NewGormSalesLineRepository(db *gorm.DB) *GormSalesLineRepository {
	return &GormSalesLineRepository{db: db}
}

var _ report.SalesLineRepository = (*GormSalesLineRepository)(nil)

// SaveAll stores lines whose key is not known yet and returns how many were new
func (r *GormSalesLineRepository) SaveAll(ctx context.Context, lines []*report.SalesLine) (int, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	rows := make([]*models.SalesLineModel, len(lines))
	for i, l := range lines {
		rows[i] = models.SalesLineModelFromDomain(l)
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "line_key"}}, DoNothing: true}).
		CreateInBatches(rows, reportBatchSize)
	return int(result.RowsAffected), result.Error
}

// FindByOrderDate lists lines with an order date in [from, to)
func (r *GormSalesLineRepository) FindByOrderDate(ctx context.Context, from, to time.Time) ([]*report.SalesLine, error) {
	var rows []models.SalesLineModel
	err := r.db.WithContext(ctx).
		Where("order_date >= ? AND order_date < ?", from, to).
		Order("order_date ASC, order_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*report.SalesLine, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
