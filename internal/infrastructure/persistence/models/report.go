package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/report"
)

// TransactionFileModel is the persistence model for an uploaded report file
type TransactionFileModel struct {
	BaseModel
	Kind        report.FileKind `gorm:"type:varchar(8);not null"`
	FileName    string          `gorm:"type:varchar(256);not null;uniqueIndex"`
	StorageKey  string          `gorm:"type:varchar(512)"`
	Processed   bool            `gorm:"not null;default:false;index"`
	ProcessedAt *time.Time
	Rows        int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (TransactionFileModel) TableName() string {
	return "transaction_files"
}

// ToDomain converts the model to a domain TransactionFile
func (m *TransactionFileModel) ToDomain() *report.TransactionFile {
	return &report.TransactionFile{
		BaseEntity:  m.BaseModel.Entity(),
		Kind:        m.Kind,
		FileName:    m.FileName,
		StorageKey:  m.StorageKey,
		Processed:   m.Processed,
		ProcessedAt: m.ProcessedAt,
		Rows:        m.Rows,
	}
}

// TransactionFileModelFromDomain creates a model from a domain TransactionFile
func TransactionFileModelFromDomain(f *report.TransactionFile) *TransactionFileModel {
	m := &TransactionFileModel{
		Kind:        f.Kind,
		FileName:    f.FileName,
		StorageKey:  f.StorageKey,
		Processed:   f.Processed,
		ProcessedAt: f.ProcessedAt,
		Rows:        f.Rows,
	}
	m.SetEntity(f.BaseEntity)
	return m
}

// DailyShipmentModel is one stored line of a daily shipment report.
// LineKey deduplicates lines of overlapping reports.
type DailyShipmentModel struct {
	BaseModel
	FileID              uuid.UUID `gorm:"type:uuid;index"`
	LineKey             string    `gorm:"type:varchar(256);not null;uniqueIndex"`
	ArticleNumber       string    `gorm:"type:varchar(64);not null;index"`
	EAN                 string    `gorm:"column:ean;type:varchar(16)"`
	Cancel              bool      `gorm:"not null;default:false"`
	Returned            bool      `gorm:"not null;default:false"`
	Shipment            bool      `gorm:"not null;default:false"`
	ChannelOrderNumber  string    `gorm:"type:varchar(64);index"`
	OrderCreated        time.Time
	OrderEventTime      time.Time `gorm:"index"`
	PriceInCent         int64
	ReturnReason        string     `gorm:"type:varchar(256)"`
	MarketplaceConfigID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (DailyShipmentModel) TableName() string {
	return "daily_shipment_reports"
}

// ToDomain converts the model to a domain DailyShipment
func (m *DailyShipmentModel) ToDomain() *report.DailyShipment {
	return &report.DailyShipment{
		BaseEntity:         m.BaseModel.Entity(),
		FileID:             m.FileID,
		ArticleNumber:      m.ArticleNumber,
		EAN:                m.EAN,
		Cancel:             m.Cancel,
		Returned:           m.Returned,
		Shipment:           m.Shipment,
		ChannelOrderNumber: m.ChannelOrderNumber,
		OrderCreated:       m.OrderCreated,
		OrderEventTime:     m.OrderEventTime,
		PriceInCent:        m.PriceInCent,
		ReturnReason:       m.ReturnReason,

		MarketplaceConfigID: m.MarketplaceConfigID,
	}
}

// DailyShipmentModelFromDomain creates a model from a domain DailyShipment
func DailyShipmentModelFromDomain(d *report.DailyShipment) *DailyShipmentModel {
	m := &DailyShipmentModel{
		FileID:             d.FileID,
		LineKey:            d.Key(),
		ArticleNumber:      d.ArticleNumber,
		EAN:                d.EAN,
		Cancel:             d.Cancel,
		Returned:           d.Returned,
		Shipment:           d.Shipment,
		ChannelOrderNumber: d.ChannelOrderNumber,
		OrderCreated:       d.OrderCreated,
		OrderEventTime:     d.OrderEventTime,
		PriceInCent:        d.PriceInCent,
		ReturnReason:       d.ReturnReason,

		MarketplaceConfigID: d.MarketplaceConfigID,
	}
	m.SetEntity(d.BaseEntity)
	return m
}

// SalesLineModel is one stored line of a monthly sales report
type SalesLineModel struct {
	BaseModel
	FileID             uuid.UUID `gorm:"type:uuid;index"`
	LineKey            string    `gorm:"type:varchar(256);not null;uniqueIndex"`
	OrderNumber        string    `gorm:"type:varchar(64);not null;index"`
	EAN                string    `gorm:"column:ean;type:varchar(16)"`
	OrderDate          time.Time `gorm:"index"`
	ShippingReturnDate time.Time
	Type               string          `gorm:"type:varchar(16);not null"`
	Subtype            string          `gorm:"type:varchar(32)"`
	Currency           string          `gorm:"type:varchar(3);not null;default:'EUR'"`
	Price              decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaiFee             decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaymentServiceFee  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

// TableName returns the table name for GORM
func (SalesLineModel) TableName() string {
	return "sales_report_lines"
}

// ToDomain converts the model to a domain SalesLine
func (m *SalesLineModel) ToDomain() *report.SalesLine {
	return &report.SalesLine{
		BaseEntity:         m.BaseModel.Entity(),
		FileID:             m.FileID,
		OrderNumber:        m.OrderNumber,
		EAN:                m.EAN,
		OrderDate:          m.OrderDate,
		ShippingReturnDate: m.ShippingReturnDate,
		Type:               m.Type,
		Subtype:            m.Subtype,
		Currency:           m.Currency,
		Price:              m.Price,
		PaiFee:             m.PaiFee,
		PaymentServiceFee:  m.PaymentServiceFee,
	}
}

// SalesLineModelFromDomain creates a model from a domain SalesLine
func SalesLineModelFromDomain(l *report.SalesLine) *SalesLineModel {
	m := &SalesLineModel{
		FileID:             l.FileID,
		LineKey:            l.Key(),
		OrderNumber:        l.OrderNumber,
		EAN:                l.EAN,
		OrderDate:          l.OrderDate,
		ShippingReturnDate: l.ShippingReturnDate,
		Type:               l.Type,
		Subtype:            l.Subtype,
		Currency:           l.Currency,
		Price:              l.Price,
		PaiFee:             l.PaiFee,
		PaymentServiceFee:  l.PaymentServiceFee,
	}
	m.SetEntity(l.BaseEntity)
	return m
}

// All lists every model for AutoMigrate in tests
func All() []any {
	return []any{
		&OrderModel{}, &OrderItemModel{}, &ShipmentModel{}, &BatchRequestModel{},
		&FeedUploadModel{}, &AuthTokenModel{}, &MarketplaceProductModel{}, &WebhookMessageModel{},
		&TransactionFileModel{}, &DailyShipmentModel{}, &SalesLineModel{},
	}
}
