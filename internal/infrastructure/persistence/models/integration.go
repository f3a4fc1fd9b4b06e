package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m13/backoffice/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// AddressModel is embedded twice into OrderModel (delivery_ and invoice_ columns)
type AddressModel struct {
	Title       string `gorm:"type:varchar(32)"`
	FirstName   string `gorm:"type:varchar(128)"`
	LastName    string `gorm:"type:varchar(128)"`
	Street      string `gorm:"type:varchar(128)"`
	HouseNumber string `gorm:"type:varchar(32)"`
	Addition    string `gorm:"type:varchar(128)"`
	ZipCode     string `gorm:"type:varchar(16)"`
	City        string `gorm:"type:varchar(128)"`
	CountryCode string `gorm:"type:varchar(3)"`
	Email       string `gorm:"type:varchar(256)"`
}

func addressFromDomain(a *integration.Address) AddressModel {
	if a == nil {
		return AddressModel{}
	}
	return AddressModel{
		Title:       a.Title,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Street:      a.Street,
		HouseNumber: a.HouseNumber,
		Addition:    a.Addition,
		ZipCode:     a.ZipCode,
		City:        a.City,
		CountryCode: a.CountryCode,
		Email:       a.Email,
	}
}

func (m AddressModel) toDomain() *integration.Address {
	if m == (AddressModel{}) {
		return nil
	}
	return &integration.Address{
		Title:       m.Title,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Street:      m.Street,
		HouseNumber: m.HouseNumber,
		Addition:    m.Addition,
		ZipCode:     m.ZipCode,
		City:        m.City,
		CountryCode: m.CountryCode,
		Email:       m.Email,
	}
}

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	BaseModel
	Marketplace        integration.Marketplace `gorm:"type:varchar(16);not null;uniqueIndex:idx_order_marketplace_key,priority:1"`
	MarketplaceOrderID string                  `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_marketplace_key,priority:2"`
	OrderNumber        string                  `gorm:"type:varchar(64);index"`
	OrderDate          time.Time               `gorm:"index"`
	LastModifiedDate   *time.Time
	DeliveryAddress    AddressModel               `gorm:"embedded;embeddedPrefix:delivery_"`
	InvoiceAddress     AddressModel               `gorm:"embedded;embeddedPrefix:invoice_"`
	DeliveryFee        string                     `gorm:"type:varchar(128)"`
	Status             string                     `gorm:"type:varchar(32);index"`
	InternalStatus     integration.InternalStatus `gorm:"type:varchar(16);not null;default:'IMPORTED';index"`
	Email              string                     `gorm:"type:varchar(256)"`
	StoreID            string                     `gorm:"type:varchar(64)"`
	Items              []OrderItemModel           `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model and its loaded items to a domain Order
func (m *OrderModel) ToDomain() *integration.Order {
	o := &integration.Order{
		BaseEntity:         m.BaseModel.Entity(),
		Marketplace:        m.Marketplace,
		MarketplaceOrderID: m.MarketplaceOrderID,
		OrderNumber:        m.OrderNumber,
		OrderDate:          m.OrderDate,
		LastModifiedDate:   m.LastModifiedDate,
		DeliveryAddress:    m.DeliveryAddress.toDomain(),
		InvoiceAddress:     m.InvoiceAddress.toDomain(),
		DeliveryFee:        m.DeliveryFee,
		Status:             m.Status,
		InternalStatus:     m.InternalStatus,
		Email:              m.Email,
		StoreID:            m.StoreID,
		Items:              make([]*integration.OrderItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// FromDomain populates the model without items
func (m *OrderModel) FromDomain(o *integration.Order) {
	m.SetEntity(o.BaseEntity)
	m.Marketplace = o.Marketplace
	m.MarketplaceOrderID = o.MarketplaceOrderID
	m.OrderNumber = o.OrderNumber
	m.OrderDate = o.OrderDate
	m.LastModifiedDate = o.LastModifiedDate
	m.DeliveryAddress = addressFromDomain(o.DeliveryAddress)
	m.InvoiceAddress = addressFromDomain(o.InvoiceAddress)
	m.DeliveryFee = o.DeliveryFee
	m.Status = o.Status
	m.InternalStatus = o.InternalStatus
	m.Email = o.Email
	m.StoreID = o.StoreID
}

// OrderModelFromDomain creates a model from a domain Order, items excluded
func OrderModelFromDomain(o *integration.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order position
type OrderItemModel struct {
	BaseModel
	OrderID              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_item_position,priority:1"`
	PositionItemID       string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_item_position,priority:2"`
	FulfillmentStatus    string          `gorm:"type:varchar(32);index"`
	Price                decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency             string          `gorm:"type:varchar(3);not null;default:'EUR'"`
	SKU                  string          `gorm:"column:sku;type:varchar(32);index"`
	EAN                  string          `gorm:"column:ean;type:varchar(16)"`
	ArticleNumber        string          `gorm:"type:varchar(64)"`
	ProductTitle         string          `gorm:"type:varchar(256)"`
	Quantity             int             `gorm:"not null;default:1"`
	VatRate              decimal.Decimal `gorm:"type:decimal(5,2)"`
	Carrier              string          `gorm:"type:varchar(32)"`
	TrackingNumber       string          `gorm:"type:varchar(64)"`
	PackageID            string          `gorm:"type:varchar(64)"`
	ExpectedDeliveryDate *time.Time
	SentDate             *time.Time
	ReturnedDate         *time.Time
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to a domain OrderItem
func (m *OrderItemModel) ToDomain() *integration.OrderItem {
	return &integration.OrderItem{
		BaseEntity:           m.BaseModel.Entity(),
		OrderID:              m.OrderID,
		PositionItemID:       m.PositionItemID,
		FulfillmentStatus:    m.FulfillmentStatus,
		Price:                m.Price,
		Currency:             m.Currency,
		SKU:                  m.SKU,
		EAN:                  m.EAN,
		ArticleNumber:        m.ArticleNumber,
		ProductTitle:         m.ProductTitle,
		Quantity:             m.Quantity,
		VatRate:              m.VatRate,
		Carrier:              m.Carrier,
		TrackingNumber:       m.TrackingNumber,
		PackageID:            m.PackageID,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		SentDate:             m.SentDate,
		ReturnedDate:         m.ReturnedDate,
	}
}

// OrderItemModelFromDomain creates a model from a domain OrderItem
func OrderItemModelFromDomain(i *integration.OrderItem) *OrderItemModel {
	m := &OrderItemModel{
		OrderID:              i.OrderID,
		PositionItemID:       i.PositionItemID,
		FulfillmentStatus:    i.FulfillmentStatus,
		Price:                i.Price,
		Currency:             i.Currency,
		SKU:                  i.SKU,
		EAN:                  i.EAN,
		ArticleNumber:        i.ArticleNumber,
		ProductTitle:         i.ProductTitle,
		Quantity:             i.Quantity,
		VatRate:              i.VatRate,
		Carrier:              i.Carrier,
		TrackingNumber:       i.TrackingNumber,
		PackageID:            i.PackageID,
		ExpectedDeliveryDate: i.ExpectedDeliveryDate,
		SentDate:             i.SentDate,
		ReturnedDate:         i.ReturnedDate,
	}
	m.SetEntity(i.BaseEntity)
	return m
}

// ---------------------------------------------------------------------------
// Shipments and batches
// ---------------------------------------------------------------------------

// ShipmentModel is the persistence model for a tracking upload
type ShipmentModel struct {
	BaseModel
	OrderID              uuid.UUID               `gorm:"type:uuid;index"`
	Marketplace          integration.Marketplace `gorm:"type:varchar(16);not null;index"`
	MarketplaceOrderID   string                  `gorm:"type:varchar(64)"`
	Carrier              string                  `gorm:"type:varchar(32)"`
	TrackingNumber       string                  `gorm:"type:varchar(64);not null"`
	ReturnTrackingNumber string                  `gorm:"type:varchar(64)"`
	ResponseStatusCode   int
	Response             string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the model to a domain Shipment
func (m *ShipmentModel) ToDomain() *integration.Shipment {
	return &integration.Shipment{
		BaseEntity:           m.BaseModel.Entity(),
		OrderID:              m.OrderID,
		Marketplace:          m.Marketplace,
		MarketplaceOrderID:   m.MarketplaceOrderID,
		Carrier:              m.Carrier,
		TrackingNumber:       m.TrackingNumber,
		ReturnTrackingNumber: m.ReturnTrackingNumber,
		ResponseStatusCode:   m.ResponseStatusCode,
		Response:             m.Response,
	}
}

// ShipmentModelFromDomain creates a model from a domain Shipment
func ShipmentModelFromDomain(s *integration.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		OrderID:              s.OrderID,
		Marketplace:          s.Marketplace,
		MarketplaceOrderID:   s.MarketplaceOrderID,
		Carrier:              s.Carrier,
		TrackingNumber:       s.TrackingNumber,
		ReturnTrackingNumber: s.ReturnTrackingNumber,
		ResponseStatusCode:   s.ResponseStatusCode,
		Response:             s.Response,
	}
	m.SetEntity(s.BaseEntity)
	return m
}

// BatchRequestModel is the persistence model for asynchronous batch polling
type BatchRequestModel struct {
	BaseModel
	Marketplace    integration.Marketplace `gorm:"type:varchar(16);not null;index:idx_batch_marketplace_id,priority:1"`
	Kind           integration.BatchKind   `gorm:"type:varchar(16);not null"`
	BatchRequestID string                  `gorm:"type:varchar(128);not null;index:idx_batch_marketplace_id,priority:2"`
	Status         string                  `gorm:"type:varchar(32);not null;index"`
	Attempts       int                     `gorm:"not null;default:0"`
	Response       string                  `gorm:"type:text"`
	Started        time.Time               `gorm:"not null"`
	Completed      *time.Time
}

// TableName returns the table name for GORM
func (BatchRequestModel) TableName() string {
	return "batch_requests"
}

// ToDomain converts the model to a domain BatchRequest
func (m *BatchRequestModel) ToDomain() *integration.BatchRequest {
	return &integration.BatchRequest{
		BaseEntity:     m.BaseModel.Entity(),
		Marketplace:    m.Marketplace,
		Kind:           m.Kind,
		BatchRequestID: m.BatchRequestID,
		Status:         m.Status,
		Attempts:       m.Attempts,
		Response:       m.Response,
		Started:        m.Started,
		Completed:      m.Completed,
	}
}

// BatchRequestModelFromDomain creates a model from a domain BatchRequest
func BatchRequestModelFromDomain(b *integration.BatchRequest) *BatchRequestModel {
	m := &BatchRequestModel{
		Marketplace:    b.Marketplace,
		Kind:           b.Kind,
		BatchRequestID: b.BatchRequestID,
		Status:         b.Status,
		Attempts:       b.Attempts,
		Response:       b.Response,
		Started:        b.Started,
		Completed:      b.Completed,
	}
	m.SetEntity(b.BaseEntity)
	return m
}

// ---------------------------------------------------------------------------
// Feeds, tokens, listings, webhooks
// ---------------------------------------------------------------------------

// FeedUploadModel is the persistence model for a transformed feed
type FeedUploadModel struct {
	BaseModel
	Marketplace          integration.Marketplace `gorm:"type:varchar(16);not null;index"`
	OriginalPath         string                  `gorm:"type:varchar(512)"`
	TransformedPath      string                  `gorm:"type:varchar(512)"`
	ExtraPath            string                  `gorm:"type:varchar(512)"`
	ZFactor              decimal.Decimal         `gorm:"type:decimal(3,2)"`
	ValidItems           int                     `gorm:"not null;default:0"`
	ValidationStatusCode int
	ValidationSummary    string `gorm:"type:text"`
	UploadStatusCode     int
	UploadResponse       string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FeedUploadModel) TableName() string {
	return "feed_uploads"
}

// ToDomain converts the model to a domain FeedUpload
func (m *FeedUploadModel) ToDomain() *integration.FeedUpload {
	return &integration.FeedUpload{
		BaseEntity:           m.BaseModel.Entity(),
		Marketplace:          m.Marketplace,
		OriginalPath:         m.OriginalPath,
		TransformedPath:      m.TransformedPath,
		ExtraPath:            m.ExtraPath,
		ZFactor:              m.ZFactor,
		ValidItems:           m.ValidItems,
		ValidationStatusCode: m.ValidationStatusCode,
		ValidationSummary:    m.ValidationSummary,
		UploadStatusCode:     m.UploadStatusCode,
		UploadResponse:       m.UploadResponse,
	}
}

// FeedUploadModelFromDomain creates a model from a domain FeedUpload
func FeedUploadModelFromDomain(f *integration.FeedUpload) *FeedUploadModel {
	m := &FeedUploadModel{
		Marketplace:          f.Marketplace,
		OriginalPath:         f.OriginalPath,
		TransformedPath:      f.TransformedPath,
		ExtraPath:            f.ExtraPath,
		ZFactor:              f.ZFactor,
		ValidItems:           f.ValidItems,
		ValidationStatusCode: f.ValidationStatusCode,
		ValidationSummary:    f.ValidationSummary,
		UploadStatusCode:     f.UploadStatusCode,
		UploadResponse:       f.UploadResponse,
	}
	m.SetEntity(f.BaseEntity)
	return m
}

// AuthTokenModel is the persistence model for a rotating OAuth token pair
type AuthTokenModel struct {
	BaseModel
	Marketplace  integration.Marketplace `gorm:"type:varchar(16);not null;index"`
	AccessToken  string                  `gorm:"type:text;not null"`
	RefreshToken string                  `gorm:"type:text"`
	ExpiresAt    *time.Time
}

// TableName returns the table name for GORM
func (AuthTokenModel) TableName() string {
	return "auth_tokens"
}

// ToDomain converts the model to a domain AuthToken
func (m *AuthTokenModel) ToDomain() *integration.AuthToken {
	t := &integration.AuthToken{
		BaseEntity:   m.BaseModel.Entity(),
		Marketplace:  m.Marketplace,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
	}
	if m.ExpiresAt != nil {
		t.ExpiresAt = *m.ExpiresAt
	}
	return t
}

// AuthTokenModelFromDomain creates a model from a domain AuthToken
func AuthTokenModelFromDomain(t *integration.AuthToken) *AuthTokenModel {
	m := &AuthTokenModel{
		Marketplace:  t.Marketplace,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
	if !t.ExpiresAt.IsZero() {
		exp := t.ExpiresAt
		m.ExpiresAt = &exp
	}
	m.SetEntity(t.BaseEntity)
	return m
}

// MarketplaceProductModel maps a SKU to a marketplace listing, one row per warehouse
type MarketplaceProductModel struct {
	BaseModel
	Marketplace integration.Marketplace `gorm:"type:varchar(16);not null;uniqueIndex:idx_marketplace_product_key,priority:1"`
	SKU         string                  `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_marketplace_product_key,priority:2"`
	WarehouseID string                  `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_marketplace_product_key,priority:3"`
	ProductID   string                  `gorm:"type:varchar(64);not null"`
	VariantID   string                  `gorm:"type:varchar(64)"`
	Quantity    int                     `gorm:"not null;default:0"`
	Title       string                  `gorm:"type:varchar(256)"`
	SyncedAt    time.Time
}

// TableName returns the table name for GORM
func (MarketplaceProductModel) TableName() string {
	return "marketplace_products"
}

// ToDomain converts the model to a domain MarketplaceProduct
func (m *MarketplaceProductModel) ToDomain() *integration.MarketplaceProduct {
	return &integration.MarketplaceProduct{
		BaseEntity:  m.BaseModel.Entity(),
		Marketplace: m.Marketplace,
		SKU:         m.SKU,
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		WarehouseID: m.WarehouseID,
		Quantity:    m.Quantity,
		Title:       m.Title,
		SyncedAt:    m.SyncedAt,
	}
}

// MarketplaceProductModelFromDomain creates a model from a domain MarketplaceProduct
func MarketplaceProductModelFromDomain(p *integration.MarketplaceProduct) *MarketplaceProductModel {
	m := &MarketplaceProductModel{
		Marketplace: p.Marketplace,
		SKU:         p.SKU,
		ProductID:   p.ProductID,
		VariantID:   p.VariantID,
		WarehouseID: p.WarehouseID,
		Quantity:    p.Quantity,
		Title:       p.Title,
		SyncedAt:    p.SyncedAt,
	}
	m.SetEntity(p.BaseEntity)
	return m
}

// WebhookMessageModel stores a raw inbound event
type WebhookMessageModel struct {
	BaseModel
	Marketplace integration.Marketplace `gorm:"type:varchar(16);not null;index"`
	OrderID     string                  `gorm:"type:varchar(64);index"`
	State       string                  `gorm:"type:varchar(32)"`
	Payload     string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (WebhookMessageModel) TableName() string {
	return "webhook_messages"
}

// WebhookMessageModelFromDomain creates a model from a domain WebhookMessage
func WebhookMessageModelFromDomain(w *integration.WebhookMessage) *WebhookMessageModel {
	m := &WebhookMessageModel{
		Marketplace: w.Marketplace,
		OrderID:     w.OrderID,
		State:       w.State,
		Payload:     w.Payload,
	}
	m.SetEntity(w.BaseEntity)
	return m
}
