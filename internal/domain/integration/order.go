package integration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// InternalStatus is the back-office processing state of an order
// ---------------------------------------------------------------------------

// InternalStatus is the back-office processing state of an order
type InternalStatus string

const (
	// InternalStatusImported indicates the order was imported and not yet touched
	InternalStatusImported InternalStatus = "IMPORTED"
	// InternalStatusInProgress indicates the order is being packed
	InternalStatusInProgress InternalStatus = "IN_PROGRESS"
	// InternalStatusShipped indicates tracking was uploaded
	InternalStatusShipped InternalStatus = "SHIPPED"
	// InternalStatusFinished indicates the order is closed
	InternalStatusFinished InternalStatus = "FINISHED"
	// InternalStatusCanceled indicates the order was canceled
	InternalStatusCanceled InternalStatus = "CANCELED"
)

// IsValid returns true if the status is valid
func (s InternalStatus) IsValid() bool {
	switch s {
	case InternalStatusImported, InternalStatusInProgress, InternalStatusShipped,
		InternalStatusFinished, InternalStatusCanceled:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Address
// ---------------------------------------------------------------------------

// Address is a delivery or invoice address as delivered by a marketplace
type Address struct {
	// Title is the salutation
	Title string
	// FirstName of the recipient (may hold company lines)
	FirstName string
	// LastName of the recipient
	LastName string
	// Street is the street, optionally including the house number
	Street string
	// HouseNumber is set when the marketplace delivers it separately
	HouseNumber string
	// Addition is an address addition (c/o, floor, packstation)
	Addition string
	// ZipCode is the postal code
	ZipCode string
	// City is the city name
	City string
	// CountryCode is the ISO country code
	CountryCode string
	// Email of the recipient
	Email string
}

// IsZero returns true if no address field is set
func (a *Address) IsZero() bool {
	return a == nil || (a.FirstName == "" && a.LastName == "" && a.Street == "" && a.City == "" && a.ZipCode == "")
}

// SplitStreetNumber splits "Main Street 12a" into street and house number
func SplitStreetNumber(streetNo string) (string, string) {
	parts := strings.Fields(streetNo)
	if len(parts) < 2 {
		return strings.TrimSpace(streetNo), ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// ---------------------------------------------------------------------------
// Order
// ---------------------------------------------------------------------------

// Order is a marketplace order imported into the back office.
// It is unique by (Marketplace, MarketplaceOrderID).
type Order struct {
	shared.BaseEntity
	// Marketplace is the source marketplace
	Marketplace Marketplace
	// MarketplaceOrderID is the order id on the marketplace
	MarketplaceOrderID string
	// OrderNumber is the customer facing order number (may equal MarketplaceOrderID)
	OrderNumber string
	// OrderDate is when the customer placed the order
	OrderDate time.Time
	// LastModifiedDate is the marketplace modification time
	LastModifiedDate *time.Time
	// DeliveryAddress is the shipping address
	DeliveryAddress *Address
	// InvoiceAddress is the billing address
	InvoiceAddress *Address
	// DeliveryFee is the shipping fee or delivery method as delivered by the marketplace
	DeliveryFee string
	// Status is the marketplace order status
	Status string
	// InternalStatus is the back-office processing status
	InternalStatus InternalStatus
	// Email is the buyer email when available
	Email string
	// StoreID is the marketplace store identifier (Zalando)
	StoreID string
	// Items are the order positions
	Items []*OrderItem
}

// NewOrder creates a new order for a marketplace
func NewOrder(m Marketplace, marketplaceOrderID string) (*Order, error) {
	if !m.IsValid() {
		return nil, ErrInvalidMarketplace
	}
	if strings.TrimSpace(marketplaceOrderID) == "" {
		return nil, ErrOrderInvalid
	}
	return &Order{
		BaseEntity:         shared.NewBaseEntity(),
		Marketplace:        m,
		MarketplaceOrderID: marketplaceOrderID,
		OrderNumber:        marketplaceOrderID,
		InternalStatus:     InternalStatusImported,
		Items:              make([]*OrderItem, 0),
	}, nil
}

// AddItem appends an item or merges it into an existing item with the same position id
func (o *Order) AddItem(item *OrderItem) error {
	if item == nil || strings.TrimSpace(item.PositionItemID) == "" {
		return ErrOrderItemInvalid
	}
	if existing := o.ItemByPosition(item.PositionItemID); existing != nil {
		existing.Refresh(item)
		return nil
	}
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
	return nil
}

// ItemByPosition returns the item with the given position id or nil
func (o *Order) ItemByPosition(positionItemID string) *OrderItem {
	for _, it := range o.Items {
		if it.PositionItemID == positionItemID {
			return it
		}
	}
	return nil
}

// Merge applies a freshly fetched copy of this order.
// Known orders only get their marketplace status and modification time refreshed;
// known items only get fulfillment status and tracking refreshed; new items are added.
// It returns the number of newly added items.
func (o *Order) Merge(incoming *Order) int {
	if incoming.Status != "" {
		o.Status = incoming.Status
	}
	if incoming.LastModifiedDate != nil {
		o.LastModifiedDate = incoming.LastModifiedDate
	}
	if o.InvoiceAddress.IsZero() && !incoming.InvoiceAddress.IsZero() {
		o.InvoiceAddress = incoming.InvoiceAddress
	}
	if o.DeliveryAddress.IsZero() && !incoming.DeliveryAddress.IsZero() {
		o.DeliveryAddress = incoming.DeliveryAddress
	}
	added := 0
	for _, item := range incoming.Items {
		if existing := o.ItemByPosition(item.PositionItemID); existing != nil {
			existing.Refresh(item)
			continue
		}
		item.OrderID = o.ID
		o.Items = append(o.Items, item)
		added++
	}
	o.Touch()
	return added
}

// MarkShipped marks the order and all its items as shipped
func (o *Order) MarkShipped(carrier, trackingNumber string, at time.Time) {
	o.InternalStatus = InternalStatusShipped
	for _, it := range o.Items {
		it.MarkShipped(carrier, trackingNumber, at)
	}
	o.Touch()
}

// Total returns the sum of item prices times quantities
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// ---------------------------------------------------------------------------
// OrderItem
// ---------------------------------------------------------------------------

// OrderItem is a single order position, unique by (OrderID, PositionItemID)
type OrderItem struct {
	shared.BaseEntity
	// OrderID is the owning order
	OrderID uuid.UUID
	// PositionItemID is the position id on the marketplace
	PositionItemID string
	// FulfillmentStatus is the marketplace item status
	FulfillmentStatus string
	// Price is the gross item price
	Price decimal.Decimal
	// Currency is the ISO currency code
	Currency string
	// SKU is the shop article number
	SKU string
	// EAN is the article GTIN
	EAN string
	// ArticleNumber is the marketplace article number
	ArticleNumber string
	// ProductTitle is the title on the marketplace
	ProductTitle string
	// Quantity is the ordered quantity
	Quantity int
	// VatRate is the VAT percentage
	VatRate decimal.Decimal
	// Carrier is the shipping carrier
	Carrier string
	// TrackingNumber is the outbound tracking number
	TrackingNumber string
	// PackageID is the marketplace package the item ships in (TikTok)
	PackageID string
	// ExpectedDeliveryDate is the promised delivery date
	ExpectedDeliveryDate *time.Time
	// SentDate is when the item was shipped
	SentDate *time.Time
	// ReturnedDate is when the item was returned
	ReturnedDate *time.Time
}

// NewOrderItem creates a new item with defaults
func NewOrderItem(positionItemID string) *OrderItem {
	return &OrderItem{
		BaseEntity:     shared.NewBaseEntity(),
		PositionItemID: positionItemID,
		Currency:       "EUR",
		Quantity:       1,
	}
}

// Refresh applies the mutable fields of a freshly fetched copy
func (i *OrderItem) Refresh(incoming *OrderItem) {
	if incoming.FulfillmentStatus != "" {
		i.FulfillmentStatus = incoming.FulfillmentStatus
	}
	if incoming.TrackingNumber != "" {
		i.TrackingNumber = incoming.TrackingNumber
	}
	if incoming.Carrier != "" {
		i.Carrier = incoming.Carrier
	}
	if incoming.PackageID != "" {
		i.PackageID = incoming.PackageID
	}
	if incoming.SentDate != nil {
		i.SentDate = incoming.SentDate
	}
	if incoming.ReturnedDate != nil {
		i.ReturnedDate = incoming.ReturnedDate
	}
	i.Touch()
}

// MarkShipped records shipping information on the item
func (i *OrderItem) MarkShipped(carrier, trackingNumber string, at time.Time) {
	i.Carrier = carrier
	i.TrackingNumber = trackingNumber
	sent := at
	i.SentDate = &sent
	i.Touch()
}

// PriceFromCents converts an integer cent amount into a decimal price
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ---------------------------------------------------------------------------
// Order filter
// ---------------------------------------------------------------------------

// OrderFilter filters stored orders
type OrderFilter struct {
	Marketplace    Marketplace
	Status         string
	InternalStatus InternalStatus
	Search         string
	SortBy         string
	SortDir        string
	Page           int
	PageSize       int
}

// Normalize applies paging defaults
func (f *OrderFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 50
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}
