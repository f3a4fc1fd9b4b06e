package ecommerce

// tiktokResponse is the envelope of every TikTok Shop API answer
type tiktokResponse[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Data      T      `json:"data"`
}

func (r *tiktokResponse[T]) IsSuccess() bool {
	return r.Code == 0
}

type tiktokTokenData struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpireIn  int64  `json:"access_token_expire_in"`
	RefreshToken         string `json:"refresh_token"`
	RefreshTokenExpireIn int64  `json:"refresh_token_expire_in"`
}

type tiktokShopsData struct {
	Shops []tiktokShop `json:"shops"`
}

type tiktokShop struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Cipher string `json:"cipher"`
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

type tiktokOrderSearchData struct {
	TotalCount    int           `json:"total_count"`
	NextPageToken string        `json:"next_page_token"`
	Orders        []tiktokOrder `json:"orders"`
}

type tiktokOrder struct {
	ID               string           `json:"id"`
	Status           string           `json:"status"`
	BuyerEmail       string           `json:"buyer_email"`
	CreateTime       int64            `json:"create_time"`
	UpdateTime       int64            `json:"update_time"`
	RTSSLATime       int64            `json:"rts_sla_time"`
	Payment          tiktokPayment    `json:"payment"`
	RecipientAddress tiktokAddress    `json:"recipient_address"`
	LineItems        []tiktokLineItem `json:"line_items"`
}

type tiktokPayment struct {
	Currency            string `json:"currency"`
	OriginalShippingFee string `json:"original_shipping_fee"`
}

type tiktokAddress struct {
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name"`
	FullAddress  string             `json:"full_address"`
	AddressLine1 string             `json:"address_line1"`
	AddressLine2 string             `json:"address_line2"`
	PostalCode   string             `json:"postal_code"`
	RegionCode   string             `json:"region_code"`
	DistrictInfo []tiktokDistrictLv `json:"district_info"`
}

type tiktokDistrictLv struct {
	AddressLevelName string `json:"address_level_name"`
	AddressName      string `json:"address_name"`
}

type tiktokLineItem struct {
	ID                   string `json:"id"`
	DisplayStatus        string `json:"display_status"`
	PackageID            string `json:"package_id"`
	SalePrice            string `json:"sale_price"`
	Currency             string `json:"currency"`
	SellerSKU            string `json:"seller_sku"`
	SKUID                string `json:"sku_id"`
	ProductName          string `json:"product_name"`
	TrackingNumber       string `json:"tracking_number"`
	ShippingProviderName string `json:"shipping_provider_name"`
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

type tiktokProductSearchData struct {
	TotalCount    int             `json:"total_count"`
	NextPageToken string          `json:"next_page_token"`
	Products      []tiktokProduct `json:"products"`
}

type tiktokProduct struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Status string      `json:"status"`
	SKUs   []tiktokSKU `json:"skus"`
}

type tiktokSKU struct {
	ID        string            `json:"id"`
	SellerSKU string            `json:"seller_sku"`
	Inventory []tiktokInventory `json:"inventory"`
}

type tiktokInventory struct {
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
}

type tiktokInventoryUpdate struct {
	SKUs []tiktokInventorySKU `json:"skus"`
}

type tiktokInventorySKU struct {
	ID        string            `json:"id"`
	Inventory []tiktokInventory `json:"inventory"`
}

// ---------------------------------------------------------------------------
// Fulfillment
// ---------------------------------------------------------------------------

type tiktokShipPackage struct {
	HandoverMethod string             `json:"handover_method"`
	SelfShipment   tiktokSelfShipment `json:"self_shipment"`
}

type tiktokSelfShipment struct {
	TrackingNumber     string `json:"tracking_number"`
	ShippingProviderID string `json:"shipping_provider_id"`
}
