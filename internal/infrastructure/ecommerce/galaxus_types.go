package ecommerce

import "encoding/xml"

// openTRANS 2.1 ORDER document as delivered by Galaxus. BMEcat elements
// carry their own namespace; matching is done on local names.

type openTransOrder struct {
	XMLName xml.Name              `xml:"ORDER"`
	Header  openTransOrderHeader  `xml:"ORDER_HEADER"`
	Items   []openTransOrderItem  `xml:"ORDER_ITEM_LIST>ORDER_ITEM"`
	Summary openTransOrderSummary `xml:"ORDER_SUMMARY"`
}

type openTransOrderHeader struct {
	Info openTransOrderInfo `xml:"ORDER_INFO"`
}

type openTransOrderInfo struct {
	OrderID   string           `xml:"ORDER_ID"`
	OrderDate string           `xml:"ORDER_DATE"`
	Currency  string           `xml:"CURRENCY"`
	Parties   []openTransParty `xml:"PARTIES>PARTY"`
}

type openTransParty struct {
	Role    string           `xml:"PARTY_ROLE"`
	Address openTransAddress `xml:"ADDRESS"`
}

type openTransAddress struct {
	Name    string                  `xml:"NAME"`
	Name2   string                  `xml:"NAME2"`
	Name3   string                  `xml:"NAME3"`
	Contact *openTransContactDetail `xml:"CONTACT_DETAILS"`
	Street  string                  `xml:"STREET"`
	Zip     string                  `xml:"ZIP"`
	City    string                  `xml:"CITY"`
	Country string                  `xml:"COUNTRY"`
	Email   string                  `xml:"EMAIL"`
}

type openTransContactDetail struct {
	Title       string `xml:"TITLE"`
	FirstName   string `xml:"FIRST_NAME"`
	ContactName string `xml:"CONTACT_NAME"`
}

type openTransOrderItem struct {
	LineItemID   string                `xml:"LINE_ITEM_ID"`
	Product      openTransProductID    `xml:"PRODUCT_ID"`
	Quantity     string                `xml:"QUANTITY"`
	Price        openTransProductPrice `xml:"PRODUCT_PRICE_FIX"`
	DeliveryDate openTransDeliveryDate `xml:"DELIVERY_DATE"`
}

type openTransProductID struct {
	SupplierPID      string `xml:"SUPPLIER_PID"`
	InternationalPID string `xml:"INTERNATIONAL_PID"`
	DescriptionShort string `xml:"DESCRIPTION_SHORT"`
}

type openTransProductPrice struct {
	Amount string `xml:"PRICE_AMOUNT"`
}

type openTransDeliveryDate struct {
	Start string `xml:"DELIVERY_START_DATE"`
	End   string `xml:"DELIVERY_END_DATE"`
}

type openTransOrderSummary struct {
	TotalAmount  string `xml:"TOTAL_AMOUNT"`
	TotalItemNum string `xml:"TOTAL_ITEM_NUM"`
}
