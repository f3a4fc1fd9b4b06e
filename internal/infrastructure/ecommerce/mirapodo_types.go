package ecommerce

import "encoding/xml"

// Tradebyte ORDER_LIST document

type tradebyteOrderList struct {
	XMLName xml.Name         `xml:"ORDER_LIST"`
	Orders  []tradebyteOrder `xml:"ORDER"`
}

type tradebyteOrder struct {
	OrderData tradebyteOrderData `xml:"ORDER_DATA"`
	ShipTo    tradebyteParty     `xml:"SHIP_TO"`
	SellTo    tradebyteParty     `xml:"SELL_TO"`
	Items     []tradebyteItem    `xml:"ITEMS>ITEM"`
}

type tradebyteOrderData struct {
	TBID        string `xml:"TB_ID"`
	ChannelSign string `xml:"CHANNEL_SIGN"`
	ChannelID   string `xml:"CHANNEL_ID"`
	DateCreated string `xml:"DATE_CREATED"`
}

type tradebyteParty struct {
	TBID      string `xml:"TB_ID"`
	Title     string `xml:"TITLE"`
	FirstName string `xml:"FIRSTNAME"`
	LastName  string `xml:"LASTNAME"`
	StreetNo  string `xml:"STREET_NO"`
	Zip       string `xml:"ZIP"`
	City      string `xml:"CITY"`
	Country   string `xml:"COUNTRY"`
	Email     string `xml:"EMAIL"`
}

type tradebyteItem struct {
	TBID          string `xml:"TB_ID"`
	ChannelID     string `xml:"CHANNEL_ID"`
	SKU           string `xml:"SKU"`
	ChannelSKU    string `xml:"CHANNEL_SKU"`
	EAN           string `xml:"EAN"`
	Quantity      int    `xml:"QUANTITY"`
	BillingText   string `xml:"BILLING_TEXT"`
	TransferPrice string `xml:"TRANSFER_PRICE"`
	ItemPrice     string `xml:"ITEM_PRICE"`
	DateCreated   string `xml:"DATE_CREATED"`
}

// Tradebyte MESSAGES_LIST document

type tradebyteMessageList struct {
	XMLName  xml.Name           `xml:"MESSAGES_LIST"`
	Messages []tradebyteMessage `xml:"MESSAGE"`
}

type tradebyteMessage struct {
	MessageType          string `xml:"MESSAGE_TYPE"`
	TBOrderID            string `xml:"TB_ORDER_ID"`
	TBOrderItemID        string `xml:"TB_ORDER_ITEM_ID"`
	SKU                  string `xml:"SKU"`
	Quantity             int    `xml:"QUANTITY"`
	CarrierParcelType    string `xml:"CARRIER_PARCEL_TYPE"`
	IDCode               string `xml:"IDCODE"`
	IDCodeReturnProposal string `xml:"IDCODE_RETURN_PROPOSAL"`
}
