package models

// InboundOrder is the subset of a Shopify order webhook the bridge consumes.
// Required fields are pointers so a missing key is distinguishable from a
// zero value.
type InboundOrder struct {
	Number          *int              `json:"number"`
	CreatedAt       *string           `json:"created_at"`
	Email           *string           `json:"email"`
	ShippingAddress *ShippingAddress  `json:"shipping_address"`
	LineItems       []InboundLineItem `json:"line_items"`
}

type ShippingAddress struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Address1    *string `json:"address1"`
	Address2    *string `json:"address2"`
	City        *string `json:"city"`
	Province    *string `json:"province"`
	Zip         *string `json:"zip"`
	CountryCode *string `json:"country_code"`
	Phone       *string `json:"phone"`
}

type InboundLineItem struct {
	SKU      *string `json:"sku"`
	Quantity *int    `json:"quantity"`
}

// OutboundOrder is the order document sent to the Upward Orders endpoint.
type OutboundOrder struct {
	OrderNumber  int          `json:"_orderNumber"`
	OrderDate    string       `json:"orderDate"`
	ShipmentInfo ShipmentInfo `json:"shipment_info"`
	Items        []LineItem   `json:"items"`
	CustomerID   string       `json:"customerID"`
}

type ShipmentInfo struct {
	ShipMethod         string `json:"shipMethod"`
	ShipToName         string `json:"shipToName"`
	ShipToAddressLine1 string `json:"shipToAddressLine1"`
	ShipToAddressLine2 string `json:"shipToAddressLine2"`
	ShipToAddressLine3 string `json:"shipToAddressLine3"`
	ShipToCity         string `json:"shipToCity"`
	ShipToState        string `json:"shipToState"`
	ShipToPostalCode   string `json:"shipToPostalCode"`
	ShipToCountryCode  string `json:"shipToCountryCode"`
	ShipToContactPhone string `json:"shipToContactPhone"`
}

type LineItem struct {
	ProductCode    string `json:"productCode"`
	QuantityToShip int    `json:"quantityToShip"`
}
