package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/jogardn/order-bridge/pkg/models"
)

// OrderDateLayout is MM-DD-YYYY.
const OrderDateLayout = "01-02-2006"

var (
	ErrFieldMissing = errors.New("required field missing")
	ErrDateParse    = errors.New("unparsable order date")
)

type FieldMissingError struct {
	Field string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}

func (e *FieldMissingError) Is(target error) bool {
	return target == ErrFieldMissing
}

type DateParseError struct {
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparsable order date %q: %v", e.Value, e.Err)
}

func (e *DateParseError) Is(target error) bool {
	return target == ErrDateParse
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

func requireString(field string, value *string) (string, error) {
	if value == nil {
		return "", &FieldMissingError{Field: field}
	}
	return *value, nil
}

func optionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// ExtractShipment maps the Shopify shipping address onto Upward shipment
// info. shipMethod is taken as given; Shopify never supplies one.
func ExtractShipment(order *models.InboundOrder, shipMethod string) (models.ShipmentInfo, error) {
	addr := order.ShippingAddress
	if addr == nil {
		return models.ShipmentInfo{}, &FieldMissingError{Field: "shipping_address"}
	}
	if order.LineItems == nil {
		return models.ShipmentInfo{}, &FieldMissingError{Field: "line_items"}
	}

	var firstName, lastName string
	info := models.ShipmentInfo{
		ShipMethod:         shipMethod,
		ShipToAddressLine2: optionalString(addr.Address2),
		// Shopify has no third address line.
		ShipToAddressLine3: "",
		ShipToContactPhone: optionalString(addr.Phone),
	}

	fields := []struct {
		field string
		value *string
		dst   *string
	}{
		{"shipping_address.first_name", addr.FirstName, &firstName},
		{"shipping_address.last_name", addr.LastName, &lastName},
		{"shipping_address.address1", addr.Address1, &info.ShipToAddressLine1},
		{"shipping_address.city", addr.City, &info.ShipToCity},
		{"shipping_address.province", addr.Province, &info.ShipToState},
		{"shipping_address.zip", addr.Zip, &info.ShipToPostalCode},
		{"shipping_address.country_code", addr.CountryCode, &info.ShipToCountryCode},
	}
	for _, f := range fields {
		value, err := requireString(f.field, f.value)
		if err != nil {
			return models.ShipmentInfo{}, err
		}
		*f.dst = value
	}
	info.ShipToName = firstName + " " + lastName

	return info, nil
}

// ExtractItems keeps input order and does not merge duplicate SKUs.
func ExtractItems(order *models.InboundOrder) ([]models.LineItem, error) {
	if order.LineItems == nil {
		return nil, &FieldMissingError{Field: "line_items"}
	}

	items := make([]models.LineItem, 0, len(order.LineItems))
	for i, item := range order.LineItems {
		if item.SKU == nil {
			return nil, &FieldMissingError{Field: fmt.Sprintf("line_items[%d].sku", i)}
		}
		if item.Quantity == nil {
			return nil, &FieldMissingError{Field: fmt.Sprintf("line_items[%d].quantity", i)}
		}
		items = append(items, models.LineItem{
			ProductCode:    *item.SKU,
			QuantityToShip: *item.Quantity,
		})
	}
	return items, nil
}

// FormatOrderDate parses an ISO 8601 timestamp and returns its calendar date
// in the timestamp's own offset.
func FormatOrderDate(createdAt string) (string, error) {
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return "", &DateParseError{Value: createdAt, Err: err}
	}
	return parsed.Format(OrderDateLayout), nil
}

func BuildOutboundOrder(order *models.InboundOrder, shipMethod string) (*models.OutboundOrder, error) {
	if order.Number == nil {
		return nil, &FieldMissingError{Field: "number"}
	}
	createdAt, err := requireString("created_at", order.CreatedAt)
	if err != nil {
		return nil, err
	}
	email, err := requireString("email", order.Email)
	if err != nil {
		return nil, err
	}

	orderDate, err := FormatOrderDate(createdAt)
	if err != nil {
		return nil, err
	}
	shipment, err := ExtractShipment(order, shipMethod)
	if err != nil {
		return nil, err
	}
	items, err := ExtractItems(order)
	if err != nil {
		return nil, err
	}

	return &models.OutboundOrder{
		OrderNumber:  *order.Number,
		OrderDate:    orderDate,
		ShipmentInfo: shipment,
		Items:        items,
		CustomerID:   email,
	}, nil
}
