package domain

import "encoding/json"

// DeliveryMode is how the customer receives the order. The empty value means
// no mode has been chosen yet.
type DeliveryMode string

const (
	DeliveryNone     DeliveryMode = ""
	DeliveryPickup   DeliveryMode = "pickup"
	DeliveryDelivery DeliveryMode = "delivery"
)

// ParseDeliveryMode accepts "pickup", "delivery", or "" (clears the choice).
func ParseDeliveryMode(raw string) (DeliveryMode, bool) {
	switch DeliveryMode(raw) {
	case DeliveryNone, DeliveryPickup, DeliveryDelivery:
		return DeliveryMode(raw), true
	default:
		return "", false
	}
}

// MarshalJSON encodes the unset mode as null.
func (m DeliveryMode) MarshalJSON() ([]byte, error) {
	if m == DeliveryNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

func (m *DeliveryMode) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = DeliveryNone
		return nil
	}
	*m = DeliveryMode(*raw)
	return nil
}

// Cart holds line items from at most one vendor. A non-empty cart always has
// VendorID set, and every stored quantity is at least 1.
type Cart struct {
	VendorID     *int64       `json:"vendorId"`
	VendorName   *string      `json:"vendorName"`
	Items        []CartItem   `json:"items"`
	DeliveryMode DeliveryMode `json:"deliveryMode"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Clone deep-copies the cart.
func (c Cart) Clone() Cart {
	out := Cart{DeliveryMode: c.DeliveryMode, Items: make([]CartItem, len(c.Items))}
	copy(out.Items, c.Items)
	if c.VendorID != nil {
		id := *c.VendorID
		out.VendorID = &id
	}
	if c.VendorName != nil {
		name := *c.VendorName
		out.VendorName = &name
	}
	return out
}
