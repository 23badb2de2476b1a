package domain

// Product is an item sold by a vendor. VendorID is the vendor's listing ID.
type Product struct {
	ID         int64  `json:"id"`
	VendorID   int64  `json:"vendorId"`
	VendorName string `json:"vendorName"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Unit       string `json:"unit,omitempty"`
}
