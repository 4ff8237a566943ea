package domain

import "time"

// LedgerEntry correlates a storefront cart with the external payment order
// created for it. One entry per cart; entries are never deleted so the table
// doubles as an audit trail.
type LedgerEntry struct {
	CartID          int64
	ExternalOrderID string
	PaymentMethod   string
	LocalOrderID    *int64
	CustomerKey     string
	Reference       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoreOrder is the storefront order record as this module sees it: enough
// to rebuild PSP order lines for refunds. The host order system owns it.
type StoreOrder struct {
	ID          int64
	CartID      int64
	AmountCents int64
	Currency    string
	Lines       []OrderLine
}

// OrderLine is one priced line of a cart or order. Amounts are minor
// currency units, tax rate is a percentage.
type OrderLine struct {
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	UnitAmountCents int64   `json:"amount"`
	TaxRate         float64 `json:"vat_percentage,omitempty"`
	MerchantLineID  string  `json:"merchant_order_line_id,omitempty"`
	URL             string  `json:"url,omitempty"`
	ImageURL        string  `json:"image_url,omitempty"`
}

// Cart is the checkout input handed over by the storefront.
type Cart struct {
	ID              int64
	CustomerKey     string
	CustomerIP      string
	InvoiceCountry  string
	Currency        string
	Locale          string
	Lines           []OrderLine
	ShippingCents   int64
	ShippingTaxRate float64
	ShippingCarrier string
}
