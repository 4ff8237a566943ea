package domain

// Wire payloads for the PSP order API. Amounts are minor currency units
// throughout; the PSP never sees floats.

type CreateOrderRequest struct {
	Amount           int64              `json:"amount"`
	Currency         string             `json:"currency"`
	MerchantOrderID  string             `json:"merchant_order_id"`
	Description      string             `json:"description,omitempty"`
	ReturnURL        string             `json:"return_url,omitempty"`
	WebhookURL       string             `json:"webhook_url,omitempty"`
	ExpirationPeriod string             `json:"expiration_period,omitempty"`
	Customer         *OrderCustomer     `json:"customer,omitempty"`
	OrderLines       []OrderLine        `json:"order_lines,omitempty"`
	Transactions     []TransactionStart `json:"transactions"`
}

// TransactionStart selects the payment method the order is created for.
type TransactionStart struct {
	PaymentMethod string `json:"payment_method"`
}

type OrderCustomer struct {
	Locale    string `json:"locale,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Country   string `json:"country,omitempty"`
}

type UpdateOrderRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	MerchantOrderID string `json:"merchant_order_id"`
}

type RefundOrderRequest struct {
	Amount      int64       `json:"amount"`
	Description string      `json:"description"`
	OrderLines  []OrderLine `json:"order_lines,omitempty"`
}

type VoidTransactionRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// CurrencyList maps each payment method to the currencies the PSP accepts
// for it.
type CurrencyList struct {
	PaymentMethods map[string]MethodCurrencies `json:"payment_methods"`
}

type MethodCurrencies struct {
	Currencies []string `json:"currencies"`
}

// Supports reports whether the PSP accepts the currency for the method.
func (c CurrencyList) Supports(method, currency string) bool {
	mc, ok := c.PaymentMethods[method]
	if !ok {
		return false
	}
	for _, cur := range mc.Currencies {
		if cur == currency {
			return true
		}
	}
	return false
}
