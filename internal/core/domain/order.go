// Package domain defines the domain models for the PSP bridge.
package domain

// ExternalStatus is the order status as reported by the payment service provider.
type ExternalStatus string

const (
	StatusNew        ExternalStatus = "new"
	StatusProcessing ExternalStatus = "processing"
	StatusCompleted  ExternalStatus = "completed"
	StatusError      ExternalStatus = "error"
	StatusCancelled  ExternalStatus = "cancelled"
	StatusExpired    ExternalStatus = "expired"
)

// LocalStatus is the order status recorded against the storefront order.
type LocalStatus string

const (
	LocalPreparation     LocalStatus = "PREPARATION"
	LocalAuthorized      LocalStatus = "AUTHORIZED"
	LocalPaymentAccepted LocalStatus = "PAYMENT_ACCEPTED"
	LocalPaymentError    LocalStatus = "PAYMENT_ERROR"
	LocalCanceled        LocalStatus = "CANCELED"
	LocalShipped         LocalStatus = "SHIPPED"
	LocalRefunded        LocalStatus = "REFUNDED"
)

// Order flags reported on an external order snapshot.
const (
	FlagHasCaptures = "has-captures"
	FlagHasVoids    = "has-voids"
	FlagHasRefunds  = "has-refunds"
)

const TransactionTypeAuthorization = "authorization"

// PaymentMethodDetails carries the method-specific fields of a transaction.
// Only identification-based methods populate the creditor fields.
type PaymentMethodDetails struct {
	Reference                 string `json:"reference,omitempty"`
	CreditorIBAN              string `json:"creditor_iban,omitempty"`
	CreditorBIC               string `json:"creditor_bic,omitempty"`
	CreditorAccountHolderName string `json:"creditor_account_holder_name,omitempty"`
	CreditorAccountHolderCity string `json:"creditor_account_holder_city,omitempty"`
}

type Transaction struct {
	ID              string               `json:"id"`
	Type            string               `json:"transaction_type"`
	PaymentMethod   string               `json:"payment_method"`
	IsCapturable    bool                 `json:"is_capturable"`
	PaymentURL      string               `json:"payment_url,omitempty"`
	CustomerMessage string               `json:"customer_message,omitempty"`
	Details         PaymentMethodDetails `json:"payment_method_details"`
}

// OrderSnapshot is a point-in-time read of an external order. It is never
// persisted; every decision that needs one fetches it fresh from the PSP.
type OrderSnapshot struct {
	ID              string         `json:"id"`
	Status          ExternalStatus `json:"status"`
	Amount          int64          `json:"amount"`
	Currency        string         `json:"currency"`
	MerchantOrderID string         `json:"merchant_order_id,omitempty"`
	Description     string         `json:"description,omitempty"`
	Flags           []string       `json:"flags,omitempty"`
	Transactions    []Transaction  `json:"transactions,omitempty"`
}

func (s *OrderSnapshot) HasFlag(flag string) bool {
	for _, f := range s.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// FirstTransaction returns the leading transaction, which carries the
// authoritative type, capturability and payment URL for the order.
func (s *OrderSnapshot) FirstTransaction() *Transaction {
	if len(s.Transactions) == 0 {
		return nil
	}
	return &s.Transactions[0]
}

// MapStatus resolves the local order status an external snapshot translates
// to. A completed order maps to Authorized while its first transaction is
// still an authorization, and to PaymentAccepted once it settles.
func (s *OrderSnapshot) MapStatus() (LocalStatus, bool) {
	switch s.Status {
	case StatusNew, StatusProcessing:
		return LocalPreparation, true
	case StatusCompleted:
		if tx := s.FirstTransaction(); tx != nil && tx.Type == TransactionTypeAuthorization {
			return LocalAuthorized, true
		}
		return LocalPaymentAccepted, true
	case StatusError:
		return LocalPaymentError, true
	case StatusCancelled, StatusExpired:
		return LocalCanceled, true
	}
	return "", false
}
