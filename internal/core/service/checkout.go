package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/core/ports"
)

// CheckoutResult is what the storefront needs to finish a checkout: either a
// redirect URL, or bank-transfer instructions for identification-based
// methods.
type CheckoutResult struct {
	ExternalOrderID string            `json:"external_order_id"`
	LocalOrderID    int64             `json:"order_id"`
	PayURL          string            `json:"pay_url,omitempty"`
	Reference       string            `json:"reference,omitempty"`
	Instructions    *BankInstructions `json:"instructions,omitempty"`
}

type BankInstructions struct {
	IBAN       string `json:"iban"`
	BIC        string `json:"bic"`
	HolderName string `json:"holder_name"`
	HolderCity string `json:"holder_city"`
}

// CheckoutService creates the external payment order for a cart, records the
// correlation in the ledger and binds the freshly created local order to it.
type CheckoutService struct {
	client   ports.PSPClient
	ledger   ports.LedgerRepository
	orders   ports.StoreOrderRepository
	policy   *PolicyService
	currency *CurrencyService
	builder  *OrderBuilder
	logger   *slog.Logger
}

func NewCheckoutService(
	client ports.PSPClient,
	ledger ports.LedgerRepository,
	orders ports.StoreOrderRepository,
	policy *PolicyService,
	currency *CurrencyService,
	builder *OrderBuilder,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		client:   client,
		ledger:   ledger,
		orders:   orders,
		policy:   policy,
		currency: currency,
		builder:  builder,
		logger:   logger,
	}
}

// Checkout runs the full checkout-initiation flow for a cart and method.
// Gating (currency, IP, country) happens before anything is created on
// either side.
func (s *CheckoutService) Checkout(ctx context.Context, cart *domain.Cart, method string) (*CheckoutResult, error) {
	policy, known := domain.PolicyFor(method)
	if !known {
		return nil, domain.NewMethodNotAvailableError(method, "unknown payment method")
	}

	if !s.currency.Supported(ctx, method, cart.Currency) {
		return nil, domain.NewMethodNotAvailableError(method, "currency "+cart.Currency+" not supported")
	}
	if policy.IPRestricted && !s.policy.AllowIP(ctx, method, cart.CustomerIP) {
		return nil, domain.NewMethodNotAvailableError(method, "not available for this IP address")
	}
	if policy.CountryRestricted && !s.policy.AllowCountry(ctx, method, cart.InvoiceCountry) {
		return nil, domain.NewMethodNotAvailableError(method, "not available for country "+cart.InvoiceCountry)
	}

	snapshot, err := s.client.CreateOrder(ctx, s.builder.BuildOrder(cart, method))
	if err != nil {
		return nil, err
	}

	firstTx := snapshot.FirstTransaction()

	if snapshot.Status == domain.StatusError {
		message := "payment could not be started"
		if firstTx != nil && firstTx.CustomerMessage != "" {
			message = firstTx.CustomerMessage
		}
		return nil, domain.NewCheckoutRejectedError(message)
	}
	if snapshot.ID == "" {
		return nil, domain.NewCheckoutRejectedError("response did not include an order id")
	}

	entry := &domain.LedgerEntry{
		CartID:          cart.ID,
		ExternalOrderID: snapshot.ID,
		PaymentMethod:   method,
		CustomerKey:     cart.CustomerKey,
	}
	if policy.IdentificationBased && firstTx != nil && firstTx.Details.Reference != "" {
		ref := firstTx.Details.Reference
		entry.Reference = &ref
	}

	if err := s.ledger.Save(ctx, entry); err != nil {
		return nil, err
	}

	localOrderID, err := s.orders.CreateOrder(ctx, cart, snapshot.Amount, method)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.UpdateLocalOrderID(ctx, cart.ID, localOrderID); err != nil {
		return nil, err
	}

	// Push the definitive local order id back to the PSP so both sides
	// reference the same merchant order.
	err = s.client.UpdateOrder(ctx, snapshot.ID, domain.UpdateOrderRequest{
		Amount:          snapshot.Amount,
		Currency:        snapshot.Currency,
		MerchantOrderID: strconv.FormatInt(localOrderID, 10),
	})
	if err != nil {
		s.logger.Error("failed to bind merchant order id", "external_order_id", snapshot.ID, "error", err)
	}

	result := &CheckoutResult{
		ExternalOrderID: snapshot.ID,
		LocalOrderID:    localOrderID,
	}

	if policy.IdentificationBased {
		if entry.Reference != nil {
			result.Reference = *entry.Reference
		}
		if firstTx != nil {
			result.Instructions = &BankInstructions{
				IBAN:       firstTx.Details.CreditorIBAN,
				BIC:        firstTx.Details.CreditorBIC,
				HolderName: firstTx.Details.CreditorAccountHolderName,
				HolderCity: firstTx.Details.CreditorAccountHolderCity,
			}
		}
		s.logger.Info("checkout started with payment instructions",
			"cart_id", cart.ID,
			"external_order_id", snapshot.ID,
			"reference", result.Reference,
		)
		return result, nil
	}

	if firstTx == nil || firstTx.PaymentURL == "" {
		return nil, domain.NewCheckoutRejectedError("response did not include a payment url")
	}
	result.PayURL = firstTx.PaymentURL

	s.logger.Info("checkout started",
		"cart_id", cart.ID,
		"external_order_id", snapshot.ID,
		"order_id", localOrderID,
		"method", method,
	)
	return result, nil
}
