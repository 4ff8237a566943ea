package service

import (
	"fmt"
	"math"

	"github.com/nopayn/psp-bridge/internal/core/domain"
)

// OrderBuilder assembles PSP order payloads from storefront carts and
// orders. All amounts leave here as minor currency units.
type OrderBuilder struct {
	webhookURL        string
	returnURL         string
	expirationMinutes int
}

func NewOrderBuilder(webhookURL, returnURL string, expirationMinutes int) *OrderBuilder {
	return &OrderBuilder{
		webhookURL:        webhookURL,
		returnURL:         returnURL,
		expirationMinutes: expirationMinutes,
	}
}

// BuildOrder translates a cart into the PSP order-creation payload for the
// given payment method.
func (b *OrderBuilder) BuildOrder(cart *domain.Cart, method string) domain.CreateOrderRequest {
	lines := make([]domain.OrderLine, 0, len(cart.Lines)+1)
	lines = append(lines, cart.Lines...)
	if cart.ShippingCents > 0 {
		lines = append(lines, domain.OrderLine{
			Name:            cart.ShippingCarrier,
			Quantity:        1,
			UnitAmountCents: cart.ShippingCents,
			TaxRate:         cart.ShippingTaxRate,
		})
	}

	req := domain.CreateOrderRequest{
		Amount:          b.CartTotal(cart),
		Currency:        cart.Currency,
		MerchantOrderID: fmt.Sprintf("cart-%d", cart.ID),
		Description:     fmt.Sprintf("Your order at cart %d", cart.ID),
		ReturnURL:       b.returnURL,
		WebhookURL:      b.webhookURL,
		Customer: &domain.OrderCustomer{
			Locale:    cart.Locale,
			IPAddress: cart.CustomerIP,
			Country:   cart.InvoiceCountry,
		},
		OrderLines:   lines,
		Transactions: []domain.TransactionStart{{PaymentMethod: method}},
	}

	if b.expirationMinutes > 0 {
		req.ExpirationPeriod = fmt.Sprintf("PT%dM", b.expirationMinutes)
	}

	return req
}

// CartTotal sums line and shipping amounts in minor units.
func (b *OrderBuilder) CartTotal(cart *domain.Cart) int64 {
	var total int64
	for _, line := range cart.Lines {
		total += line.UnitAmountCents * int64(line.Quantity)
	}
	return total + cart.ShippingCents
}

// AmountInCents converts a major-unit amount (admin-entered refund value)
// to minor units. The single place floats enter the system.
func (b *OrderBuilder) AmountInCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// RefundLines rebuilds the per-line amounts of an order for refund payloads.
// Only capturable methods require them.
func (b *OrderBuilder) RefundLines(order *domain.StoreOrder) []domain.OrderLine {
	lines := make([]domain.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	return lines
}
