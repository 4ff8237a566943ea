package ports

import (
	"context"

	"github.com/nopayn/psp-bridge/internal/core/domain"
)

// PSPClient defines the behavior of the external payment service provider.
type PSPClient interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderSnapshot, error)
	GetOrder(ctx context.Context, orderID string) (*domain.OrderSnapshot, error)
	UpdateOrder(ctx context.Context, orderID string, req domain.UpdateOrderRequest) error
	CaptureOrderTransaction(ctx context.Context, orderID, transactionID string) error

	// VoidOrderTransaction voids the full authorized amount of a
	// transaction. Partial voids are intentionally not expressible.
	VoidOrderTransaction(ctx context.Context, orderID, transactionID string, req domain.VoidTransactionRequest) error

	RefundOrder(ctx context.Context, orderID string, req domain.RefundOrderRequest) (*domain.OrderSnapshot, error)
	GetCurrencyList(ctx context.Context) (*domain.CurrencyList, error)
}
