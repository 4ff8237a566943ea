package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/core/ports"
)

// RefundService processes admin-initiated full and partial refunds against
// the PSP.
type RefundService struct {
	client  ports.PSPClient
	ledger  ports.LedgerRepository
	orders  ports.StoreOrderRepository
	builder *OrderBuilder
	logger  *slog.Logger
}

func NewRefundService(
	client ports.PSPClient,
	ledger ports.LedgerRepository,
	orders ports.StoreOrderRepository,
	builder *OrderBuilder,
	logger *slog.Logger,
) *RefundService {
	return &RefundService{
		client:  client,
		ledger:  ledger,
		orders:  orders,
		builder: builder,
		logger:  logger,
	}
}

// Refund refunds amount (major units, as entered on the credit slip) of the
// order paid for cart cartID. Submitting the same refund twice is success
// both times; the second call sees the has-refunds flag and does nothing.
//
// The refunded history entry is written synchronously with the PSP call:
// partial-refund accounting has no separate confirmation step to hang it on.
func (s *RefundService) Refund(ctx context.Context, cartID int64, amount float64) error {
	entry, err := s.ledger.GetByCartID(ctx, cartID)
	if err != nil {
		if domain.IsErrorCode(err, domain.ErrCodeLedgerNotFound) {
			return domain.NewOrderNotFoundError(cartID)
		}
		return err
	}
	if entry.LocalOrderID == nil {
		return domain.NewOrderNotFoundError(cartID)
	}

	snapshot, err := s.client.GetOrder(ctx, entry.ExternalOrderID)
	if err != nil {
		return err
	}

	if snapshot.HasFlag(domain.FlagHasRefunds) {
		s.logger.Info("order already refunded", "external_order_id", entry.ExternalOrderID)
		return nil
	}

	if snapshot.Status != domain.StatusCompleted {
		return domain.NewNotRefundableError(entry.PaymentMethod)
	}

	req := domain.RefundOrderRequest{
		Amount:      s.builder.AmountInCents(amount),
		Description: fmt.Sprintf("Order refund: %d", *entry.LocalOrderID),
	}

	policy, _ := domain.PolicyFor(entry.PaymentMethod)
	if policy.Capturable {
		if !snapshot.HasFlag(domain.FlagHasCaptures) {
			return domain.NewRefundRequiresCaptureError(entry.PaymentMethod)
		}

		order, err := s.orders.FindOrder(ctx, *entry.LocalOrderID)
		if err != nil {
			return err
		}
		req.OrderLines = s.builder.RefundLines(order)
	}

	result, err := s.client.RefundOrder(ctx, entry.ExternalOrderID, req)
	if err != nil {
		return err
	}

	if err := s.orders.ChangeStatus(ctx, *entry.LocalOrderID, domain.LocalRefunded); err != nil {
		return err
	}

	switch result.Status {
	case domain.StatusError, domain.StatusCancelled, domain.StatusExpired:
		message := ""
		if tx := result.FirstTransaction(); tx != nil {
			message = tx.CustomerMessage
		}
		return domain.NewRefundFailedError(entry.PaymentMethod, message)
	}

	s.logger.Info("refund issued",
		"order_id", *entry.LocalOrderID,
		"external_order_id", entry.ExternalOrderID,
		"amount_cents", req.Amount,
	)
	return nil
}
