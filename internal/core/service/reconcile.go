package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/core/ports"
)

// EventStatusChanged is the only webhook event that carries work. Everything
// else is acknowledged and discarded.
const EventStatusChanged = "status_changed"

// Reconciler maps live external order snapshots onto local order statuses
// and decides when a capture or void must be issued to the PSP. Decisions
// are pure functions of (current local status, fresh snapshot, method
// policy); webhooks are at-least-once and unordered, so every side-effecting
// decision re-checks the live snapshot flags before acting.
type Reconciler struct {
	client ports.PSPClient
	ledger ports.LedgerRepository
	orders ports.StoreOrderRepository
	policy *PolicyService
	events ports.EventPublisher
	logger *slog.Logger
}

func NewReconciler(
	client ports.PSPClient,
	ledger ports.LedgerRepository,
	orders ports.StoreOrderRepository,
	policy *PolicyService,
	events ports.EventPublisher,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		client: client,
		ledger: ledger,
		orders: orders,
		policy: policy,
		events: events,
		logger: logger,
	}
}

// ProcessWebhook handles one webhook delivery. Non-status events are a
// no-op; an unknown external order id is terminal for the request. The
// inbound payload is never trusted beyond the order id: the snapshot is
// always re-fetched from the PSP before anything changes locally.
func (r *Reconciler) ProcessWebhook(ctx context.Context, externalOrderID, event string) error {
	if event != EventStatusChanged {
		r.logger.Debug("ignoring webhook event", "event", event, "external_order_id", externalOrderID)
		return nil
	}

	entry, err := r.ledger.GetByExternalOrderID(ctx, externalOrderID)
	if err != nil {
		return err
	}

	snapshot, err := r.client.GetOrder(ctx, externalOrderID)
	if err != nil {
		return err
	}

	if entry.LocalOrderID == nil {
		r.logger.Info("webhook arrived before local order exists, nothing to update",
			"external_order_id", externalOrderID,
			"status", snapshot.Status,
		)
		return nil
	}

	return r.applySnapshot(ctx, entry, snapshot)
}

// ProcessReturn reconciles on the synchronous checkout-return path and hands
// the fresh snapshot back so the caller can render the outcome.
func (r *Reconciler) ProcessReturn(ctx context.Context, cartID int64) (*domain.OrderSnapshot, error) {
	entry, err := r.ledger.GetByCartID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	snapshot, err := r.client.GetOrder(ctx, entry.ExternalOrderID)
	if err != nil {
		return nil, err
	}

	if entry.LocalOrderID != nil {
		if err := r.applySnapshot(ctx, entry, snapshot); err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

// HandleStatusUpdate reacts to a transition the host order system made on
// its own (shipped, canceled, or a manual payment acceptance) and issues the
// capture or void that transition calls for.
func (r *Reconciler) HandleStatusUpdate(ctx context.Context, localOrderID int64, newStatus domain.LocalStatus) error {
	entry, err := r.ledger.GetByOrderID(ctx, localOrderID)
	if err != nil {
		return err
	}

	r.applySideEffects(ctx, entry, newStatus)
	return nil
}

// applySnapshot writes the mapped status if it changed anything, then runs
// the capture/void decisions the new status triggers. Re-applying the same
// snapshot is a no-op: no duplicate history entries, no duplicate captures.
func (r *Reconciler) applySnapshot(ctx context.Context, entry *domain.LedgerEntry, snapshot *domain.OrderSnapshot) error {
	target, ok := snapshot.MapStatus()
	if !ok {
		r.logger.Warn("unmapped external status", "external_order_id", snapshot.ID, "status", snapshot.Status)
		return nil
	}

	current, err := r.orders.CurrentStatus(ctx, *entry.LocalOrderID)
	if err != nil {
		return err
	}

	if current == target {
		return nil
	}

	if err := r.orders.ChangeStatus(ctx, *entry.LocalOrderID, target); err != nil {
		return err
	}

	r.logger.Info("order status updated",
		"order_id", *entry.LocalOrderID,
		"external_order_id", entry.ExternalOrderID,
		"from", current,
		"to", target,
	)

	if r.events != nil {
		r.events.PublishStatusChanged(entry, current, target)
	}

	r.applySideEffects(ctx, entry, target)
	return nil
}

// applySideEffects issues the PSP action a local transition calls for.
// Failures are logged and swallowed: the status update stands either way,
// and the guard checks make the retry on the next qualifying event safe.
func (r *Reconciler) applySideEffects(ctx context.Context, entry *domain.LedgerEntry, status domain.LocalStatus) {
	policy, _ := domain.PolicyFor(entry.PaymentMethod)

	switch status {
	case domain.LocalShipped:
		if !policy.Capturable {
			return
		}
		r.capture(ctx, entry)

	case domain.LocalPaymentAccepted:
		if !policy.ManualCapture || !r.policy.ManualCaptureEnabled(ctx) {
			return
		}
		r.capture(ctx, entry)

	case domain.LocalCanceled:
		if !policy.ManualCapture || !r.policy.ManualCaptureEnabled(ctx) {
			return
		}
		r.void(ctx, entry)
	}
}

// capture issues a capture for the first transaction unless the live
// snapshot says it already happened or cannot happen. The flags must come
// from a fresh read: the decision is side-effecting and webhooks redeliver.
func (r *Reconciler) capture(ctx context.Context, entry *domain.LedgerEntry) {
	snapshot, err := r.client.GetOrder(ctx, entry.ExternalOrderID)
	if err != nil {
		r.logger.Error("capture skipped, could not fetch order", "external_order_id", entry.ExternalOrderID, "error", err)
		return
	}

	tx := snapshot.FirstTransaction()
	if tx == nil || !tx.IsCapturable {
		return
	}
	if snapshot.HasFlag(domain.FlagHasCaptures) {
		return
	}

	if err := r.client.CaptureOrderTransaction(ctx, snapshot.ID, tx.ID); err != nil {
		r.logger.Error("capture failed, will retry on next status event",
			"external_order_id", snapshot.ID,
			"transaction_id", tx.ID,
			"error", err,
		)
		return
	}

	r.logger.Info("captured transaction", "external_order_id", snapshot.ID, "transaction_id", tx.ID)
}

// void cancels an uncaptured authorization for the full order amount.
func (r *Reconciler) void(ctx context.Context, entry *domain.LedgerEntry) {
	snapshot, err := r.client.GetOrder(ctx, entry.ExternalOrderID)
	if err != nil {
		r.logger.Error("void skipped, could not fetch order", "external_order_id", entry.ExternalOrderID, "error", err)
		return
	}

	if snapshot.Status != domain.StatusCompleted {
		return
	}
	tx := snapshot.FirstTransaction()
	if tx == nil || tx.Type != domain.TransactionTypeAuthorization {
		return
	}
	if snapshot.HasFlag(domain.FlagHasCaptures) || snapshot.HasFlag(domain.FlagHasVoids) {
		return
	}

	req := domain.VoidTransactionRequest{
		Amount: snapshot.Amount,
		Description: fmt.Sprintf("Void %d of the full %d on order %s",
			snapshot.Amount, snapshot.Amount, snapshot.MerchantOrderID),
	}
	if err := r.client.VoidOrderTransaction(ctx, snapshot.ID, tx.ID, req); err != nil {
		r.logger.Error("void failed, will retry on next status event",
			"external_order_id", snapshot.ID,
			"transaction_id", tx.ID,
			"error", err,
		)
		return
	}

	r.logger.Info("voided authorization", "external_order_id", snapshot.ID, "transaction_id", tx.ID)
}
