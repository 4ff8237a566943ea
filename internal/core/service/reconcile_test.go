package service

import (
	"context"
	"testing"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T) (*Reconciler, *MockLedgerRepository, *MockStoreOrders, *MockPSPClient, *MockSettingsStore, *MockEventPublisher) {
	t.Helper()
	ledger := NewMockLedgerRepository()
	orders := NewMockStoreOrders()
	psp := &MockPSPClient{}
	settings := NewMockSettingsStore()
	events := &MockEventPublisher{}
	r := NewReconciler(psp, ledger, orders, NewPolicyService(settings, testLogger()), events, testLogger())
	return r, ledger, orders, psp, settings, events
}

func seedEntry(ledger *MockLedgerRepository, orders *MockStoreOrders, method string, status domain.LocalStatus) *domain.LedgerEntry {
	entry := &domain.LedgerEntry{
		CartID:          7,
		ExternalOrderID: "ord-42",
		PaymentMethod:   method,
		LocalOrderID:    int64Ptr(100),
		CustomerKey:     "secure-key",
	}
	ledger.entries[entry.CartID] = entry
	orders.SetStatus(100, status)
	return entry
}

func TestReconciler_Webhook_IgnoresOtherEvents(t *testing.T) {
	r, ledger, orders, psp, _, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "ideal", domain.LocalPreparation)

	err := r.ProcessWebhook(context.Background(), "ord-42", "order.updated")

	require.NoError(t, err)
	assert.Equal(t, 0, psp.GetCalls("GetOrder"))
}

func TestReconciler_Webhook_UnknownOrderIsTerminal(t *testing.T) {
	r, _, _, psp, _, _ := newTestReconciler(t)

	err := r.ProcessWebhook(context.Background(), "ord-missing", EventStatusChanged)

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeLedgerNotFound))
	assert.Equal(t, 0, psp.GetCalls("GetOrder"))
}

func TestReconciler_Webhook_CompletedAuthorization_MovesToAuthorized(t *testing.T) {
	r, ledger, orders, psp, _, events := newTestReconciler(t)
	seedEntry(ledger, orders, "credit-card", domain.LocalPreparation)

	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:     orderID,
			Status: domain.StatusCompleted,
			Transactions: []domain.Transaction{
				{ID: "tx-1", Type: domain.TransactionTypeAuthorization, IsCapturable: true},
			},
		}, nil
	}

	err := r.ProcessWebhook(context.Background(), "ord-42", EventStatusChanged)

	require.NoError(t, err)
	assert.Equal(t, []domain.LocalStatus{domain.LocalAuthorized}, orders.History(100))
	// Capture only triggers on the shipped transition.
	assert.Equal(t, 0, psp.GetCalls("CaptureOrderTransaction"))
	require.Len(t, events.Published, 1)
	assert.Equal(t, domain.LocalAuthorized, events.Published[0].To)
}

func TestReconciler_Webhook_RedeliveryIsNoOp(t *testing.T) {
	r, ledger, orders, psp, _, events := newTestReconciler(t)
	seedEntry(ledger, orders, "ideal", domain.LocalPreparation)

	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:           orderID,
			Status:       domain.StatusCompleted,
			Transactions: []domain.Transaction{{ID: "tx-1", Type: "sale"}},
		}, nil
	}

	require.NoError(t, r.ProcessWebhook(context.Background(), "ord-42", EventStatusChanged))
	require.NoError(t, r.ProcessWebhook(context.Background(), "ord-42", EventStatusChanged))

	// One history entry, one published event, regardless of duplicates.
	assert.Equal(t, []domain.LocalStatus{domain.LocalPaymentAccepted}, orders.History(100))
	assert.Len(t, events.Published, 1)
}

func TestReconciler_Webhook_OutOfOrderAuthThenSale(t *testing.T) {
	r, ledger, orders, psp, _, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "ideal", domain.LocalPreparation)

	txType := domain.TransactionTypeAuthorization
	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:           orderID,
			Status:       domain.StatusCompleted,
			Transactions: []domain.Transaction{{ID: "tx-1", Type: txType}},
		}, nil
	}

	require.NoError(t, r.ProcessWebhook(context.Background(), "ord-42", EventStatusChanged))
	txType = "sale"
	require.NoError(t, r.ProcessWebhook(context.Background(), "ord-42", EventStatusChanged))

	assert.Equal(t,
		[]domain.LocalStatus{domain.LocalAuthorized, domain.LocalPaymentAccepted},
		orders.History(100),
	)
}

func TestReconciler_Webhook_ErrorAndCancelledMapping(t *testing.T) {
	cases := []struct {
		external domain.ExternalStatus
		want     domain.LocalStatus
	}{
		{domain.StatusError, domain.LocalPaymentError},
		{domain.StatusCancelled, domain.LocalCanceled},
		{domain.StatusExpired, domain.LocalCanceled},
		{domain.StatusProcessing, domain.LocalPreparation},
	}

	for _, tc := range cases {
		t.Run(string(tc.external), func(t *testing.T) {
			r, ledger, orders, psp, _, _ := newTestReconciler(t)
			seedEntry(ledger, orders, "ideal", domain.LocalShipped)

			psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
				return &domain.OrderSnapshot{ID: orderID, Status: tc.external}, nil
			}

			require.NoError(t, r.ProcessWebhook(context.Background(), "ord-42", EventStatusChanged))
			assert.Equal(t, []domain.LocalStatus{tc.want}, orders.History(100))
		})
	}
}

func TestReconciler_Webhook_BeforeLocalOrderExists(t *testing.T) {
	r, ledger, _, psp, _, _ := newTestReconciler(t)
	ledger.entries[7] = &domain.LedgerEntry{
		CartID:          7,
		ExternalOrderID: "ord-42",
		PaymentMethod:   "ideal",
	}

	err := r.ProcessWebhook(context.Background(), "ord-42", EventStatusChanged)

	require.NoError(t, err)
	assert.Equal(t, 1, psp.GetCalls("GetOrder"))
}

func TestReconciler_Shipped_CapturesOnce(t *testing.T) {
	r, ledger, orders, psp, _, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "klarna-pay-later", domain.LocalShipped)

	captured := false
	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		snap := &domain.OrderSnapshot{
			ID:     orderID,
			Status: domain.StatusCompleted,
			Transactions: []domain.Transaction{
				{ID: "tx-1", Type: domain.TransactionTypeAuthorization, IsCapturable: true},
			},
		}
		if captured {
			snap.Flags = []string{domain.FlagHasCaptures}
		}
		return snap, nil
	}
	psp.CaptureOrderTransactionFn = func(ctx context.Context, orderID, transactionID string) error {
		captured = true
		return nil
	}

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalShipped))
	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalShipped))

	// Second attempt sees has-captures on the live snapshot and backs off.
	assert.Equal(t, 1, psp.GetCalls("CaptureOrderTransaction"))
}

func TestReconciler_Shipped_NonCapturableMethodSkips(t *testing.T) {
	r, ledger, orders, psp, _, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "ideal", domain.LocalShipped)

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalShipped))

	assert.Equal(t, 0, psp.GetCalls("GetOrder"))
	assert.Equal(t, 0, psp.GetCalls("CaptureOrderTransaction"))
}

func TestReconciler_CaptureGuard_HasCapturesBlocks(t *testing.T) {
	r, ledger, orders, psp, _, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "afterpay", domain.LocalShipped)

	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:     orderID,
			Status: domain.StatusCompleted,
			Flags:  []string{domain.FlagHasCaptures},
			Transactions: []domain.Transaction{
				{ID: "tx-1", Type: domain.TransactionTypeAuthorization, IsCapturable: true},
			},
		}, nil
	}

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalShipped))

	assert.Equal(t, 0, psp.GetCalls("CaptureOrderTransaction"))
}

func TestReconciler_CaptureGuard_NotCapturableTransaction(t *testing.T) {
	r, ledger, orders, psp, _, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "afterpay", domain.LocalShipped)

	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:           orderID,
			Status:       domain.StatusCompleted,
			Transactions: []domain.Transaction{{ID: "tx-1", IsCapturable: false}},
		}, nil
	}

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalShipped))

	assert.Equal(t, 0, psp.GetCalls("CaptureOrderTransaction"))
}

func TestReconciler_ManualCapture_OnPaymentAccepted(t *testing.T) {
	r, ledger, orders, psp, settings, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "credit-card", domain.LocalAuthorized)
	require.NoError(t, settings.Update(context.Background(), SettingCaptureManual, "1"))

	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:     orderID,
			Status: domain.StatusCompleted,
			Transactions: []domain.Transaction{
				{ID: "tx-1", Type: domain.TransactionTypeAuthorization, IsCapturable: true},
			},
		}, nil
	}

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalPaymentAccepted))

	assert.Equal(t, 1, psp.GetCalls("CaptureOrderTransaction"))
}

func TestReconciler_ManualCaptureDisabled_NoCapture(t *testing.T) {
	r, ledger, orders, psp, _, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "credit-card", domain.LocalAuthorized)

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalPaymentAccepted))

	assert.Equal(t, 0, psp.GetCalls("GetOrder"))
}

func TestReconciler_ManualCapture_OnlyForEligibleMethods(t *testing.T) {
	r, ledger, orders, psp, settings, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "ideal", domain.LocalAuthorized)
	require.NoError(t, settings.Update(context.Background(), SettingCaptureManual, "1"))

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalPaymentAccepted))

	assert.Equal(t, 0, psp.GetCalls("GetOrder"))
	assert.Equal(t, 0, psp.GetCalls("CaptureOrderTransaction"))
}

func TestReconciler_Void_OnCanceledAuthorization(t *testing.T) {
	r, ledger, orders, psp, settings, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "credit-card", domain.LocalAuthorized)
	require.NoError(t, settings.Update(context.Background(), SettingCaptureManual, "1"))

	var voided domain.VoidTransactionRequest
	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:              orderID,
			Status:          domain.StatusCompleted,
			Amount:          2500,
			MerchantOrderID: "100",
			Transactions: []domain.Transaction{
				{ID: "tx-1", Type: domain.TransactionTypeAuthorization},
			},
		}, nil
	}
	psp.VoidOrderTransactionFn = func(ctx context.Context, orderID, transactionID string, req domain.VoidTransactionRequest) error {
		voided = req
		return nil
	}

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalCanceled))

	assert.Equal(t, 1, psp.GetCalls("VoidOrderTransaction"))
	assert.Equal(t, int64(2500), voided.Amount)
	assert.Contains(t, voided.Description, "full 2500")
}

func TestReconciler_VoidGuard_FlagsBlock(t *testing.T) {
	for _, flag := range []string{domain.FlagHasCaptures, domain.FlagHasVoids} {
		t.Run(flag, func(t *testing.T) {
			r, ledger, orders, psp, settings, _ := newTestReconciler(t)
			seedEntry(ledger, orders, "credit-card", domain.LocalAuthorized)
			require.NoError(t, settings.Update(context.Background(), SettingCaptureManual, "1"))

			psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
				return &domain.OrderSnapshot{
					ID:     orderID,
					Status: domain.StatusCompleted,
					Flags:  []string{flag},
					Transactions: []domain.Transaction{
						{ID: "tx-1", Type: domain.TransactionTypeAuthorization},
					},
				}, nil
			}

			require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalCanceled))
			assert.Equal(t, 0, psp.GetCalls("VoidOrderTransaction"))
		})
	}
}

func TestReconciler_VoidGuard_SaleTransactionSkips(t *testing.T) {
	r, ledger, orders, psp, settings, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "credit-card", domain.LocalAuthorized)
	require.NoError(t, settings.Update(context.Background(), SettingCaptureManual, "1"))

	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:           orderID,
			Status:       domain.StatusCompleted,
			Transactions: []domain.Transaction{{ID: "tx-1", Type: "sale"}},
		}, nil
	}

	require.NoError(t, r.HandleStatusUpdate(context.Background(), 100, domain.LocalCanceled))
	assert.Equal(t, 0, psp.GetCalls("VoidOrderTransaction"))
}

func TestReconciler_CaptureFailureDoesNotAbortStatusUpdate(t *testing.T) {
	r, ledger, orders, psp, settings, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "credit-card", domain.LocalAuthorized)
	require.NoError(t, settings.Update(context.Background(), SettingCaptureManual, "1"))

	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:     orderID,
			Status: domain.StatusCompleted,
			Transactions: []domain.Transaction{
				{ID: "tx-1", Type: "sale", IsCapturable: true},
			},
		}, nil
	}
	psp.CaptureOrderTransactionFn = func(ctx context.Context, orderID, transactionID string) error {
		return assert.AnError
	}

	// The webhook transition completes even though the capture call failed.
	err := r.ProcessWebhook(context.Background(), "ord-42", EventStatusChanged)
	require.NoError(t, err)
	assert.Equal(t, []domain.LocalStatus{domain.LocalPaymentAccepted}, orders.History(100))
}

func TestReconciler_ProcessReturn_ReconcilesAndReturnsSnapshot(t *testing.T) {
	r, ledger, orders, psp, _, _ := newTestReconciler(t)
	seedEntry(ledger, orders, "bank-transfer", domain.LocalPreparation)

	psp.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return &domain.OrderSnapshot{
			ID:     orderID,
			Status: domain.StatusProcessing,
			Transactions: []domain.Transaction{{
				ID: "tx-1",
				Details: domain.PaymentMethodDetails{
					CreditorIBAN: "NL13TEST0123456789",
				},
			}},
		}, nil
	}

	snap, err := r.ProcessReturn(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "NL13TEST0123456789", snap.FirstTransaction().Details.CreditorIBAN)
	// Already in Preparation, so nothing was appended.
	assert.Empty(t, orders.History(100))
}
