package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/core/service"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ledger *service.MockLedgerRepository
	orders *service.MockStoreOrders
	client *service.MockPSPClient
	router http.Handler
}

func newTestEnv(t *testing.T, webhookSecret string) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := service.NewMockLedgerRepository()
	orders := service.NewMockStoreOrders()
	client := &service.MockPSPClient{}
	settings := service.NewMockSettingsStore()
	cache := service.NewMockCache()

	policy := service.NewPolicyService(settings, logger)
	currency := service.NewCurrencyService(client, cache, logger)
	builder := service.NewOrderBuilder("https://bridge.example.test/webhook", "https://shop.example.test/return", 0)

	reconciler := service.NewReconciler(client, ledger, orders, policy, nil, logger)
	checkout := service.NewCheckoutService(client, ledger, orders, policy, currency, builder, logger)
	refund := service.NewRefundService(client, ledger, orders, builder, logger)

	h := handlers.New(reconciler, checkout, refund, policy, webhookSecret, logger)

	return &testEnv{
		ledger: ledger,
		orders: orders,
		client: client,
		router: rest.NewRouter(h, logger),
	}
}

func (e *testEnv) seedOrder(t *testing.T, cartID int64, externalOrderID string, localOrderID int64) {
	t.Helper()
	entry := &domain.LedgerEntry{
		CartID:          cartID,
		ExternalOrderID: externalOrderID,
		PaymentMethod:   "ideal",
		LocalOrderID:    &localOrderID,
		CustomerKey:     "key",
	}
	require.NoError(t, e.ledger.Save(context.Background(), entry))
	e.orders.SetStatus(localOrderID, domain.LocalPreparation)
}

func postJSON(router http.Handler, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_StatusChangedUpdatesOrder(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedOrder(t, 7, "ord-42", 100)

	rec := postJSON(env.router, "/webhook", handlers.WebhookRequest{
		OrderID: "ord-42",
		Event:   "status_changed",
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	// Default mock snapshot is a completed sale.
	assert.Equal(t, []domain.LocalStatus{domain.LocalPaymentAccepted}, env.orders.History(100))
}

func TestWebhook_UnknownOrderAcknowledged(t *testing.T) {
	env := newTestEnv(t, "")

	rec := postJSON(env.router, "/webhook", handlers.WebhookRequest{
		OrderID: "ord-missing",
		Event:   "status_changed",
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown order", resp.Detail)
	assert.Equal(t, 0, env.client.GetCalls("GetOrder"))
}

func TestWebhook_OtherEventIgnored(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedOrder(t, 7, "ord-42", 100)

	rec := postJSON(env.router, "/webhook", handlers.WebhookRequest{
		OrderID: "ord-42",
		Event:   "order_created",
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.orders.History(100))
}

func TestWebhook_BadSecretRejected(t *testing.T) {
	env := newTestEnv(t, "s3cret")
	env.seedOrder(t, 7, "ord-42", 100)

	rec := postJSON(env.router, "/webhook", handlers.WebhookRequest{
		OrderID: "ord-42",
		Event:   "status_changed",
	}, map[string]string{"X-Webhook-Secret": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.orders.History(100))
}

func TestWebhook_GoodSecretAccepted(t *testing.T) {
	env := newTestEnv(t, "s3cret")
	env.seedOrder(t, 7, "ord-42", 100)

	rec := postJSON(env.router, "/webhook", handlers.WebhookRequest{
		OrderID: "ord-42",
		Event:   "status_changed",
	}, map[string]string{"X-Webhook-Secret": "s3cret"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_InvalidPayload(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_TransientFailureReturns500(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedOrder(t, 7, "ord-42", 100)
	env.client.GetOrderFn = func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
		return nil, assert.AnError
	}

	rec := postJSON(env.router, "/webhook", handlers.WebhookRequest{
		OrderID: "ord-42",
		Event:   "status_changed",
	}, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCheckout_Success(t *testing.T) {
	env := newTestEnv(t, "")

	rec := postJSON(env.router, "/checkout", handlers.CheckoutRequest{
		Method: "ideal",
		Cart: domain.Cart{
			ID:          55,
			CustomerKey: "key",
			Currency:    "EUR",
			Lines: []domain.OrderLine{
				{Name: "widget", Quantity: 1, UnitAmountCents: 1999},
			},
		},
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result service.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "ord-123", result.ExternalOrderID)
	assert.Equal(t, "https://pay.example.test/ord-123", result.PayURL)
}

func TestCheckout_UnknownMethodIsUnprocessable(t *testing.T) {
	env := newTestEnv(t, "")

	rec := postJSON(env.router, "/checkout", handlers.CheckoutRequest{
		Method: "no-such-method",
		Cart: domain.Cart{
			ID:       55,
			Currency: "EUR",
			Lines:    []domain.OrderLine{{Name: "widget", Quantity: 1, UnitAmountCents: 100}},
		},
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeMethodNotAvailable, resp.Error.Code)
}

func TestRefund_UnknownCartIs404(t *testing.T) {
	env := newTestEnv(t, "")

	rec := postJSON(env.router, "/refunds", handlers.RefundRequest{CartID: 99, Amount: 10}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettings_UpdateAndGet(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodPut, "/settings/PSP_IDEAL_LABEL",
		bytes.NewReader([]byte(`{"value":"iDEAL"}`)))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/settings/PSP_IDEAL_LABEL", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.SettingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "iDEAL", resp.Value)
}

func TestSettings_ClearingAPIKeyRejected(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodPut, "/settings/PSP_API_KEY",
		bytes.NewReader([]byte(`{"value":""}`)))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeConfiguration, resp.Error.Code)
}

func TestReturn_ReconcilesAndReportsStatus(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedOrder(t, 7, "ord-42", 100)

	req := httptest.NewRequest(http.MethodGet, "/return/7", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ReturnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ord-42", resp.ExternalOrderID)
	assert.Equal(t, string(domain.StatusCompleted), resp.Status)
	assert.Equal(t, []domain.LocalStatus{domain.LocalPaymentAccepted}, env.orders.History(100))
}
