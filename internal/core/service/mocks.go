package service

import (
	"context"
	"sync"
	"time"

	"github.com/nopayn/psp-bridge/internal/core/domain"
)

// MockLedgerRepository
type MockLedgerRepository struct {
	mu      sync.RWMutex
	entries map[int64]*domain.LedgerEntry

	SaveFn                 func(ctx context.Context, entry *domain.LedgerEntry) error
	GetByCartIDFn          func(ctx context.Context, cartID int64) (*domain.LedgerEntry, error)
	GetByOrderIDFn         func(ctx context.Context, localOrderID int64) (*domain.LedgerEntry, error)
	GetByExternalOrderIDFn func(ctx context.Context, externalOrderID string) (*domain.LedgerEntry, error)
	UpdateLocalOrderIDFn   func(ctx context.Context, cartID, localOrderID int64) error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		entries: make(map[int64]*domain.LedgerEntry),
	}
}

func (m *MockLedgerRepository) Save(ctx context.Context, entry *domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveFn != nil {
		return m.SaveFn(ctx, entry)
	}
	if _, ok := m.entries[entry.CartID]; ok {
		return domain.NewDuplicateCartError(entry.CartID)
	}
	m.entries[entry.CartID] = entry
	return nil
}

func (m *MockLedgerRepository) GetByCartID(ctx context.Context, cartID int64) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetByCartIDFn != nil {
		return m.GetByCartIDFn(ctx, cartID)
	}
	if e, ok := m.entries[cartID]; ok {
		return e, nil
	}
	return nil, domain.NewLedgerNotFoundError("cart")
}

func (m *MockLedgerRepository) GetByOrderID(ctx context.Context, localOrderID int64) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetByOrderIDFn != nil {
		return m.GetByOrderIDFn(ctx, localOrderID)
	}
	for _, e := range m.entries {
		if e.LocalOrderID != nil && *e.LocalOrderID == localOrderID {
			return e, nil
		}
	}
	return nil, domain.NewLedgerNotFoundError("order")
}

func (m *MockLedgerRepository) GetByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetByExternalOrderIDFn != nil {
		return m.GetByExternalOrderIDFn(ctx, externalOrderID)
	}
	for _, e := range m.entries {
		if e.ExternalOrderID == externalOrderID {
			return e, nil
		}
	}
	return nil, domain.NewLedgerNotFoundError(externalOrderID)
}

func (m *MockLedgerRepository) UpdateLocalOrderID(ctx context.Context, cartID, localOrderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateLocalOrderIDFn != nil {
		return m.UpdateLocalOrderIDFn(ctx, cartID, localOrderID)
	}
	e, ok := m.entries[cartID]
	if !ok {
		return domain.NewLedgerNotFoundError("cart")
	}
	if e.LocalOrderID != nil && *e.LocalOrderID == localOrderID {
		return nil
	}
	e.LocalOrderID = &localOrderID
	return nil
}

// MockStoreOrders
type MockStoreOrders struct {
	mu       sync.Mutex
	statuses map[int64]domain.LocalStatus
	history  map[int64][]domain.LocalStatus
	orders   map[int64]*domain.StoreOrder
	nextID   int64

	CreateOrderFn   func(ctx context.Context, cart *domain.Cart, amountCents int64, method string) (int64, error)
	FindOrderFn     func(ctx context.Context, orderID int64) (*domain.StoreOrder, error)
	CurrentStatusFn func(ctx context.Context, orderID int64) (domain.LocalStatus, error)
	ChangeStatusFn  func(ctx context.Context, orderID int64, status domain.LocalStatus) error
}

func NewMockStoreOrders() *MockStoreOrders {
	return &MockStoreOrders{
		statuses: make(map[int64]domain.LocalStatus),
		history:  make(map[int64][]domain.LocalStatus),
		orders:   make(map[int64]*domain.StoreOrder),
		nextID:   1000,
	}
}

func (m *MockStoreOrders) SetStatus(orderID int64, status domain.LocalStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[orderID] = status
}

func (m *MockStoreOrders) SetOrder(order *domain.StoreOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

// History returns the statuses appended through ChangeStatus for an order.
func (m *MockStoreOrders) History(orderID int64) []domain.LocalStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LocalStatus(nil), m.history[orderID]...)
}

func (m *MockStoreOrders) CreateOrder(ctx context.Context, cart *domain.Cart, amountCents int64, method string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(ctx, cart, amountCents, method)
	}
	m.nextID++
	id := m.nextID
	m.statuses[id] = domain.LocalPreparation
	m.history[id] = append(m.history[id], domain.LocalPreparation)
	return id, nil
}

func (m *MockStoreOrders) FindOrder(ctx context.Context, orderID int64) (*domain.StoreOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindOrderFn != nil {
		return m.FindOrderFn(ctx, orderID)
	}
	if o, ok := m.orders[orderID]; ok {
		return o, nil
	}
	return nil, domain.NewOrderNotFoundError(orderID)
}

func (m *MockStoreOrders) CurrentStatus(ctx context.Context, orderID int64) (domain.LocalStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CurrentStatusFn != nil {
		return m.CurrentStatusFn(ctx, orderID)
	}
	return m.statuses[orderID], nil
}

func (m *MockStoreOrders) ChangeStatus(ctx context.Context, orderID int64, status domain.LocalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ChangeStatusFn != nil {
		return m.ChangeStatusFn(ctx, orderID, status)
	}
	m.statuses[orderID] = status
	m.history[orderID] = append(m.history[orderID], status)
	return nil
}

// MockPSPClient
type MockPSPClient struct {
	mu    sync.Mutex
	calls map[string]int

	CreateOrderFn             func(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderSnapshot, error)
	GetOrderFn                func(ctx context.Context, orderID string) (*domain.OrderSnapshot, error)
	UpdateOrderFn             func(ctx context.Context, orderID string, req domain.UpdateOrderRequest) error
	CaptureOrderTransactionFn func(ctx context.Context, orderID, transactionID string) error
	VoidOrderTransactionFn    func(ctx context.Context, orderID, transactionID string, req domain.VoidTransactionRequest) error
	RefundOrderFn             func(ctx context.Context, orderID string, req domain.RefundOrderRequest) (*domain.OrderSnapshot, error)
	GetCurrencyListFn         func(ctx context.Context) (*domain.CurrencyList, error)
}

func (m *MockPSPClient) inc(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *MockPSPClient) GetCalls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockPSPClient) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderSnapshot, error) {
	m.inc("CreateOrder")
	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(ctx, req)
	}
	return &domain.OrderSnapshot{
		ID:       "ord-123",
		Status:   domain.StatusNew,
		Amount:   req.Amount,
		Currency: req.Currency,
		Transactions: []domain.Transaction{{
			ID:            "tx-123",
			PaymentMethod: req.Transactions[0].PaymentMethod,
			PaymentURL:    "https://pay.example.test/ord-123",
		}},
	}, nil
}

func (m *MockPSPClient) GetOrder(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
	m.inc("GetOrder")
	if m.GetOrderFn != nil {
		return m.GetOrderFn(ctx, orderID)
	}
	return &domain.OrderSnapshot{
		ID:     orderID,
		Status: domain.StatusCompleted,
		Transactions: []domain.Transaction{{
			ID:   "tx-123",
			Type: "sale",
		}},
	}, nil
}

func (m *MockPSPClient) UpdateOrder(ctx context.Context, orderID string, req domain.UpdateOrderRequest) error {
	m.inc("UpdateOrder")
	if m.UpdateOrderFn != nil {
		return m.UpdateOrderFn(ctx, orderID, req)
	}
	return nil
}

func (m *MockPSPClient) CaptureOrderTransaction(ctx context.Context, orderID, transactionID string) error {
	m.inc("CaptureOrderTransaction")
	if m.CaptureOrderTransactionFn != nil {
		return m.CaptureOrderTransactionFn(ctx, orderID, transactionID)
	}
	return nil
}

func (m *MockPSPClient) VoidOrderTransaction(ctx context.Context, orderID, transactionID string, req domain.VoidTransactionRequest) error {
	m.inc("VoidOrderTransaction")
	if m.VoidOrderTransactionFn != nil {
		return m.VoidOrderTransactionFn(ctx, orderID, transactionID, req)
	}
	return nil
}

func (m *MockPSPClient) RefundOrder(ctx context.Context, orderID string, req domain.RefundOrderRequest) (*domain.OrderSnapshot, error) {
	m.inc("RefundOrder")
	if m.RefundOrderFn != nil {
		return m.RefundOrderFn(ctx, orderID, req)
	}
	return &domain.OrderSnapshot{
		ID:     orderID,
		Status: domain.StatusCompleted,
		Flags:  []string{domain.FlagHasRefunds},
	}, nil
}

func (m *MockPSPClient) GetCurrencyList(ctx context.Context) (*domain.CurrencyList, error) {
	m.inc("GetCurrencyList")
	if m.GetCurrencyListFn != nil {
		return m.GetCurrencyListFn(ctx)
	}
	methods := make(map[string]domain.MethodCurrencies)
	for _, method := range domain.Methods() {
		methods[method] = domain.MethodCurrencies{Currencies: []string{"EUR"}}
	}
	return &domain.CurrencyList{PaymentMethods: methods}, nil
}

// MockSettingsStore
type MockSettingsStore struct {
	mu     sync.RWMutex
	values map[string]string

	GetFn func(ctx context.Context, key string) (string, error)
}

func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{values: make(map[string]string)}
}

func (m *MockSettingsStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return m.values[key], nil
}

func (m *MockSettingsStore) Update(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// MockEventPublisher
type MockEventPublisher struct {
	mu        sync.Mutex
	Published []PublishedEvent
}

type PublishedEvent struct {
	ExternalOrderID string
	From            domain.LocalStatus
	To              domain.LocalStatus
}

func (m *MockEventPublisher) PublishStatusChanged(entry *domain.LedgerEntry, from, to domain.LocalStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, PublishedEvent{
		ExternalOrderID: entry.ExternalOrderID,
		From:            from,
		To:              to,
	})
}

// MockCache
type MockCache struct {
	mu      sync.Mutex
	store   map[string]cacheEntry
	GetFn   func(ctx context.Context, key string) ([]byte, bool, error)
	PutFn   func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	PutKeys []string
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMockCache() *MockCache {
	return &MockCache{store: make(map[string]cacheEntry)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	e, ok := m.store[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MockCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutFn != nil {
		return m.PutFn(ctx, key, value, ttl)
	}
	m.store[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	m.PutKeys = append(m.PutKeys, key)
	return nil
}
