package ports

import (
	"context"

	"github.com/nopayn/psp-bridge/internal/core/domain"
)

// LedgerRepository persists the cart-to-external-order correlation table.
type LedgerRepository interface {
	// Save inserts a new entry. Returns a DuplicateCart error if the cart
	// already has one.
	Save(ctx context.Context, entry *domain.LedgerEntry) error
	GetByCartID(ctx context.Context, cartID int64) (*domain.LedgerEntry, error)
	GetByOrderID(ctx context.Context, localOrderID int64) (*domain.LedgerEntry, error)
	GetByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.LedgerEntry, error)

	// UpdateLocalOrderID binds the local order id once it exists. No-op when
	// the stored value already matches.
	UpdateLocalOrderID(ctx context.Context, cartID, localOrderID int64) error
}

// StoreOrderRepository is the narrow view of the host order system this
// module consumes. ChangeStatus is expected to append an immutable history
// entry alongside the status write.
type StoreOrderRepository interface {
	CreateOrder(ctx context.Context, cart *domain.Cart, amountCents int64, method string) (int64, error)
	FindOrder(ctx context.Context, orderID int64) (*domain.StoreOrder, error)
	CurrentStatus(ctx context.Context, orderID int64) (domain.LocalStatus, error)
	ChangeStatus(ctx context.Context, orderID int64, status domain.LocalStatus) error
}

// SettingsStore is the runtime key-value configuration the admin edits:
// per-method allow-lists, the manual-capture toggle, checkout labels.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Update(ctx context.Context, key, value string) error
}
