package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/infrastructure/persistence"
)

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Save(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO payment_ledger (
			cart_id, external_order_id, payment_method, local_order_id,
			customer_key, reference, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	`

	_, err := r.db.Exec(ctx, query,
		entry.CartID,
		entry.ExternalOrderID,
		entry.PaymentMethod,
		entry.LocalOrderID,
		entry.CustomerKey,
		entry.Reference,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return domain.NewDuplicateCartError(entry.CartID)
		}
		return fmt.Errorf("failed to save ledger entry: %w", err)
	}

	return nil
}

func (r *LedgerRepository) GetByCartID(ctx context.Context, cartID int64) (*domain.LedgerEntry, error) {
	row := r.db.QueryRow(ctx, selectLedger+` WHERE cart_id = $1`, cartID)
	return scanLedgerEntry(row, "cart "+strconv.FormatInt(cartID, 10))
}

func (r *LedgerRepository) GetByOrderID(ctx context.Context, localOrderID int64) (*domain.LedgerEntry, error) {
	row := r.db.QueryRow(ctx, selectLedger+` WHERE local_order_id = $1`, localOrderID)
	return scanLedgerEntry(row, "order "+strconv.FormatInt(localOrderID, 10))
}

func (r *LedgerRepository) GetByExternalOrderID(ctx context.Context, externalOrderID string) (*domain.LedgerEntry, error) {
	row := r.db.QueryRow(ctx, selectLedger+` WHERE external_order_id = $1`, externalOrderID)
	return scanLedgerEntry(row, "external order "+externalOrderID)
}

func (r *LedgerRepository) UpdateLocalOrderID(ctx context.Context, cartID, localOrderID int64) error {
	query := `
		UPDATE payment_ledger
		SET local_order_id = $1, updated_at = now()
		WHERE cart_id = $2
	`

	tag, err := r.db.Exec(ctx, query, localOrderID, cartID)
	if err != nil {
		return fmt.Errorf("failed to bind local order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewLedgerNotFoundError("cart " + strconv.FormatInt(cartID, 10))
	}

	return nil
}

const selectLedger = `
	SELECT cart_id, external_order_id, payment_method, local_order_id,
	       customer_key, reference, created_at, updated_at
	FROM payment_ledger
`

func scanLedgerEntry(row pgx.Row, key string) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(
		&e.CartID, &e.ExternalOrderID, &e.PaymentMethod, &e.LocalOrderID,
		&e.CustomerKey, &e.Reference, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewLedgerNotFoundError(key)
		}
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}
	return &e, nil
}
