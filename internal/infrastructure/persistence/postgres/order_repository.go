package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nopayn/psp-bridge/internal/core/domain"
)

// OrderRepository backs the narrow store-order view with two tables:
// store_orders holds the current state, order_status_history gets an
// append-only row for every status change.
type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, cart *domain.Cart, amountCents int64, method string) (int64, error) {
	query := `
		INSERT INTO store_orders (cart_id, amount_cents, currency, payment_method, status, lines, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		cart.ID,
		amountCents,
		cart.Currency,
		method,
		domain.LocalPreparation,
		cart.Lines,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create store order: %w", err)
	}

	return id, nil
}

func (r *OrderRepository) FindOrder(ctx context.Context, orderID int64) (*domain.StoreOrder, error) {
	query := `
		SELECT id, cart_id, amount_cents, currency, lines
		FROM store_orders WHERE id = $1
	`

	var o domain.StoreOrder
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&o.ID, &o.CartID, &o.AmountCents, &o.Currency, &o.Lines,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewOrderNotFoundError(orderID)
		}
		return nil, fmt.Errorf("failed to scan store order: %w", err)
	}

	return &o, nil
}

func (r *OrderRepository) CurrentStatus(ctx context.Context, orderID int64) (domain.LocalStatus, error) {
	var status domain.LocalStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM store_orders WHERE id = $1`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.NewOrderNotFoundError(orderID)
		}
		return "", fmt.Errorf("failed to read order status: %w", err)
	}
	return status, nil
}

// ChangeStatus updates the current status and appends a history row in one
// transaction.
func (r *OrderRepository) ChangeStatus(ctx context.Context, orderID int64, status domain.LocalStatus) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE store_orders SET status = $1 WHERE id = $2`,
		status, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewOrderNotFoundError(orderID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO order_status_history (order_id, status, created_at) VALUES ($1, $2, now())`,
		orderID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return tx.Commit(ctx)
}
