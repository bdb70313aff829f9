// Package stock owns every mutation of item stock quantities. No other
// component writes items.stock_qty.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Item is the slice of the catalog the coordinator cares about.
type Item struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	StockQty int64
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so reservations can
// join an order-store transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Coordinator keeps stock_qty consistent under concurrent reservations.
// Every mutation is a single conditional read-modify-write statement;
// there is no window between check and subtract.
type Coordinator struct {
	allowNegative bool
}

// NewCoordinator constructs Coordinator. With allowNegative set the
// insufficient-stock guard is skipped and reservations may oversubscribe;
// intended for backfill environments only.
func NewCoordinator(allowNegative bool) *Coordinator {
	return &Coordinator{allowNegative: allowNegative}
}

// Snapshot reads the item row, including the price captured onto new orders.
func (c *Coordinator) Snapshot(ctx context.Context, q DBTX, itemID uuid.UUID) (Item, error) {
	var it Item
	var price string
	err := q.QueryRow(ctx, `SELECT id, name, price::text, stock_qty FROM items WHERE id=$1`, itemID).
		Scan(&it.ID, &it.Name, &price, &it.StockQty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("stock: item %s: %w", itemID, shared.ErrNotFound)
		}
		return Item{}, err
	}
	it.Price, err = decimal.NewFromString(price)
	if err != nil {
		return Item{}, fmt.Errorf("stock: parse price: %w", err)
	}
	return it, nil
}

// Reserve atomically subtracts qty from the item's stock. The guard in
// the WHERE clause means stock never goes negative: zero rows affected
// is either insufficient stock or a missing item.
func (c *Coordinator) Reserve(ctx context.Context, q DBTX, itemID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("stock: quantity must be positive: %w", shared.ErrValidation)
	}
	query := `UPDATE items SET stock_qty = stock_qty - $2, updated_at = NOW() WHERE id = $1 AND stock_qty >= $2`
	if c.allowNegative {
		query = `UPDATE items SET stock_qty = stock_qty - $2, updated_at = NOW() WHERE id = $1`
	}
	tag, err := q.Exec(ctx, query, itemID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT true FROM items WHERE id=$1`, itemID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("stock: item %s: %w", itemID, shared.ErrNotFound)
		}
		return err
	}
	return fmt.Errorf("stock: item %s: %w", itemID, shared.ErrInsufficientStock)
}

// Release atomically adds qty back after a denial or deletion.
func (c *Coordinator) Release(ctx context.Context, q DBTX, itemID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("stock: quantity must be positive: %w", shared.ErrValidation)
	}
	tag, err := q.Exec(ctx, `UPDATE items SET stock_qty = stock_qty + $2, updated_at = NOW() WHERE id = $1`, itemID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("stock: item %s: %w", itemID, shared.ErrNotFound)
	}
	return nil
}
