package stock

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bmarket-ims/bmarket/internal/platform/db"
)

// staleReservation is a denied order still flagged as holding stock.
// The order store releases inside the same transaction, so these only
// appear after manual data surgery or a partial restore.
type staleReservation struct {
	OrderID  uuid.UUID
	ItemID   uuid.UUID
	Quantity int64
}

// Reconciler is the safety net behind the coordinator: it re-applies
// releases that the normal write path would have performed.
type Reconciler struct {
	pool   *pgxpool.Pool
	coord  *Coordinator
	logger *slog.Logger
}

// NewReconciler constructs Reconciler.
func NewReconciler(pool *pgxpool.Pool, coord *Coordinator, logger *slog.Logger) *Reconciler {
	return &Reconciler{pool: pool, coord: coord, logger: logger}
}

// Run releases stock held by denied orders and reports how many rows it
// repaired.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, item_id, quantity FROM orders WHERE status='denied' AND reserved`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var stale []staleReservation
	for rows.Next() {
		var s staleReservation
		if err := rows.Scan(&s.OrderID, &s.ItemID, &s.Quantity); err != nil {
			return 0, err
		}
		stale = append(stale, s)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	repaired := 0
	for _, s := range stale {
		released := false
		err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `UPDATE orders SET reserved=false, updated_at=NOW() WHERE id=$1 AND reserved`, s.OrderID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				// Another pass got here first.
				return nil
			}
			released = true
			return r.coord.Release(ctx, tx, s.ItemID, s.Quantity)
		})
		if err != nil {
			r.logger.Error("reconcile reservation", slog.String("order_id", s.OrderID.String()), slog.Any("error", err))
			continue
		}
		if released {
			repaired++
		}
	}
	return repaired, nil
}
