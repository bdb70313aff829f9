package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bmarket-ims/bmarket/internal/platform/db"
	"github.com/bmarket-ims/bmarket/internal/shared"
	"github.com/bmarket-ims/bmarket/internal/stock"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool  *pgxpool.Pool
	coord *stock.Coordinator
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, coord *stock.Coordinator) *Repository {
	return &Repository{pool: pool, coord: coord}
}

type txRepo struct {
	q     dbtx
	coord *stock.Coordinator
}

// WithTx executes the callback inside a repeatable-read transaction.
// Transient storage failures are retried once before surfacing as
// ErrStorageUnavailable.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.Once(ctx, func(ctx context.Context) error {
		return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
			return fn(ctx, &txRepo{q: tx, coord: r.coord})
		})
	})
	if err != nil && db.Transient(err) {
		return fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}
	return err
}

const orderColumns = `id, kind, item_id, customer_id, distributor_id, quantity, unit_price::text, total::text,
stage, status, COALESCE(condition, ''), note, csr_id, teamlead_id, procurement_id, warehouse_id, accounting_id,
reserved, version, created_at, updated_at`

// Get loads a single order.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return getOrder(ctx, r.pool, id)
}

func (r *txRepo) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return getOrder(ctx, r.q, id)
}

func getOrder(ctx context.Context, q dbtx, id uuid.UUID) (Order, error) {
	row := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("orders: order %s: %w", id, shared.ErrNotFound)
		}
		return Order{}, err
	}
	return o, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var kind, stage, status, condition string
	var unitPrice, total string
	err := row.Scan(
		&o.ID, &kind, &o.ItemID, &o.CustomerID, &o.DistributorID, &o.Quantity, &unitPrice, &total,
		&stage, &status, &condition, &o.Note,
		&o.CSRID, &o.TeamLeadID, &o.ProcurementID, &o.WarehouseID, &o.AccountingID,
		&o.Reserved, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}
	o.Kind = Kind(kind)
	o.Stage = Stage(stage)
	o.Status = Status(status)
	o.Condition = Condition(condition)
	if o.UnitPrice, err = parseDecimal(unitPrice); err != nil {
		return Order{}, err
	}
	if o.Total, err = parseDecimal(total); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *txRepo) Insert(ctx context.Context, o Order) error {
	_, err := r.q.Exec(ctx, `INSERT INTO orders
(id, kind, item_id, customer_id, distributor_id, quantity, unit_price, total, stage, status, condition, note, csr_id, reserved, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14, $15, $16, $17)`,
		o.ID, string(o.Kind), o.ItemID, o.CustomerID, o.DistributorID, o.Quantity,
		o.UnitPrice.String(), o.Total.String(), string(o.Stage), string(o.Status), string(o.Condition), o.Note,
		o.CSRID, o.Reserved, o.Version, o.CreatedAt, o.UpdatedAt)
	return err
}

// ApplyTransition performs the optimistic compare-and-set. Exactly one
// actor column, the one owned by the acting role, is written.
func (r *txRepo) ApplyTransition(ctx context.Context, u TransitionUpdate) (bool, error) {
	col, ok := actorColumn[u.Role]
	if !ok {
		return false, fmt.Errorf("orders: role %q owns no actor column: %w", u.Role, shared.ErrForbidden)
	}
	query := fmt.Sprintf(`UPDATE orders SET
stage=$1, status=$2, condition=COALESCE(NULLIF($3, ''), condition), reserved=$4, %s=$5, updated_at=$6, version=version+1
WHERE id=$7 AND version=$8`, col)
	tag, err := r.q.Exec(ctx, query,
		string(u.Target.Stage), string(u.Target.Status), string(u.Condition), u.Reserved,
		u.ActorID, u.UpdatedAt, u.OrderID, u.ExpectedVersion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *txRepo) Delete(ctx context.Context, id uuid.UUID, expectedVersion int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id=$1 AND version=$2 AND stage='csr' AND status='pending'`, id, expectedVersion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *txRepo) ItemSnapshot(ctx context.Context, itemID uuid.UUID) (stock.Item, error) {
	return r.coord.Snapshot(ctx, r.q, itemID)
}

func (r *txRepo) ReserveStock(ctx context.Context, itemID uuid.UUID, qty int64) error {
	return r.coord.Reserve(ctx, r.q, itemID, qty)
}

func (r *txRepo) ReleaseStock(ctx context.Context, itemID uuid.UUID, qty int64) error {
	return r.coord.Release(ctx, r.q, itemID, qty)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("orders: parse numeric %q: %w", s, err)
	}
	return d, nil
}
