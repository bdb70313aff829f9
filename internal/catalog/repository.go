package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// RepositoryPort defines data access methods for catalog items.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Item, int, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	Create(ctx context.Context, item Item) error
	Update(ctx context.Context, item Item) error
}

// Repository implements RepositoryPort backed by postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, name, brand, model, category, price::text, stock_qty, created_at, updated_at`

func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	var conds []string
	var args []any
	if filters.Search != "" {
		args = append(args, "%"+strings.ToLower(filters.Search)+"%")
		conds = append(conds, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(brand) LIKE $%d OR LOWER(model) LIKE $%d)", len(args), len(args), len(args)))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM items"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filters.Offset)
	query := fmt.Sprintf("SELECT %s FROM items%s ORDER BY name LIMIT $%d OFFSET $%d", itemColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+itemColumns+" FROM items WHERE id = $1", id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("catalog: item %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

func (r *Repository) Create(ctx context.Context, item Item) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO items (id, name, brand, model, category, price, stock_qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, item.ID, item.Name, item.Brand, item.Model, item.Category, item.Price.String(), item.StockQty, item.CreatedAt, item.UpdatedAt)
	return err
}

// Update writes item metadata and price. stock_qty is deliberately
// absent from the statement.
func (r *Repository) Update(ctx context.Context, item Item) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE items SET name=$2, brand=$3, model=$4, category=$5, price=$6, updated_at=$7
		WHERE id=$1
	`, item.ID, item.Name, item.Brand, item.Model, item.Category, item.Price.String(), item.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: item %s: %w", item.ID, shared.ErrNotFound)
	}
	return nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	var price string
	if err := row.Scan(&item.ID, &item.Name, &item.Brand, &item.Model, &item.Category, &price, &item.StockQty, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse price: %w", err)
	}
	item.Price = parsed
	return &item, nil
}
