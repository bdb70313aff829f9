// Package projections is the read side of the order pipeline: filtered
// listings, role-scoped views and exports. It never mutates orders.
package projections

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// OrderRow is the denormalised listing row, joined with the item.
type OrderRow struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	ItemID     string    `json:"item_id"`
	ItemName   string    `json:"item_name"`
	Quantity   int64     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	Total      string    `json:"total"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	Condition  string    `json:"condition,omitempty"`
	Reserved   bool      `json:"reserved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListRequest narrows an order listing.
type ListRequest struct {
	Stage    string
	Status   string
	Kind     string
	ActorID  string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int

	// visibleStages is filled from the caller's role, never from input.
	visibleStages []string
}

// visibleStages maps each role to the pipeline stages its work queue
// covers. Admin sees everything.
var visibleStages = map[shared.Role][]string{
	shared.RoleCSR:         {"csr"},
	shared.RoleTeamLead:    {"csr"},
	shared.RoleProcurement: {"csr", "procurement"},
	shared.RoleWarehouse:   {"warehouse"},
	shared.RoleAccounting:  {"warehouse", "accounting"},
}

// Scope restricts the request to the stages the role may see.
func (r *ListRequest) Scope(role shared.Role) {
	if role == shared.RoleAdmin {
		r.visibleStages = nil
		return
	}
	r.visibleStages = visibleStages[role]
}

// RepositoryPort defines the read-side queries.
type RepositoryPort interface {
	List(ctx context.Context, req ListRequest) ([]OrderRow, int, error)
}

// Repository implements RepositoryPort backed by postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context, req ListRequest) ([]OrderRow, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if len(req.visibleStages) > 0 {
		placeholders := make([]string, len(req.visibleStages))
		for i, stage := range req.visibleStages {
			placeholders[i] = fmt.Sprintf("$%d", argPos)
			args = append(args, stage)
			argPos++
		}
		conditions = append(conditions, fmt.Sprintf("o.stage IN (%s)", strings.Join(placeholders, ", ")))
	}
	if req.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("o.stage = $%d", argPos))
		args = append(args, req.Stage)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("o.kind = $%d", argPos))
		args = append(args, req.Kind)
		argPos++
	}
	if req.ActorID != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(o.csr_id = $%d OR o.teamlead_id = $%d OR o.procurement_id = $%d OR o.warehouse_id = $%d OR o.accounting_id = $%d)",
			argPos, argPos, argPos, argPos, argPos))
		args = append(args, req.ActorID)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at < $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders o %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT o.id, o.kind, o.item_id, i.name, o.quantity,
		       o.unit_price::text, o.total::text, o.stage, o.status,
		       COALESCE(o.condition, ''), o.reserved, o.created_at, o.updated_at
		FROM orders o
		JOIN items i ON i.id = o.item_id
		%s
		ORDER BY o.created_at DESC, o.id
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []OrderRow
	for rows.Next() {
		var row OrderRow
		if err := rows.Scan(&row.ID, &row.Kind, &row.ItemID, &row.ItemName, &row.Quantity,
			&row.UnitPrice, &row.Total, &row.Stage, &row.Status,
			&row.Condition, &row.Reserved, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, row)
	}
	return result, total, rows.Err()
}
