package actors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// RepositoryPort defines data access methods for employees.
type RepositoryPort interface {
	Create(ctx context.Context, emp Employee) error
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context) ([]Employee, error)
}

// Repository implements RepositoryPort backed by postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const employeeColumns = `id, role, full_name, email, password_hash, created_at`

func (r *Repository) Create(ctx context.Context, emp Employee) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO employees (id, role, full_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, emp.ID, string(emp.Role), emp.FullName, emp.Email, emp.PasswordHash, emp.CreatedAt)
	return err
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = $1`, email)
	return scanEmployee(row)
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return scanEmployee(row)
}

func (r *Repository) List(ctx context.Context) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var emp Employee
		var role string
		if err := rows.Scan(&emp.ID, &role, &emp.FullName, &emp.Email, &emp.PasswordHash, &emp.CreatedAt); err != nil {
			return nil, err
		}
		emp.Role = shared.Role(role)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	var role string
	if err := row.Scan(&emp.ID, &role, &emp.FullName, &emp.Email, &emp.PasswordHash, &emp.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	emp.Role = shared.Role(role)
	return &emp, nil
}
