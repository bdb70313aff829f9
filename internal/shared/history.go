package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransitionLog is one accepted lifecycle step of an order.
type TransitionLog struct {
	ID         int64
	OrderID    uuid.UUID
	ActorID    uuid.UUID
	Role       Role
	FromStage  string
	FromStatus string
	ToStage    string
	ToStatus   string
	Note       string
	At         time.Time
}

// TransitionRecorder persists the per-order transition history.
type TransitionRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTransitionRecorder constructs TransitionRecorder.
func NewTransitionRecorder(pool *pgxpool.Pool, logger *slog.Logger) *TransitionRecorder {
	return &TransitionRecorder{pool: pool, logger: logger}
}

// Record writes a transition entry to the database.
func (r *TransitionRecorder) Record(ctx context.Context, log TransitionLog) error {
	if r == nil {
		return errors.New("transition recorder not initialised")
	}
	if log.OrderID == uuid.Nil {
		return errors.New("transition order id required")
	}
	if log.ActorID == uuid.Nil {
		return errors.New("transition actor required")
	}
	if log.At.IsZero() {
		log.At = time.Now()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO order_transitions (order_id, actor_id, role, from_stage, from_status, to_stage, to_status, note, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.OrderID, log.ActorID, string(log.Role), log.FromStage, log.FromStatus, log.ToStage, log.ToStatus, log.Note, log.At)
	if err != nil {
		r.logger.Error("record transition", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns the transition history for an order, oldest first.
func (r *TransitionRecorder) List(ctx context.Context, orderID uuid.UUID) ([]TransitionLog, error) {
	if r == nil {
		return nil, errors.New("transition recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, actor_id, role, from_stage, from_status, to_stage, to_status, note, at
FROM order_transitions WHERE order_id=$1 ORDER BY at ASC, id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []TransitionLog
	for rows.Next() {
		var l TransitionLog
		var role string
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ActorID, &role, &l.FromStage, &l.FromStatus, &l.ToStage, &l.ToStatus, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Role = Role(role)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
