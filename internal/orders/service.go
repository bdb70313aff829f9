package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bmarket-ims/bmarket/internal/shared"
	"github.com/bmarket-ims/bmarket/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (Order, error)
}

// TransitionUpdate is the compare-and-set applied for one transition.
// ExpectedVersion linearizes concurrent writers: the first commit wins,
// later ones match zero rows.
type TransitionUpdate struct {
	OrderID         uuid.UUID
	ExpectedVersion int64
	Target          State
	Role            shared.Role
	ActorID         uuid.UUID
	Condition       Condition
	Reserved        bool
	UpdatedAt       time.Time
}

// TxRepository exposes transactional operations used by the service.
// Stock operations ride the same transaction so an order mutation and
// its stock mutation commit or abort together.
type TxRepository interface {
	Insert(ctx context.Context, o Order) error
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	ApplyTransition(ctx context.Context, u TransitionUpdate) (bool, error)
	Delete(ctx context.Context, id uuid.UUID, expectedVersion int64) (bool, error)
	ItemSnapshot(ctx context.Context, itemID uuid.UUID) (stock.Item, error)
	ReserveStock(ctx context.Context, itemID uuid.UUID, qty int64) error
	ReleaseStock(ctx context.Context, itemID uuid.UUID, qty int64) error
}

// HistoryPort records accepted transitions.
type HistoryPort interface {
	Record(ctx context.Context, log shared.TransitionLog) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// InvalidatorPort lets the read side drop cached listings after a write.
type InvalidatorPort interface {
	Invalidate(ctx context.Context) error
}

// MetricsPort receives lifecycle counters. A nil port is a no-op.
type MetricsPort interface {
	ObserveTransition(stage, status string)
	ObserveReservationFailure()
}

// Service is the order store: the single writer of lifecycle state.
type Service struct {
	repo        RepositoryPort
	history     HistoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	invalidator InvalidatorPort
	metrics     MetricsPort
}

// NewService constructs the order store.
func NewService(repo RepositoryPort, history HistoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, history: history, audit: audit, idempotency: idem}
}

// WithInvalidator attaches a read-side cache invalidator. Invalidation
// is best effort and never fails a write.
func (s *Service) WithInvalidator(inv InvalidatorPort) *Service {
	s.invalidator = inv
	return s
}

// WithMetrics attaches lifecycle counters.
func (s *Service) WithMetrics(m MetricsPort) *Service {
	s.metrics = m
	return s
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	_ = s.invalidator.Invalidate(ctx)
}

func (s *Service) observeTransition(target State) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveTransition(string(target.Stage), string(target.Status))
}

func (s *Service) observeReservationFailure(err error) {
	if s.metrics == nil || !errors.Is(err, shared.ErrInsufficientStock) {
		return
	}
	s.metrics.ObserveReservationFailure()
}

// CreateOrderInput describes the creation payload.
type CreateOrderInput struct {
	Kind           Kind
	ItemID         uuid.UUID
	Quantity       int64
	CustomerID     *uuid.UUID
	DistributorID  *uuid.UUID
	ActorID        uuid.UUID
	Note           string
	IdempotencyKey string
}

// CreateOrder opens an order in csr/pending and reserves stock for it
// in the same transaction. Either both halves commit or neither does.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if input.Quantity <= 0 {
		return Order{}, fmt.Errorf("orders: quantity must be positive: %w", shared.ErrValidation)
	}
	switch input.Kind {
	case KindSale:
		if input.CustomerID == nil {
			return Order{}, fmt.Errorf("orders: sale requires a customer: %w", shared.ErrValidation)
		}
	case KindPurchase:
		if input.DistributorID == nil {
			return Order{}, fmt.Errorf("orders: purchase requires a distributor: %w", shared.ErrValidation)
		}
	default:
		return Order{}, fmt.Errorf("orders: unknown kind %q: %w", input.Kind, shared.ErrValidation)
	}
	if input.ItemID == uuid.Nil {
		return Order{}, fmt.Errorf("orders: item required: %w", shared.ErrValidation)
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "orders.create"); err != nil {
			return Order{}, err
		}
		insertedKey = true
	}

	now := time.Now().UTC()
	actorID := input.ActorID
	order := Order{
		ID:            uuid.New(),
		Kind:          input.Kind,
		ItemID:        input.ItemID,
		CustomerID:    input.CustomerID,
		DistributorID: input.DistributorID,
		Quantity:      input.Quantity,
		Stage:         StageCSR,
		Status:        StatusPending,
		Note:          input.Note,
		CSRID:         &actorID,
		Reserved:      true,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.ItemSnapshot(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if err := tx.ReserveStock(ctx, input.ItemID, input.Quantity); err != nil {
			return err
		}
		order.UnitPrice = item.Price
		order.Total = item.Price.Mul(decimal.NewFromInt(input.Quantity))
		return tx.Insert(ctx, order)
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		s.observeReservationFailure(err)
		return Order{}, err
	}
	s.recordAudit(ctx, input.ActorID, "ORDER_CREATE", order.ID, map[string]any{
		"kind": string(order.Kind), "item_id": order.ItemID.String(), "quantity": order.Quantity,
	})
	s.invalidate(ctx)
	return order, nil
}

// TransitionInput describes a proposed stage/status change.
type TransitionInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	Role      shared.Role
	Target    State
	Condition Condition
	Note      string
}

// ProposeTransition validates and applies one lifecycle move. A lost
// compare-and-set race surfaces as ErrConcurrentModification; the
// caller must re-fetch before retrying.
func (s *Service) ProposeTransition(ctx context.Context, input TransitionInput) (Order, error) {
	if !input.Role.Valid() {
		return Order{}, fmt.Errorf("orders: unknown role %q: %w", input.Role, shared.ErrForbidden)
	}
	order, err := s.repo.Get(ctx, input.OrderID)
	if err != nil {
		return Order{}, err
	}
	current := order.State()
	if err := Validate(current, input.Role, input.Target); err != nil {
		return Order{}, err
	}

	releasing := input.Target.Status == StatusDenied && order.Reserved
	// A denial reset re-enters the pipeline, so the correction must win
	// its stock back; it can fail with ErrInsufficientStock.
	rereserving := current == State{StageCSR, StatusDenied} && input.Target == State{StageCSR, StatusPending} && !order.Reserved

	now := time.Now().UTC()
	update := TransitionUpdate{
		OrderID:         order.ID,
		ExpectedVersion: order.Version,
		Target:          input.Target,
		Role:            input.Role,
		ActorID:         input.ActorID,
		Condition:       input.Condition,
		Reserved:        (order.Reserved && !releasing) || rereserving,
		UpdatedAt:       now,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if releasing {
			if err := tx.ReleaseStock(ctx, order.ItemID, order.Quantity); err != nil {
				return err
			}
		}
		if rereserving {
			if err := tx.ReserveStock(ctx, order.ItemID, order.Quantity); err != nil {
				return err
			}
		}
		ok, err := tx.ApplyTransition(ctx, update)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("orders: order %s version %d: %w", order.ID, order.Version, shared.ErrConcurrentModification)
		}
		return nil
	})
	if err != nil {
		s.observeReservationFailure(err)
		return Order{}, err
	}

	s.observeTransition(input.Target)
	s.recordHistory(ctx, order, input, now)
	s.recordAudit(ctx, input.ActorID, "ORDER_TRANSITION", order.ID, map[string]any{
		"from": current.String(), "to": input.Target.String(), "role": string(input.Role),
	})
	s.invalidate(ctx)

	order.Stage = input.Target.Stage
	order.Status = input.Target.Status
	if input.Condition != "" {
		order.Condition = input.Condition
	}
	order.Reserved = update.Reserved
	order.Version++
	order.UpdatedAt = now
	assignActor(&order, input.Role, input.ActorID)
	return order, nil
}

// DenyOrder is the shortcut transition to denied at the current stage.
// It releases the order's reservation.
func (s *Service) DenyOrder(ctx context.Context, orderID, actorID uuid.UUID, role shared.Role, note string) (Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	return s.ProposeTransition(ctx, TransitionInput{
		OrderID: orderID,
		ActorID: actorID,
		Role:    role,
		Target:  State{Stage: order.Stage, Status: StatusDenied},
		Note:    note,
	})
}

// MarkCondition records the warehouse's verdict on the goods. Good
// completes the warehouse stage; spoiled or damaged denies the order
// and returns its stock.
func (s *Service) MarkCondition(ctx context.Context, orderID, actorID uuid.UUID, condition Condition) (Order, error) {
	target := State{Stage: StageWarehouse, Status: StatusCompleted}
	switch condition {
	case ConditionGood:
	case ConditionSpoiled, ConditionDamaged:
		target.Status = StatusDenied
	default:
		return Order{}, fmt.Errorf("orders: unknown condition %q: %w", condition, shared.ErrValidation)
	}
	return s.ProposeTransition(ctx, TransitionInput{
		OrderID:   orderID,
		ActorID:   actorID,
		Role:      shared.RoleWarehouse,
		Target:    target,
		Condition: condition,
	})
}

// DeleteOrder hard-removes an erroneous entry. Only a csr/pending order
// may be deleted; its reservation is returned.
func (s *Service) DeleteOrder(ctx context.Context, orderID, actorID uuid.UUID) error {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Stage != StageCSR || order.Status != StatusPending {
		return fmt.Errorf("orders: only csr/pending orders may be deleted, got %s: %w", order.State(), shared.ErrValidation)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if order.Reserved {
			if err := tx.ReleaseStock(ctx, order.ItemID, order.Quantity); err != nil {
				return err
			}
		}
		ok, err := tx.Delete(ctx, order.ID, order.Version)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("orders: order %s version %d: %w", order.ID, order.Version, shared.ErrConcurrentModification)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "ORDER_DELETE", order.ID, map[string]any{"quantity": order.Quantity})
	s.invalidate(ctx)
	return nil
}

// Get loads a single order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) recordHistory(ctx context.Context, before Order, input TransitionInput, at time.Time) {
	if s.history == nil {
		return
	}
	_ = s.history.Record(ctx, shared.TransitionLog{
		OrderID:    before.ID,
		ActorID:    input.ActorID,
		Role:       input.Role,
		FromStage:  string(before.Stage),
		FromStatus: string(before.Status),
		ToStage:    string(input.Target.Stage),
		ToStatus:   string(input.Target.Status),
		Note:       input.Note,
		At:         at,
	})
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, orderID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "order", EntityID: orderID.String(), Meta: meta})
}

func assignActor(o *Order, role shared.Role, actorID uuid.UUID) {
	id := actorID
	switch role {
	case shared.RoleCSR:
		o.CSRID = &id
	case shared.RoleTeamLead:
		o.TeamLeadID = &id
	case shared.RoleProcurement:
		o.ProcurementID = &id
	case shared.RoleWarehouse:
		o.WarehouseID = &id
	case shared.RoleAccounting:
		o.AccountingID = &id
	}
}
