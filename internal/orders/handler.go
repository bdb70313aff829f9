package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bmarket-ims/bmarket/internal/actors"
	"github.com/bmarket-ims/bmarket/internal/platform/httpx"
	"github.com/bmarket-ims/bmarket/internal/shared"
)

// HistoryLister reads back the transition history for an order.
type HistoryLister interface {
	List(ctx context.Context, orderID uuid.UUID) ([]shared.TransitionLog, error)
}

// Handler wires HTTP endpoints for the order lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	history   HistoryLister
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, history HistoryLister) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		history:   history,
		validator: validator.New(),
	}
}

// MountRoutes registers order routes on the provided router. The caller
// is expected to have installed the authentication middleware already.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(actors.RequireRole(shared.RoleCSR)).Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/targets", h.handleTargets)
	r.Get("/{id}/history", h.handleHistory)
	r.Post("/{id}/transition", h.handleTransition)
	r.Post("/{id}/deny", h.handleDeny)
	r.With(actors.RequireRole(shared.RoleWarehouse)).Post("/{id}/condition", h.handleCondition)
	r.With(actors.RequireRole(shared.RoleCSR)).Delete("/{id}", h.handleDelete)
}

type createOrderRequest struct {
	Kind          string `json:"kind" validate:"required,oneof=sale purchase"`
	ItemID        string `json:"item_id" validate:"required,uuid"`
	Quantity      int64  `json:"quantity" validate:"required,gt=0"`
	CustomerID    string `json:"customer_id" validate:"omitempty,uuid"`
	DistributorID string `json:"distributor_id" validate:"omitempty,uuid"`
	Note          string `json:"note"`
}

type transitionRequest struct {
	Stage  string `json:"stage" validate:"required"`
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

type denyRequest struct {
	Note string `json:"note"`
}

type conditionRequest struct {
	Condition string `json:"condition" validate:"required,oneof=good spoiled damaged"`
}

type orderResponse struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	ItemID        string     `json:"item_id"`
	CustomerID    *string    `json:"customer_id,omitempty"`
	DistributorID *string    `json:"distributor_id,omitempty"`
	Quantity      int64      `json:"quantity"`
	UnitPrice     string     `json:"unit_price"`
	Total         string     `json:"total"`
	Stage         string     `json:"stage"`
	Status        string     `json:"status"`
	Condition     string     `json:"condition,omitempty"`
	Note          string     `json:"note,omitempty"`
	Reserved      bool       `json:"reserved"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CSRID         *string    `json:"csr_id,omitempty"`
	TeamLeadID    *string    `json:"teamlead_id,omitempty"`
	ProcurementID *string    `json:"procurement_id,omitempty"`
	WarehouseID   *string    `json:"warehouse_id,omitempty"`
	AccountingID  *string    `json:"accounting_id,omitempty"`
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toOrderResponse(o Order) orderResponse {
	return orderResponse{
		ID:            o.ID.String(),
		Kind:          string(o.Kind),
		ItemID:        o.ItemID.String(),
		CustomerID:    uuidString(o.CustomerID),
		DistributorID: uuidString(o.DistributorID),
		Quantity:      o.Quantity,
		UnitPrice:     o.UnitPrice.String(),
		Total:         o.Total.String(),
		Stage:         string(o.Stage),
		Status:        string(o.Status),
		Condition:     string(o.Condition),
		Note:          o.Note,
		Reserved:      o.Reserved,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		CSRID:         uuidString(o.CSRID),
		TeamLeadID:    uuidString(o.TeamLeadID),
		ProcurementID: uuidString(o.ProcurementID),
		WarehouseID:   uuidString(o.WarehouseID),
		AccountingID:  uuidString(o.AccountingID),
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateOrderInput{
		Kind:           Kind(req.Kind),
		Quantity:       req.Quantity,
		ActorID:        identity.ActorID,
		Note:           req.Note,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item_id")
		return
	}
	input.ItemID = itemID
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer_id")
			return
		}
		input.CustomerID = &id
	}
	if req.DistributorID != "" {
		id, err := uuid.Parse(req.DistributorID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid distributor_id")
			return
		}
		input.DistributorID = &id
	}

	order, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("order created",
		slog.String("order", order.ID.String()),
		slog.String("kind", string(order.Kind)),
		slog.Int64("quantity", order.Quantity))
	httpx.JSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleTargets(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"current": order.State(),
		"targets": AllowedTargets(order.State(), identity.Role),
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	logs, err := h.history.List(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	type entry struct {
		ActorID string    `json:"actor_id"`
		Role    string    `json:"role"`
		From    string    `json:"from"`
		To      string    `json:"to"`
		Note    string    `json:"note,omitempty"`
		At      time.Time `json:"at"`
	}
	out := make([]entry, 0, len(logs))
	for _, l := range logs {
		out = append(out, entry{
			ActorID: l.ActorID.String(),
			Role:    string(l.Role),
			From:    l.FromStage + "/" + l.FromStatus,
			To:      l.ToStage + "/" + l.ToStatus,
			Note:    l.Note,
			At:      l.At,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.ProposeTransition(r.Context(), TransitionInput{
		OrderID: id,
		ActorID: identity.ActorID,
		Role:    identity.Role,
		Target:  State{Stage: Stage(req.Stage), Status: Status(req.Status)},
		Note:    req.Note,
	})
	if err != nil {
		respondTransitionError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

// respondTransitionError surfaces the allowed targets alongside an
// illegal-transition rejection so clients can correct without a second
// round trip.
func respondTransitionError(w http.ResponseWriter, err error) {
	var illegal *IllegalTransitionError
	if errors.As(err, &illegal) {
		httpx.ProblemWith(w, http.StatusUnprocessableEntity, "Illegal Transition", err.Error(), map[string]any{
			"allowed": illegal.Allowed,
		})
		return
	}
	httpx.RespondError(w, err)
}

func (h *Handler) handleDeny(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req denyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	order, err := h.service.DenyOrder(r.Context(), id, identity.ActorID, identity.Role, req.Note)
	if err != nil {
		respondTransitionError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleCondition(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req conditionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.MarkCondition(r.Context(), id, identity.ActorID, Condition(req.Condition))
	if err != nil {
		respondTransitionError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteOrder(r.Context(), id, identity.ActorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return uuid.Nil, false
	}
	return id, true
}
