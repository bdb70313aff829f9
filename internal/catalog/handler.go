package catalog

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bmarket-ims/bmarket/internal/actors"
	"github.com/bmarket-ims/bmarket/internal/platform/httpx"
	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Handler wires HTTP endpoints for the catalog.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers catalog routes. Reads are open to every
// authenticated role; writes are admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.With(actors.RequireRole()).Post("/", h.handleCreate)
	r.With(actors.RequireRole()).Put("/{id}", h.handleUpdate)
}

type itemRequest struct {
	Name         string `json:"name" validate:"required"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Category     string `json:"category"`
	Price        string `json:"price" validate:"required"`
	InitialStock int64  `json:"initial_stock" validate:"gte=0"`
}

type itemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand,omitempty"`
	Model     string    `json:"model,omitempty"`
	Category  string    `json:"category,omitempty"`
	Price     string    `json:"price"`
	StockQty  int64     `json:"stock_qty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toItemResponse(item Item) itemResponse {
	return itemResponse{
		ID:        item.ID.String(),
		Name:      item.Name,
		Brand:     item.Brand,
		Model:     item.Model,
		Category:  item.Category,
		Price:     item.Price.String(),
		StockQty:  item.StockQty,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	items, total, err := h.service.List(r.Context(), ListFilters{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      out,
		"total":      total,
		"pagination": shared.NewPagination(offset/limit+1, limit, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(*item))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid price")
		return
	}
	item, err := h.service.Create(r.Context(), CreateItemInput{
		Name:         req.Name,
		Brand:        req.Brand,
		Model:        req.Model,
		Category:     req.Category,
		Price:        price,
		InitialStock: req.InitialStock,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		h.logger.Info("item created", slog.String("item", item.ID.String()), slog.String("actor", identity.ActorID.String()))
	}
	httpx.JSON(w, http.StatusCreated, toItemResponse(*item))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid price")
		return
	}
	item, err := h.service.Update(r.Context(), id, UpdateItemInput{
		Name:     req.Name,
		Brand:    req.Brand,
		Model:    req.Model,
		Category: req.Category,
		Price:    price,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(*item))
}
