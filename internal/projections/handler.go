package projections

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bmarket-ims/bmarket/internal/platform/httpx"
	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Handler wires HTTP endpoints for read-side views.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers view routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.handleList)
	r.Get("/orders/export", h.handleExport)
}

func parseListRequest(r *http.Request) ListRequest {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	req := ListRequest{
		Stage:   q.Get("stage"),
		Status:  q.Get("status"),
		Kind:    q.Get("kind"),
		ActorID: q.Get("actor_id"),
		Limit:   limit,
		Offset:  offset,
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			req.DateFrom = &t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			end := t.AddDate(0, 0, 1)
			req.DateTo = &end
		}
	}
	return req
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	result, err := h.service.List(r.Context(), identity.Role, parseListRequest(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if result.Orders == nil {
		result.Orders = []OrderRow{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	locale := r.URL.Query().Get("locale")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)
	if err := h.service.ExportCSV(r.Context(), w, identity.Role, parseListRequest(r), locale); err != nil {
		h.logger.Error("export orders", slog.Any("error", err))
	}
}
