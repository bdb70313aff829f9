package actors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bmarket-ims/bmarket/internal/platform/httpx"
	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Handler wires HTTP endpoints for identity flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	secret    string
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, secret string) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		secret:    secret,
		validator: validator.New(),
	}
}

// MountRoutes registers identity routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.handleSignUp)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.secret))
		r.Get("/me", h.handleMe)
		r.With(RequireRole()).Get("/employees", h.handleList)
	})
}

type signUpRequest struct {
	Role     string `json:"role" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type employeeResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toEmployeeResponse(emp Employee) employeeResponse {
	return employeeResponse{
		ID:        emp.ID.String(),
		Role:      string(emp.Role),
		FullName:  emp.FullName,
		Email:     emp.Email,
		CreatedAt: emp.CreatedAt,
	}
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	emp, err := h.service.SignUp(r.Context(), SignUpInput{
		Role:     shared.Role(req.Role),
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEmployeeResponse(*emp))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	token, emp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("login", slog.String("actor", emp.ID.String()), slog.String("role", string(emp.Role)))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"token":    token,
		"employee": toEmployeeResponse(*emp),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	emp, err := h.service.Get(r.Context(), identity.ActorID.String())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEmployeeResponse(*emp))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]employeeResponse, 0, len(employees))
	for _, emp := range employees {
		out = append(out, toEmployeeResponse(emp))
	}
	httpx.JSON(w, http.StatusOK, out)
}
