package expense

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/platform/httpx"
	"github.com/cybercaja/cybercaja/internal/shared"
)

// Handler exposes expense endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers expense routes. Creation is limited to the
// roles admitted by writers; deletion carries an extra admin guard.
func (h *Handler) MountRoutes(r chi.Router, writers, adminOnly func(http.Handler) http.Handler) {
	r.Get("/", h.listByDate)
	if writers != nil {
		r.With(writers).Post("/", h.create)
	} else {
		r.Post("/", h.create)
	}
	r.Group(func(r chi.Router) {
		if adminOnly != nil {
			r.Use(adminOnly)
		}
		r.Delete("/{id}", h.delete)
	})
}

type createExpenseRequest struct {
	Category    string  `json:"category" validate:"required"`
	Beneficiary string  `json:"beneficiary" validate:"max=200"`
	Description string  `json:"description" validate:"max=500"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Date        string  `json:"date" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := bizdate.Parse(req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}

	ac, _ := shared.AuthFromContext(r.Context())
	exp, err := h.service.Create(r.Context(), Input{
		Category:    Category(req.Category),
		Beneficiary: req.Beneficiary,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		CreatedBy:   ac.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exp)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	exp, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exp)
}

func (h *Handler) listByDate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		raw = bizdate.Today().String()
	}
	date, err := bizdate.Parse(raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	expenses, err := h.service.ByDate(r.Context(), date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	httpx.JSON(w, http.StatusOK, expenses)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "expense not found")
	default:
		h.logger.Error("expense request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
