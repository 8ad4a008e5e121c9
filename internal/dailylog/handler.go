package dailylog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/platform/httpx"
	"github.com/cybercaja/cybercaja/internal/shared"
)

// Handler exposes daily log endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers daily log routes. Creation is limited to the
// roles admitted by the writers middleware.
func (h *Handler) MountRoutes(r chi.Router, writers func(http.Handler) http.Handler) {
	r.Get("/", h.listByDate)
	if writers != nil {
		r.With(writers).Post("/", h.create)
	} else {
		r.Post("/", h.create)
	}
}

type createLogRequest struct {
	Date             string  `json:"date" validate:"required"`
	CashIncome       float64 `json:"cash_income" validate:"gte=0"`
	YapeIncome       float64 `json:"yape_income" validate:"gte=0"`
	NightShiftIncome float64 `json:"night_shift_income" validate:"gte=0"`
	ShortageAmount   float64 `json:"shortage_amount" validate:"gte=0"`
	TotalRegister    float64 `json:"total_register" validate:"gte=0"`
	Notes            string  `json:"notes" validate:"max=2000"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
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
	log, err := h.service.Create(r.Context(), Input{
		Date:             date,
		CashIncome:       req.CashIncome,
		YapeIncome:       req.YapeIncome,
		NightShiftIncome: req.NightShiftIncome,
		ShortageAmount:   req.ShortageAmount,
		TotalRegister:    req.TotalRegister,
		Notes:            req.Notes,
		CreatedBy:        ac.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, log)
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

	logs, err := h.service.ByDate(r.Context(), date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if logs == nil {
		logs = []Log{}
	}
	httpx.JSON(w, http.StatusOK, logs)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.UserSafeMessage(err))
	case errors.Is(err, bizdate.ErrInvalidFormat):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid date")
	default:
		h.logger.Error("daily log request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
