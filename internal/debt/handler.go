package debt

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

// Handler exposes debt endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers debt routes. Mutations are limited to the
// roles admitted by the writers middleware.
func (h *Handler) MountRoutes(r chi.Router, writers func(http.Handler) http.Handler) {
	r.Get("/", h.query)
	r.Group(func(r chi.Router) {
		if writers != nil {
			r.Use(writers)
		}
		r.Post("/", h.create)
		r.Post("/{id}/pay", h.pay)
		r.Post("/{id}/cancel", h.cancel)
	})
}

type debtListResponse struct {
	Rows       []Debt            `json:"rows"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := QueryFilter{
		Status:     Status(q.Get("status")),
		SearchTerm: q.Get("search"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	for param, dest := range map[string]*bizdate.Date{"start_date": &filter.StartDate, "end_date": &filter.EndDate} {
		if raw := q.Get(param); raw != "" {
			date, err := bizdate.Parse(raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", param+" must be YYYY-MM-DD")
				return
			}
			*dest = date
		}
	}

	rows, page, err := h.service.Query(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if rows == nil {
		rows = []Debt{}
	}
	httpx.JSON(w, http.StatusOK, debtListResponse{Rows: rows, Pagination: page})
}

type createDebtRequest struct {
	CustomerName string  `json:"customer_name" validate:"required,max=200"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	Date         string  `json:"date" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createDebtRequest
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
	d, err := h.service.Create(r.Context(), CreateInput{
		CustomerName: req.CustomerName,
		Amount:       req.Amount,
		Date:         date,
		CreatedBy:    ac.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

type payDebtRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	PaymentDate   string `json:"payment_date" validate:"required"`
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.debtID(w, r)
	if !ok {
		return
	}
	var req payDebtRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	paymentDate, err := bizdate.Parse(req.PaymentDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payment_date must be YYYY-MM-DD")
		return
	}

	d, err := h.service.Pay(r.Context(), id, PaymentMethod(req.PaymentMethod), paymentDate)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.debtID(w, r)
	if !ok {
		return
	}
	d, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) debtID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid debt id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "debt not found")
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, ErrConsistency):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Inconsistent Dates", err.Error())
	default:
		h.logger.Error("debt request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
