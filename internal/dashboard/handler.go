package dashboard

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/history"
	"github.com/cybercaja/cybercaja/internal/platform/httpx"
)

// Handler exposes the dashboard metrics endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/metrics", h.monthMetrics)
}

func (h *Handler) monthMetrics(w http.ResponseWriter, r *http.Request) {
	today := bizdate.Today()
	year := today.Year
	month := today.Month

	q := r.URL.Query()
	if raw := q.Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "year must be numeric")
			return
		}
		year = parsed
	}
	if raw := q.Get("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "month must be 1-12")
			return
		}
		month = time.Month(parsed)
	}

	metrics, err := h.service.MonthMetrics(r.Context(), year, month)
	if err != nil {
		if errors.Is(err, history.ErrDataFetch) {
			httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "could not load month records")
			return
		}
		h.logger.Error("dashboard metrics failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, metrics)
}
