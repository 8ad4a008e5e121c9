package history

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/platform/httpx"
)

// Handler exposes the monthly history endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers history routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.month)
}

func (h *Handler) month(w http.ResponseWriter, r *http.Request) {
	now := bizdate.Today()
	year := now.Year
	month := now.Month

	q := r.URL.Query()
	if raw := q.Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2100 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "year must be a four digit year")
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

	view, err := h.service.Aggregate(r.Context(), year, month)
	if err != nil {
		if errors.Is(err, ErrDataFetch) {
			httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "could not load month records")
			return
		}
		h.logger.Error("month aggregation failed", slog.Int("year", year), slog.Int("month", int(month)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if view.Rows == nil {
		view.Rows = []Row{}
	}
	httpx.JSON(w, http.StatusOK, view)
}
