package dailylog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/shared"
)

// RepositoryPort defines data access methods for daily logs.
type RepositoryPort interface {
	Create(ctx context.Context, input Input) (*Log, error)
	ByDate(ctx context.Context, date bizdate.Date) ([]Log, error)
	ByDateRange(ctx context.Context, start, end bizdate.Date) ([]Log, error)
}

// Invalidator drops cached month aggregations after a mutation.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Warmer schedules a month re-aggregation in the background.
type Warmer interface {
	EnqueueMonthWarmup(ctx context.Context, year int, month int) error
}

// Service handles daily log business rules.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
	warmer      Warmer
	audit       auditPort
	logger      *slog.Logger
}

type auditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewService builds a Service instance. invalidator, warmer and audit
// may be nil in tests.
func NewService(repo RepositoryPort, invalidator Invalidator, warmer Warmer, audit auditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, invalidator: invalidator, warmer: warmer, audit: audit, logger: logger}
}

// Create validates and appends a register-closing entry.
func (s *Service) Create(ctx context.Context, input Input) (*Log, error) {
	if input.Date.IsZero() {
		return nil, shared.ValidationError("date", "date is required")
	}
	if input.Date.IsFuture() {
		return nil, shared.ValidationError("date", fmt.Sprintf("cannot register a closing after today (%s)", bizdate.Today().DisplayString()))
	}
	for field, amount := range map[string]float64{
		"cash_income":        input.CashIncome,
		"yape_income":        input.YapeIncome,
		"night_shift_income": input.NightShiftIncome,
		"shortage_amount":    input.ShortageAmount,
		"total_register":     input.TotalRegister,
	} {
		if amount < 0 {
			return nil, shared.ValidationError(field, "amount must not be negative")
		}
	}

	log, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, log)
	return log, nil
}

// ByDate lists the entries for one business date.
func (s *Service) ByDate(ctx context.Context, date bizdate.Date) ([]Log, error) {
	return s.repo.ByDate(ctx, date)
}

func (s *Service) afterMutation(ctx context.Context, log *Log) {
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil {
			s.logger.Warn("month cache bump failed", slog.Any("error", err))
		}
	}
	if s.warmer != nil {
		if err := s.warmer.EnqueueMonthWarmup(ctx, log.Date.Year, int(log.Date.Month)); err != nil {
			s.logger.Warn("month warmup enqueue failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		ac, _ := shared.AuthFromContext(ctx)
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  ac.UserID,
			Action:   "daily_log.create",
			Entity:   "daily_log",
			EntityID: fmt.Sprintf("%d", log.ID),
			Meta: map[string]any{
				"date":           log.Date.String(),
				"total_register": log.TotalRegister,
			},
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
}
