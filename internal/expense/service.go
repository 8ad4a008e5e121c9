package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/shared"
)

// RepositoryPort defines data access methods for expenses.
type RepositoryPort interface {
	Create(ctx context.Context, input Input) (*Expense, error)
	Delete(ctx context.Context, id int64) (*Expense, error)
	ByDate(ctx context.Context, date bizdate.Date) ([]Expense, error)
	ByDateRange(ctx context.Context, start, end bizdate.Date) ([]Expense, error)
}

// Invalidator drops cached month aggregations after a mutation.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Warmer schedules a month re-aggregation in the background.
type Warmer interface {
	EnqueueMonthWarmup(ctx context.Context, year int, month int) error
}

type auditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles expense business rules.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
	warmer      Warmer
	audit       auditPort
	logger      *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, invalidator Invalidator, warmer Warmer, audit auditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, invalidator: invalidator, warmer: warmer, audit: audit, logger: logger}
}

// Create validates and records an expense.
func (s *Service) Create(ctx context.Context, input Input) (*Expense, error) {
	if !input.Category.Valid() {
		return nil, shared.ValidationError("category", fmt.Sprintf("unknown category %q", input.Category))
	}
	if input.Amount < 0 {
		return nil, shared.ValidationError("amount", "amount must not be negative")
	}
	if input.Date.IsZero() {
		return nil, shared.ValidationError("date", "date is required")
	}
	if input.Date.IsFuture() {
		return nil, shared.ValidationError("date", fmt.Sprintf("cannot register an expense after today (%s)", bizdate.Today().DisplayString()))
	}
	if input.Category == CategoryStaffPayment && strings.TrimSpace(input.Beneficiary) == "" {
		return nil, shared.ValidationError("beneficiary", "staff payments need a beneficiary")
	}

	exp, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, exp, "expense.create")
	return exp, nil
}

// Delete removes an expense. Route-level authorization restricts this
// to admins.
func (s *Service) Delete(ctx context.Context, id int64) (*Expense, error) {
	exp, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, exp, "expense.delete")
	return exp, nil
}

// ByDate lists expenses for one business date.
func (s *Service) ByDate(ctx context.Context, date bizdate.Date) ([]Expense, error) {
	return s.repo.ByDate(ctx, date)
}

func (s *Service) afterMutation(ctx context.Context, exp *Expense, action string) {
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil {
			s.logger.Warn("month cache bump failed", slog.Any("error", err))
		}
	}
	if s.warmer != nil {
		if err := s.warmer.EnqueueMonthWarmup(ctx, exp.Date.Year, int(exp.Date.Month)); err != nil {
			s.logger.Warn("month warmup enqueue failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		ac, _ := shared.AuthFromContext(ctx)
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  ac.UserID,
			Action:   action,
			Entity:   "expense",
			EntityID: fmt.Sprintf("%d", exp.ID),
			Meta: map[string]any{
				"date":     exp.Date.String(),
				"category": string(exp.Category),
				"amount":   exp.Amount,
			},
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
}
