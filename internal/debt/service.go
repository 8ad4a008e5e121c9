package debt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/shared"
)

// RepositoryPort defines data access methods for debts. Transitions
// must be atomic conditional updates keyed on the PENDING status.
type RepositoryPort interface {
	Create(ctx context.Context, input CreateInput) (*Debt, error)
	Get(ctx context.Context, id int64) (*Debt, error)
	MarkPaid(ctx context.Context, id int64, method PaymentMethod, paymentDate bizdate.Date, paidAt time.Time) (*Debt, error)
	MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) (*Debt, error)
	Query(ctx context.Context, filter QueryFilter) ([]Debt, int, error)
	PaidByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]Debt, error)
	PendingByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]Debt, error)
}

// Invalidator drops cached month aggregations after a transition.
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

// Clock supplies the current instant; tests pin it.
type Clock func() time.Time

// Service governs the debt lifecycle: PENDING is created, then exactly
// one irreversible transition to PAID or CANCELLED.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
	warmer      Warmer
	audit       auditPort
	logger      *slog.Logger
	now         Clock
}

// NewService builds a Service instance. invalidator, warmer and audit
// may be nil in tests; a nil clock means time.Now.
func NewService(repo RepositoryPort, invalidator Invalidator, warmer Warmer, audit auditPort, logger *slog.Logger, now Clock) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, invalidator: invalidator, warmer: warmer, audit: audit, logger: logger, now: now}
}

// Create issues a PENDING debt. The creation date fixes which day's
// income the debt will eventually count toward.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Debt, error) {
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, shared.ValidationError("customer_name", "customer name is required")
	}
	if input.Amount < 0 {
		return nil, shared.ValidationError("amount", "amount must not be negative")
	}
	if input.Date.IsZero() {
		return nil, shared.ValidationError("date", "date is required")
	}
	if input.Date.IsFuture() {
		return nil, shared.ValidationError("date", fmt.Sprintf("cannot issue a debt after today (%s)", bizdate.Today().DisplayString()))
	}

	d, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, d, "debt.create", d.Date)
	return d, nil
}

// Pay settles a PENDING debt. The payment date is a business date and
// may trail the creation date by any number of days, but never precede
// it and never sit in the future. The repository applies the
// transition conditionally so a concurrent pay or cancel cannot
// double-settle.
func (s *Service) Pay(ctx context.Context, id int64, method PaymentMethod, paymentDate bizdate.Date) (*Debt, error) {
	if !method.Valid() {
		return nil, shared.ValidationError("payment_method", fmt.Sprintf("unknown payment method %q", method))
	}
	if paymentDate.IsZero() {
		return nil, shared.ValidationError("payment_date", "payment date is required")
	}
	if paymentDate.IsFuture() {
		return nil, shared.ValidationError("payment_date", fmt.Sprintf("cannot pay after today (%s)", bizdate.Today().DisplayString()))
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, fmt.Errorf("%w: debt is %s", ErrInvalidTransition, current.Status)
	}
	if paymentDate.Before(current.Date) {
		return nil, fmt.Errorf("%w: payment %s, debt incurred %s",
			ErrConsistency, paymentDate.DisplayString(), current.Date.DisplayString())
	}

	paidAt := paymentDate.CombineWithCurrentTime(s.now())
	d, err := s.repo.MarkPaid(ctx, id, method, paymentDate, paidAt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("debt paid",
		slog.Int64("debt_id", d.ID),
		slog.String("amount", shared.FormatSoles(d.Amount)),
		slog.String("method", string(method)))

	// Both the creation month and the payment month change: attribution
	// credits the creation date, and payment-dated views shift too.
	s.afterTransition(ctx, d, "debt.pay", d.Date, paymentDate)
	return d, nil
}

// Cancel voids a PENDING debt.
func (s *Service) Cancel(ctx context.Context, id int64) (*Debt, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, fmt.Errorf("%w: debt is %s", ErrInvalidTransition, current.Status)
	}

	d, err := s.repo.MarkCancelled(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, d, "debt.cancel", d.Date)
	return d, nil
}

// Query returns a filtered, paginated debt listing.
func (s *Service) Query(ctx context.Context, filter QueryFilter) ([]Debt, shared.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Pagination{}, shared.ValidationError("status", fmt.Sprintf("unknown status %q", filter.Status))
	}
	debts, total, err := s.repo.Query(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return debts, shared.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *Service) afterTransition(ctx context.Context, d *Debt, action string, affected ...bizdate.Date) {
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil {
			s.logger.Warn("month cache bump failed", slog.Any("error", err))
		}
	}
	if s.warmer != nil {
		seen := map[string]bool{}
		for _, date := range affected {
			key := fmt.Sprintf("%04d-%02d", date.Year, int(date.Month))
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := s.warmer.EnqueueMonthWarmup(ctx, date.Year, int(date.Month)); err != nil {
				s.logger.Warn("month warmup enqueue failed", slog.Any("error", err))
			}
		}
	}
	if s.audit != nil {
		ac, _ := shared.AuthFromContext(ctx)
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  ac.UserID,
			Action:   action,
			Entity:   "debt",
			EntityID: fmt.Sprintf("%d", d.ID),
			Meta: map[string]any{
				"customer": d.CustomerName,
				"amount":   d.Amount,
				"date":     d.Date.String(),
				"status":   string(d.Status),
			},
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
}
