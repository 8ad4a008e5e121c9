package debt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/platform/db"
	"github.com/cybercaja/cybercaja/internal/shared"
)

// Repository provides PostgreSQL backed persistence for debts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const debtColumns = `id, customer_name, amount, date, status, payment_method, payment_date, paid_at, cancelled_at, created_by, created_at`

// Create issues a new PENDING debt.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Debt, error) {
	query := `
		INSERT INTO debts (customer_name, amount, date, status, created_by, created_at)
		VALUES ($1, $2, $3, 'PENDING', $4, NOW())
		RETURNING id, created_at`

	d := Debt{
		CustomerName: input.CustomerName,
		Amount:       input.Amount,
		Date:         input.Date,
		Status:       StatusPending,
		CreatedBy:    input.CreatedBy,
	}
	err := r.pool.QueryRow(ctx, query,
		input.CustomerName, input.Amount, input.Date.String(), input.CreatedBy,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("debt: create: %w", err)
	}
	return &d, nil
}

// Get fetches a debt by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Debt, error) {
	query := fmt.Sprintf(`SELECT %s FROM debts WHERE id = $1`, debtColumns)
	d, err := scanDebt(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("debt: get: %w", err)
	}
	return d, nil
}

// MarkPaid flips a PENDING debt to PAID. The WHERE clause is the
// optimistic guard: when a concurrent actor won the race the update
// matches no row and the caller gets ErrInvalidTransition, leaving the
// winner's payment fields untouched. The update and the diagnostic
// status read share one transaction so the reported state is the one
// that actually blocked the transition.
func (r *Repository) MarkPaid(ctx context.Context, id int64, method PaymentMethod, paymentDate bizdate.Date, paidAt time.Time) (*Debt, error) {
	query := fmt.Sprintf(`
		UPDATE debts
		SET status = 'PAID', payment_method = $2, payment_date = $3, paid_at = $4
		WHERE id = $1 AND status = 'PENDING'
		RETURNING %s`, debtColumns)

	var d *Debt
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		got, err := scanDebt(tx.QueryRow(ctx, query, id, string(method), paymentDate.String(), paidAt))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return transitionFailure(ctx, tx, id)
			}
			return fmt.Errorf("debt: mark paid: %w", err)
		}
		d = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// MarkCancelled flips a PENDING debt to CANCELLED under the same
// optimistic guard as MarkPaid.
func (r *Repository) MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) (*Debt, error) {
	query := fmt.Sprintf(`
		UPDATE debts
		SET status = 'CANCELLED', cancelled_at = $2
		WHERE id = $1 AND status = 'PENDING'
		RETURNING %s`, debtColumns)

	var d *Debt
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		got, err := scanDebt(tx.QueryRow(ctx, query, id, cancelledAt))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return transitionFailure(ctx, tx, id)
			}
			return fmt.Errorf("debt: mark cancelled: %w", err)
		}
		d = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// transitionFailure distinguishes a missing debt from one already in a
// terminal state.
func transitionFailure(ctx context.Context, tx pgx.Tx, id int64) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM debts WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("debt: transition check: %w", err)
	}
	return fmt.Errorf("%w: debt is %s", ErrInvalidTransition, status)
}

// Query returns a filtered, paginated debt listing plus the total count.
func (r *Repository) Query(ctx context.Context, filter QueryFilter) ([]Debt, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "date >= "+arg(filter.StartDate.String()))
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "date <= "+arg(filter.EndDate.String()))
	}
	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		conds = append(conds, "customer_name ILIKE "+arg("%"+term+"%"))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM debts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("debt: count: %w", err)
	}

	page := shared.NewPagination(filter.Page, filter.PageSize, total)
	query := fmt.Sprintf(`SELECT %s FROM debts%s ORDER BY created_at DESC LIMIT %s OFFSET %s`,
		debtColumns, where, arg(page.PerPage), arg(page.Offset()))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("debt: query: %w", err)
	}
	defer rows.Close()

	debts, err := scanDebts(rows)
	if err != nil {
		return nil, 0, err
	}
	return debts, total, nil
}

// PaidByCreationDateRange lists PAID debts whose creation date falls in
// the range. Reconciliation attributes paid debts to the creation
// date, so this is the feed for the monthly aggregator.
func (r *Repository) PaidByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]Debt, error) {
	return r.byStatusAndRange(ctx, StatusPaid, start, end)
}

// PendingByCreationDateRange lists PENDING debts created in the range.
func (r *Repository) PendingByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]Debt, error) {
	return r.byStatusAndRange(ctx, StatusPending, start, end)
}

func (r *Repository) byStatusAndRange(ctx context.Context, status Status, start, end bizdate.Date) ([]Debt, error) {
	query := fmt.Sprintf(`SELECT %s FROM debts WHERE status = $1 AND date >= $2 AND date <= $3 ORDER BY date, created_at`, debtColumns)
	rows, err := r.pool.Query(ctx, query, string(status), start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("debt: by status and range: %w", err)
	}
	defer rows.Close()
	return scanDebts(rows)
}

func scanDebt(row pgx.Row) (*Debt, error) {
	var (
		d           Debt
		day         time.Time
		method      pgtype.Text
		paymentDate pgtype.Date
		paidAt      pgtype.Timestamptz
		cancelledAt pgtype.Timestamptz
	)
	if err := row.Scan(&d.ID, &d.CustomerName, &d.Amount, &day, &d.Status, &method, &paymentDate, &paidAt, &cancelledAt, &d.CreatedBy, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Date = bizdate.FromDateOnly(day)
	if method.Valid {
		d.PaymentMethod = PaymentMethod(method.String)
	}
	if paymentDate.Valid {
		pd := bizdate.FromDateOnly(paymentDate.Time)
		d.PaymentDate = &pd
	}
	if paidAt.Valid {
		t := paidAt.Time
		d.PaidAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		d.CancelledAt = &t
	}
	return &d, nil
}

func scanDebts(rows pgx.Rows) ([]Debt, error) {
	var debts []Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("debt: scan: %w", err)
		}
		debts = append(debts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("debt: rows: %w", err)
	}
	return debts, nil
}
