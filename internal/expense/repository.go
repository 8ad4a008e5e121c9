package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/shared"
)

// Repository provides PostgreSQL backed persistence for expenses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const expenseColumns = `id, category, beneficiary, description, amount, date, created_by, created_at`

// Create inserts a new expense.
func (r *Repository) Create(ctx context.Context, input Input) (*Expense, error) {
	query := `
		INSERT INTO expenses (category, beneficiary, description, amount, date, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`

	exp := Expense{
		Category:    input.Category,
		Beneficiary: input.Beneficiary,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        input.Date,
		CreatedBy:   input.CreatedBy,
	}
	err := r.pool.QueryRow(ctx, query,
		string(input.Category), input.Beneficiary, input.Description,
		input.Amount, input.Date.String(), input.CreatedBy,
	).Scan(&exp.ID, &exp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("expense: create: %w", err)
	}
	return &exp, nil
}

// Delete removes an expense by ID.
func (r *Repository) Delete(ctx context.Context, id int64) (*Expense, error) {
	query := fmt.Sprintf(`DELETE FROM expenses WHERE id = $1 RETURNING %s`, expenseColumns)
	exp, err := scanExpense(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("expense: delete: %w", err)
	}
	return exp, nil
}

// ByDate lists expenses for one business date.
func (r *Repository) ByDate(ctx context.Context, date bizdate.Date) ([]Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE date = $1 ORDER BY created_at`, expenseColumns)
	rows, err := r.pool.Query(ctx, query, date.String())
	if err != nil {
		return nil, fmt.Errorf("expense: by date: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// ByDateRange lists expenses between start and end inclusive.
func (r *Repository) ByDateRange(ctx context.Context, start, end bizdate.Date) ([]Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE date >= $1 AND date <= $2 ORDER BY date, created_at`, expenseColumns)
	rows, err := r.pool.Query(ctx, query, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("expense: by date range: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var (
		exp Expense
		day time.Time
	)
	if err := row.Scan(&exp.ID, &exp.Category, &exp.Beneficiary, &exp.Description, &exp.Amount, &day, &exp.CreatedBy, &exp.CreatedAt); err != nil {
		return nil, err
	}
	exp.Date = bizdate.FromDateOnly(day)
	return &exp, nil
}

func scanExpenses(rows pgx.Rows) ([]Expense, error) {
	var expenses []Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("expense: scan: %w", err)
		}
		expenses = append(expenses, *exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expense: rows: %w", err)
	}
	return expenses, nil
}
