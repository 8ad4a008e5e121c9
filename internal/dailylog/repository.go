package dailylog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/shared"
)

// Repository provides PostgreSQL backed persistence for daily logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const logColumns = `id, date, cash_income, yape_income, night_shift_income, shortage_amount, total_register, notes, created_by, created_at`

// Create appends a new log entry.
func (r *Repository) Create(ctx context.Context, input Input) (*Log, error) {
	query := `
		INSERT INTO daily_logs (
			date, cash_income, yape_income, night_shift_income,
			shortage_amount, total_register, notes, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at`

	log := Log{
		Date:             input.Date,
		CashIncome:       input.CashIncome,
		YapeIncome:       input.YapeIncome,
		NightShiftIncome: input.NightShiftIncome,
		ShortageAmount:   input.ShortageAmount,
		TotalRegister:    input.TotalRegister,
		Notes:            input.Notes,
		CreatedBy:        input.CreatedBy,
	}
	err := r.pool.QueryRow(ctx, query,
		input.Date.String(),
		input.CashIncome,
		input.YapeIncome,
		input.NightShiftIncome,
		input.ShortageAmount,
		input.TotalRegister,
		input.Notes,
		input.CreatedBy,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return nil, shared.ValidationError("amounts", "amounts must not be negative")
		}
		return nil, fmt.Errorf("dailylog: create: %w", err)
	}
	return &log, nil
}

// ByDate lists all log entries for one business date.
func (r *Repository) ByDate(ctx context.Context, date bizdate.Date) ([]Log, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs WHERE date = $1 ORDER BY created_at`, logColumns)
	rows, err := r.pool.Query(ctx, query, date.String())
	if err != nil {
		return nil, fmt.Errorf("dailylog: by date: %w", err)
	}
	defer rows.Close()
	return scanLogs(rows)
}

// ByDateRange lists all log entries between start and end inclusive,
// ordered by date ascending.
func (r *Repository) ByDateRange(ctx context.Context, start, end bizdate.Date) ([]Log, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs WHERE date >= $1 AND date <= $2 ORDER BY date, created_at`, logColumns)
	rows, err := r.pool.Query(ctx, query, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("dailylog: by date range: %w", err)
	}
	defer rows.Close()
	return scanLogs(rows)
}

func scanLogs(rows pgx.Rows) ([]Log, error) {
	var logs []Log
	for rows.Next() {
		var (
			log Log
			day time.Time
		)
		if err := rows.Scan(
			&log.ID, &day, &log.CashIncome, &log.YapeIncome, &log.NightShiftIncome,
			&log.ShortageAmount, &log.TotalRegister, &log.Notes, &log.CreatedBy, &log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("dailylog: scan: %w", err)
		}
		log.Date = bizdate.FromDateOnly(day)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dailylog: rows: %w", err)
	}
	return logs, nil
}
