// Package history produces the month-by-month view of reconciled
// days: one row per active business date plus column totals.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/dailylog"
	"github.com/cybercaja/cybercaja/internal/debt"
	"github.com/cybercaja/cybercaja/internal/expense"
	"github.com/cybercaja/cybercaja/internal/reconcile"
)

// ErrDataFetch indicates an underlying store query failed. The month is
// all or nothing: no partial results.
var ErrDataFetch = errors.New("history: data fetch failed")

// LogStore feeds daily logs for a date range.
type LogStore interface {
	ByDateRange(ctx context.Context, start, end bizdate.Date) ([]dailylog.Log, error)
}

// ExpenseStore feeds expenses for a date range.
type ExpenseStore interface {
	ByDateRange(ctx context.Context, start, end bizdate.Date) ([]expense.Expense, error)
}

// DebtStore feeds debts by CREATION date range; paid-debt attribution
// keys on the day the debt was incurred, not the day it was settled.
type DebtStore interface {
	PaidByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]debt.Debt, error)
	PendingByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]debt.Debt, error)
}

// Row is a reconciled business date in the month view.
type Row struct {
	Date bizdate.Date `json:"date"`
	reconcile.DailyTotals
	Notes string `json:"notes,omitempty"`
}

// MonthView is the aggregation result: active-day rows (descending by
// date, most recent first) and column totals over those rows only.
type MonthView struct {
	Year   int                   `json:"year"`
	Month  int                   `json:"month"`
	Policy string                `json:"policy"`
	Rows   []Row                 `json:"rows"`
	Totals reconcile.DailyTotals `json:"totals"`
}

// Service aggregates a month of records through the reconciliation
// engine.
type Service struct {
	logs     LogStore
	expenses ExpenseStore
	debts    DebtStore
	policy   reconcile.Policy
	cache    *Cache
}

// NewService builds a Service instance. cache may be nil.
func NewService(logs LogStore, expenses ExpenseStore, debts DebtStore, policy reconcile.Policy, cache *Cache) *Service {
	if policy == nil {
		policy = reconcile.RegisterPolicy{}
	}
	return &Service{logs: logs, expenses: expenses, debts: debts, policy: policy, cache: cache}
}

// Aggregate computes the month view, serving from cache when possible.
func (s *Service) Aggregate(ctx context.Context, year int, month time.Month) (*MonthView, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("history: month out of range: %d", month)
	}
	if s.cache == nil {
		return s.aggregate(ctx, year, month)
	}

	key, err := s.cache.MonthKey(ctx, year, month, s.policy.Name())
	if err != nil {
		// A cache outage never blocks the read path.
		return s.aggregate(ctx, year, month)
	}
	var view MonthView
	err = s.cache.FetchJSON(ctx, key, &view, func(ctx context.Context) (any, error) {
		return s.aggregate(ctx, year, month)
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *Service) aggregate(ctx context.Context, year int, month time.Month) (*MonthView, error) {
	first, last := bizdate.MonthRange(year, month)

	var (
		logs         []dailylog.Log
		expenses     []expense.Expense
		paidDebts    []debt.Debt
		pendingDebts []debt.Debt
	)

	// One range query per store, in parallel. Any failure fails the
	// whole month.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		logs, err = s.logs.ByDateRange(gctx, first, last)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.ByDateRange(gctx, first, last)
		return err
	})
	g.Go(func() error {
		var err error
		paidDebts, err = s.debts.PaidByCreationDateRange(gctx, first, last)
		return err
	})
	g.Go(func() error {
		var err error
		pendingDebts, err = s.debts.PendingByCreationDateRange(gctx, first, last)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFetch, err)
	}

	logsByDate := groupBy(logs, func(l dailylog.Log) bizdate.Date { return l.Date })
	expensesByDate := groupBy(expenses, func(e expense.Expense) bizdate.Date { return e.Date })
	paidByDate := groupBy(paidDebts, func(d debt.Debt) bizdate.Date { return d.Date })
	pendingByDate := groupBy(pendingDebts, func(d debt.Debt) bizdate.Date { return d.Date })

	view := &MonthView{Year: year, Month: int(month), Policy: s.policy.Name()}

	// Ascending pass: required for any future day-to-day carry-forward
	// even though the current formulas are day-independent.
	for _, date := range bizdate.DaysOfMonth(year, month) {
		dayLogs := logsByDate[date]
		totals := s.policy.Compute(dayLogs, expensesByDate[date], paidByDate[date], pendingByDate[date])

		if !activeDay(len(dayLogs), totals) {
			continue
		}

		view.Rows = append(view.Rows, Row{
			Date:        date,
			DailyTotals: totals,
			Notes:       joinNotes(dayLogs),
		})
		view.Totals.Add(totals)
	}

	// Most recent day first for display.
	sort.Slice(view.Rows, func(i, j int) bool { return view.Rows[i].Date.After(view.Rows[j].Date) })
	return view, nil
}

// activeDay keeps the historical view dense: a day appears only when
// something happened on it.
func activeDay(logCount int, t reconcile.DailyTotals) bool {
	return logCount > 0 ||
		t.DebtsCash > 0 ||
		t.DebtsYape > 0 ||
		t.PendingDebts > 0 ||
		t.StaffPayment > 0 ||
		t.OtherExpenses > 0
}

func joinNotes(logs []dailylog.Log) string {
	var notes []string
	for _, log := range logs {
		if trimmed := strings.TrimSpace(log.Notes); trimmed != "" {
			notes = append(notes, trimmed)
		}
	}
	return strings.Join(notes, "\n\n")
}

func groupBy[T any](items []T, key func(T) bizdate.Date) map[bizdate.Date][]T {
	grouped := make(map[bizdate.Date][]T, len(items))
	for _, item := range items {
		grouped[key(item)] = append(grouped[key(item)], item)
	}
	return grouped
}
