package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/dailylog"
	"github.com/cybercaja/cybercaja/internal/debt"
	"github.com/cybercaja/cybercaja/internal/expense"
	"github.com/cybercaja/cybercaja/internal/reconcile"
)

type memoryStores struct {
	logs     []dailylog.Log
	expenses []expense.Expense
	paid     []debt.Debt
	pending  []debt.Debt
	failWith error
}

func (m *memoryStores) ByDateRange(ctx context.Context, start, end bizdate.Date) ([]dailylog.Log, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []dailylog.Log
	for _, l := range m.logs {
		if !l.Date.Before(start) && !l.Date.After(end) {
			out = append(out, l)
		}
	}
	return out, nil
}

type memoryExpenseStore struct{ m *memoryStores }

func (s memoryExpenseStore) ByDateRange(ctx context.Context, start, end bizdate.Date) ([]expense.Expense, error) {
	if s.m.failWith != nil {
		return nil, s.m.failWith
	}
	var out []expense.Expense
	for _, e := range s.m.expenses {
		if !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

type memoryDebtStore struct{ m *memoryStores }

func (s memoryDebtStore) PaidByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]debt.Debt, error) {
	if s.m.failWith != nil {
		return nil, s.m.failWith
	}
	return filterDebts(s.m.paid, start, end), nil
}

func (s memoryDebtStore) PendingByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]debt.Debt, error) {
	if s.m.failWith != nil {
		return nil, s.m.failWith
	}
	return filterDebts(s.m.pending, start, end), nil
}

func filterDebts(debts []debt.Debt, start, end bizdate.Date) []debt.Debt {
	var out []debt.Debt
	for _, d := range debts {
		if !d.Date.Before(start) && !d.Date.After(end) {
			out = append(out, d)
		}
	}
	return out
}

func newTestService(m *memoryStores) *Service {
	return NewService(m, memoryExpenseStore{m}, memoryDebtStore{m}, reconcile.RegisterPolicy{}, nil)
}

func TestAggregateSingleExpenseMonthHasOneRow(t *testing.T) {
	m := &memoryStores{
		expenses: []expense.Expense{{
			Category: expense.CategoryOther,
			Amount:   35,
			Date:     bizdate.MustParse("2024-04-05"),
		}},
	}

	view, err := newTestService(m).Aggregate(context.Background(), 2024, time.April)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	require.Equal(t, "2024-04-05", view.Rows[0].Date.String())
	require.InDelta(t, 35, view.Rows[0].OtherExpenses, 1e-9)
	require.InDelta(t, 35, view.Totals.OtherExpenses, 1e-9)
}

func TestAggregateDropsInactiveDays(t *testing.T) {
	m := &memoryStores{
		logs: []dailylog.Log{
			{Date: bizdate.MustParse("2024-04-02"), CashIncome: 100},
			{Date: bizdate.MustParse("2024-04-20"), YapeIncome: 40},
		},
	}

	view, err := newTestService(m).Aggregate(context.Background(), 2024, time.April)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
}

func TestAggregateRowsDescendTotalsSumActiveOnly(t *testing.T) {
	m := &memoryStores{
		logs: []dailylog.Log{
			{Date: bizdate.MustParse("2024-04-02"), CashIncome: 100, TotalRegister: 90},
			{Date: bizdate.MustParse("2024-04-10"), CashIncome: 50, TotalRegister: 60},
		},
		expenses: []expense.Expense{{
			Category: expense.CategoryStaffPayment,
			Amount:   30,
			Date:     bizdate.MustParse("2024-04-10"),
		}},
	}

	view, err := newTestService(m).Aggregate(context.Background(), 2024, time.April)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	require.Equal(t, "2024-04-10", view.Rows[0].Date.String())
	require.Equal(t, "2024-04-02", view.Rows[1].Date.String())
	require.InDelta(t, 150, view.Totals.CashIncome, 1e-9)
	require.InDelta(t, 30, view.Totals.StaffPayment, 1e-9)
	require.InDelta(t, 150, view.Totals.TotalRegister, 1e-9)
}

func TestAggregatePaidDebtCountsOnCreationDate(t *testing.T) {
	settled := bizdate.MustParse("2024-03-10")
	m := &memoryStores{
		paid: []debt.Debt{{
			Amount:        25,
			Status:        debt.StatusPaid,
			PaymentMethod: debt.PayCash,
			Date:          bizdate.MustParse("2024-03-01"),
			PaymentDate:   &settled,
		}},
	}

	view, err := newTestService(m).Aggregate(context.Background(), 2024, time.March)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	require.Equal(t, "2024-03-01", view.Rows[0].Date.String())
	require.InDelta(t, 25, view.Rows[0].DebtsCash, 1e-9)
}

func TestAggregateJoinsNotes(t *testing.T) {
	m := &memoryStores{
		logs: []dailylog.Log{
			{Date: bizdate.MustParse("2024-04-02"), CashIncome: 10, Notes: "turno tarde"},
			{Date: bizdate.MustParse("2024-04-02"), CashIncome: 5, Notes: "  "},
			{Date: bizdate.MustParse("2024-04-02"), CashIncome: 5, Notes: "cierre nocturno"},
		},
	}

	view, err := newTestService(m).Aggregate(context.Background(), 2024, time.April)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	require.Equal(t, "turno tarde\n\ncierre nocturno", view.Rows[0].Notes)
}

func TestAggregateEmptyMonth(t *testing.T) {
	view, err := newTestService(&memoryStores{}).Aggregate(context.Background(), 2024, time.June)
	require.NoError(t, err)
	require.Empty(t, view.Rows)
	require.Equal(t, reconcile.DailyTotals{}, view.Totals)
}

func TestAggregateStoreFailureFailsWholeMonth(t *testing.T) {
	m := &memoryStores{
		logs:     []dailylog.Log{{Date: bizdate.MustParse("2024-04-02"), CashIncome: 100}},
		failWith: errors.New("connection refused"),
	}

	view, err := newTestService(m).Aggregate(context.Background(), 2024, time.April)
	require.ErrorIs(t, err, ErrDataFetch)
	require.Nil(t, view)
}

func TestAggregateRejectsBadMonth(t *testing.T) {
	_, err := newTestService(&memoryStores{}).Aggregate(context.Background(), 2024, time.Month(13))
	require.Error(t, err)
}
