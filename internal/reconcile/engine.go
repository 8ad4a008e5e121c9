// Package reconcile computes a business date's income, expense and
// shortage breakdown from independently entered records. Everything
// here is pure: callers pre-filter records to a single date and the
// engine never touches a store.
package reconcile

import (
	"github.com/cybercaja/cybercaja/internal/dailylog"
	"github.com/cybercaja/cybercaja/internal/debt"
	"github.com/cybercaja/cybercaja/internal/expense"
)

// DailyTotals is the reconciled breakdown for one business date.
// CashIncome and YapeIncome already include settled debts attributed
// to this date; TotalIncome is kept for dashboard compatibility.
type DailyTotals struct {
	CashIncome    float64 `json:"cash_income"`
	YapeIncome    float64 `json:"yape_income"`
	NightShift    float64 `json:"night_shift"`
	TotalRegister float64 `json:"total_register"`
	PendingDebts  float64 `json:"pending_debts"`
	Shortage      float64 `json:"shortage"`
	StaffPayment  float64 `json:"staff_payment"`
	OtherExpenses float64 `json:"other_expenses"`
	TotalExpenses float64 `json:"total_expenses"`
	TotalFinal    float64 `json:"total_final"`
	TotalIncome   float64 `json:"total_income"`
	DebtsCash     float64 `json:"debts_cash"`
	DebtsYape     float64 `json:"debts_yape"`
}

// Add accumulates other into t field by field. The monthly aggregator
// uses it for column totals.
func (t *DailyTotals) Add(other DailyTotals) {
	t.CashIncome += other.CashIncome
	t.YapeIncome += other.YapeIncome
	t.NightShift += other.NightShift
	t.TotalRegister += other.TotalRegister
	t.PendingDebts += other.PendingDebts
	t.Shortage += other.Shortage
	t.StaffPayment += other.StaffPayment
	t.OtherExpenses += other.OtherExpenses
	t.TotalExpenses += other.TotalExpenses
	t.TotalFinal += other.TotalFinal
	t.TotalIncome += other.TotalIncome
	t.DebtsCash += other.DebtsCash
	t.DebtsYape += other.DebtsYape
}

// Policy is one generation of the reconciliation formula. The shortage
// rule changed meaning over the system's life; both generations stay
// implemented and the active one is chosen by configuration.
type Policy interface {
	Name() string
	Compute(logs []dailylog.Log, expenses []expense.Expense, paidDebts, pendingDebts []debt.Debt) DailyTotals
}

// base sums the parts every policy generation shares: log incomes,
// debt partitions by payment method, pending totals and the expense
// split.
type base struct {
	cashFromLogs  float64
	yapeFromLogs  float64
	nightShift    float64
	declared      float64
	totalRegister float64
	debtsCash     float64
	debtsYape     float64
	pending       float64
	staffPayment  float64
	totalExpenses float64
}

func sumParts(logs []dailylog.Log, expenses []expense.Expense, paidDebts, pendingDebts []debt.Debt) base {
	var b base
	for _, log := range logs {
		b.cashFromLogs += log.CashIncome
		b.yapeFromLogs += log.YapeIncome
		b.nightShift += log.NightShiftIncome
		b.declared += log.ShortageAmount
		b.totalRegister += log.TotalRegister
	}
	// Paid debts are pre-filtered to those CREATED on the date under
	// evaluation; the settlement may have happened weeks later. The
	// sale belongs to the day it was rung up.
	for _, d := range paidDebts {
		switch d.PaymentMethod {
		case debt.PayCash:
			b.debtsCash += d.Amount
		case debt.PayYape:
			b.debtsYape += d.Amount
		}
	}
	for _, d := range pendingDebts {
		b.pending += d.Amount
	}
	for _, e := range expenses {
		b.totalExpenses += e.Amount
		if e.Category == expense.CategoryStaffPayment {
			b.staffPayment += e.Amount
		}
	}
	return b
}

func (b base) fill(t *DailyTotals) {
	t.CashIncome = b.cashFromLogs + b.debtsCash
	t.YapeIncome = b.yapeFromLogs + b.debtsYape
	t.NightShift = b.nightShift
	t.TotalRegister = b.totalRegister
	t.PendingDebts = b.pending
	t.StaffPayment = b.staffPayment
	t.OtherExpenses = b.totalExpenses - b.staffPayment
	t.TotalExpenses = b.totalExpenses
	t.TotalIncome = t.CashIncome + t.YapeIncome + b.nightShift
	t.DebtsCash = b.debtsCash
	t.DebtsYape = b.debtsYape
}

// RegisterPolicy is the current formula generation: shortage is
// derived from the till software's reported total, and the day's net
// result starts from that total. A day without a register reading has
// no shortage by definition.
type RegisterPolicy struct{}

// Name implements Policy.
func (RegisterPolicy) Name() string { return "register" }

// Compute implements Policy.
func (RegisterPolicy) Compute(logs []dailylog.Log, expenses []expense.Expense, paidDebts, pendingDebts []debt.Debt) DailyTotals {
	b := sumParts(logs, expenses, paidDebts, pendingDebts)

	var t DailyTotals
	b.fill(&t)

	// The till total should equal everything collected plus sales rung
	// up but still owed. Positive shortage means money is missing;
	// negative is an overage, not an error.
	if b.totalRegister > 0 {
		t.Shortage = b.totalRegister - (t.CashIncome + t.YapeIncome + b.pending)
	}
	t.TotalFinal = b.totalRegister + b.nightShift - t.StaffPayment - t.OtherExpenses
	return t
}

// DeclaredPolicy is the legacy generation: the shortage was typed in
// by the operator on the log row and simply summed, and the net result
// was gross income minus expenses.
type DeclaredPolicy struct{}

// Name implements Policy.
func (DeclaredPolicy) Name() string { return "declared" }

// Compute implements Policy.
func (DeclaredPolicy) Compute(logs []dailylog.Log, expenses []expense.Expense, paidDebts, pendingDebts []debt.Debt) DailyTotals {
	b := sumParts(logs, expenses, paidDebts, pendingDebts)

	var t DailyTotals
	b.fill(&t)
	t.Shortage = b.declared
	t.TotalFinal = t.TotalIncome - t.TotalExpenses
	return t
}

// PolicyByName resolves a configured policy name, defaulting to the
// register generation.
func PolicyByName(name string) Policy {
	if name == "declared" {
		return DeclaredPolicy{}
	}
	return RegisterPolicy{}
}

// ComputeDailyTotals applies the canonical (register) policy.
func ComputeDailyTotals(logs []dailylog.Log, expenses []expense.Expense, paidDebts, pendingDebts []debt.Debt) DailyTotals {
	return RegisterPolicy{}.Compute(logs, expenses, paidDebts, pendingDebts)
}
