// Package dashboard derives month-level KPI figures from the history
// aggregation for the landing view.
package dashboard

import (
	"context"
	"time"

	"github.com/cybercaja/cybercaja/internal/history"
)

// Metrics is the month summary shown on the dashboard.
type Metrics struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	CashIncome    float64 `json:"cash_income"`
	YapeIncome    float64 `json:"yape_income"`
	NightShift    float64 `json:"night_shift"`
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Shortage      float64 `json:"shortage"`
	PendingDebts  float64 `json:"pending_debts"`
	NetProfit     float64 `json:"net_profit"`
	ActiveDays    int     `json:"active_days"`
}

// Aggregator produces the month view the metrics derive from.
type Aggregator interface {
	Aggregate(ctx context.Context, year int, month time.Month) (*history.MonthView, error)
}

// Service computes dashboard metrics.
type Service struct {
	aggregator Aggregator
}

// NewService builds Service instance.
func NewService(aggregator Aggregator) *Service {
	return &Service{aggregator: aggregator}
}

// MonthMetrics reduces the month view to the KPI figures.
func (s *Service) MonthMetrics(ctx context.Context, year int, month time.Month) (*Metrics, error) {
	view, err := s.aggregator.Aggregate(ctx, year, month)
	if err != nil {
		return nil, err
	}
	t := view.Totals
	return &Metrics{
		Year:          year,
		Month:         int(month),
		CashIncome:    t.CashIncome,
		YapeIncome:    t.YapeIncome,
		NightShift:    t.NightShift,
		TotalIncome:   t.TotalIncome,
		TotalExpenses: t.TotalExpenses,
		Shortage:      t.Shortage,
		PendingDebts:  t.PendingDebts,
		NetProfit:     t.TotalIncome - t.TotalExpenses,
		ActiveDays:    len(view.Rows),
	}, nil
}
