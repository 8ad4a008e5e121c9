package dailylog

import (
	"time"

	"github.com/cybercaja/cybercaja/internal/bizdate"
)

// Log is one register-closing entry for a business date. Entries are
// append-only: a date may hold several logs and the reconciliation
// engine sums them.
type Log struct {
	ID               int64        `json:"id"`
	Date             bizdate.Date `json:"date"`
	CashIncome       float64      `json:"cash_income"`
	YapeIncome       float64      `json:"yape_income"`
	NightShiftIncome float64      `json:"night_shift_income"`
	// ShortageAmount is the manually declared shortage from the old
	// schema. New entries leave it zero; the register policy derives
	// shortage from TotalRegister instead.
	ShortageAmount float64 `json:"shortage_amount"`
	// TotalRegister is the till software's self-reported gross total.
	TotalRegister float64   `json:"total_register"`
	Notes         string    `json:"notes"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Input carries the fields for a new log entry.
type Input struct {
	Date             bizdate.Date
	CashIncome       float64
	YapeIncome       float64
	NightShiftIncome float64
	ShortageAmount   float64
	TotalRegister    float64
	Notes            string
	CreatedBy        int64
}
