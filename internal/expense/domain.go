package expense

import (
	"time"

	"github.com/cybercaja/cybercaja/internal/bizdate"
)

// Category classifies an expense. Staff payments are broken out of the
// day's net result separately from everything else.
type Category string

const (
	CategoryStaffPayment Category = "STAFF_PAYMENT"
	CategorySupplies     Category = "SUPPLIES"
	CategoryOther        Category = "OTHER"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryStaffPayment, CategorySupplies, CategoryOther:
		return true
	}
	return false
}

// Expense is one discretionary outflow on a business date.
type Expense struct {
	ID       int64    `json:"id"`
	Category Category `json:"category"`
	// Beneficiary names who was paid when the category is STAFF_PAYMENT.
	Beneficiary string       `json:"beneficiary,omitempty"`
	Description string       `json:"description,omitempty"`
	Amount      float64      `json:"amount"`
	Date        bizdate.Date `json:"date"`
	CreatedBy   int64        `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Input carries the fields for a new expense.
type Input struct {
	Category    Category
	Beneficiary string
	Description string
	Amount      float64
	Date        bizdate.Date
	CreatedBy   int64
}
