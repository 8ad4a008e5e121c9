package debt

import (
	"errors"
	"time"

	"github.com/cybercaja/cybercaja/internal/bizdate"
)

// Status tracks the debt lifecycle. PENDING is the only non-terminal
// state; PAID and CANCELLED admit no further transitions.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// PaymentMethod is how a paid debt was settled.
type PaymentMethod string

const (
	PayCash PaymentMethod = "CASH"
	PayYape PaymentMethod = "YAPE"
)

// Valid reports whether the method is one of the known values.
func (m PaymentMethod) Valid() bool {
	return m == PayCash || m == PayYape
}

var (
	// ErrInvalidTransition indicates a pay or cancel attempted on a
	// debt that is no longer PENDING.
	ErrInvalidTransition = errors.New("debt: invalid state transition")
	// ErrConsistency indicates a payment business-dated before the
	// debt was incurred.
	ErrConsistency = errors.New("debt: payment date precedes creation date")
)

// Debt is a customer's outstanding balance. Date is the business date
// the debt was incurred; a paid debt's amount is attributed to that
// date's income, never to PaymentDate. PaymentDate is the business
// date of settlement, PaidAt the audit instant.
type Debt struct {
	ID            int64         `json:"id"`
	CustomerName  string        `json:"customer_name"`
	Amount        float64       `json:"amount"`
	Date          bizdate.Date  `json:"date"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	PaymentDate   *bizdate.Date `json:"payment_date,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CreatedBy     int64         `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
}

// CreateInput carries the fields for issuing a debt.
type CreateInput struct {
	CustomerName string
	Amount       float64
	Date         bizdate.Date
	CreatedBy    int64
}

// QueryFilter narrows a paginated debt listing.
type QueryFilter struct {
	Status     Status
	StartDate  bizdate.Date
	EndDate    bizdate.Date
	SearchTerm string
	Page       int
	PageSize   int
}
