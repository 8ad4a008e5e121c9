// Package bizdate is the single source of truth for business dates:
// the calendar day an event belongs to as observed in America/Lima,
// as opposed to the UTC instant it was recorded at.
package bizdate

import (
	"errors"
	"fmt"
	"time"
)

// Timezone is the business timezone. Peru has no DST, so the offset is
// a constant UTC-05:00 year round.
const Timezone = "America/Lima"

const isoLayout = "2006-01-02"

// ErrInvalidFormat indicates a date string that is not a valid
// ISO calendar date.
var ErrInvalidFormat = errors.New("bizdate: invalid date format")

var limaLocation = loadLima()

func loadLima() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		return time.FixedZone("-05", -5*60*60)
	}
	return loc
}

// Location returns the America/Lima location.
func Location() *time.Location {
	return limaLocation
}

// Date is a business calendar date. The zero value is not a valid date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse reads an ISO YYYY-MM-DD string into a Date.
func Parse(s string) (Date, error) {
	t, err := time.ParseInLocation(isoLayout, s, limaLocation)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MustParse is Parse for compile-time constants in tests and seeds.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current calendar date in America/Lima, regardless
// of the host machine timezone.
func Today() Date {
	return FromInstant(time.Now())
}

// FromInstant extracts the America/Lima calendar date from an instant.
// The instant is shifted into the Lima offset before the year, month
// and day are read; truncating in UTC would move late-evening events
// onto the next day (23:30 Lima is 04:30Z).
func FromInstant(t time.Time) Date {
	local := t.In(limaLocation)
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// FromDateOnly reads the calendar components of t as-is, without any
// timezone shift. Use it for DATE columns scanned into a time.Time:
// the driver reports those at UTC midnight, and shifting UTC midnight
// into Lima would land on the previous day.
func FromDateOnly(t time.Time) Date {
	y, m, day := t.Date()
	return Date{Year: y, Month: m, Day: day}
}

// String renders the canonical ISO YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DisplayString renders DD/MM/YYYY for user-facing messages.
func (d Date) DisplayString() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// ParseDisplay reads the DD/MM/YYYY display form back into a Date.
func ParseDisplay(s string) (Date, error) {
	t, err := time.ParseInLocation("02/01/2006", s, limaLocation)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MarshalText renders the ISO form for JSON and text encoders.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses the ISO form for JSON and text decoders.
func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Compare returns -1, 0 or +1 ordering d against other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is later than other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool { return d.Compare(other) == 0 }

// IsFuture reports whether d is later than today in business terms.
func (d Date) IsFuture() bool {
	return d.After(Today())
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	t := time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, limaLocation)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// StartOfDay returns midnight of d in America/Lima.
func (d Date) StartOfDay() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, limaLocation)
}

// CombineWithCurrentTime pairs the business date with the current
// wall-clock time in Lima. Audit timestamps built this way record
// "when, on this business date, the action actually happened" and
// convert to the correct UTC instant when stored.
func (d Date) CombineWithCurrentTime(now time.Time) time.Time {
	local := now.In(limaLocation)
	return time.Date(d.Year, d.Month, d.Day, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), limaLocation)
}

// IsValidActionDate reports whether an action business-dated action
// may follow a record created at ref: the action date must not be
// earlier than ref's Lima calendar date.
func IsValidActionDate(action Date, ref time.Time) bool {
	return !action.Before(FromInstant(ref))
}

// MonthRange returns the first and last calendar day of a month.
func MonthRange(year int, month time.Month) (Date, Date) {
	first := Date{Year: year, Month: month, Day: 1}
	// day zero of the next month is the last day of this one
	t := time.Date(year, month+1, 0, 0, 0, 0, 0, limaLocation)
	last := Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	return first, last
}

// DaysOfMonth lists every calendar day of a month ascending.
func DaysOfMonth(year int, month time.Month) []Date {
	first, last := MonthRange(year, month)
	days := make([]Date, 0, last.Day)
	for d := first; !d.After(last); d = d.Next() {
		days = append(days, d)
	}
	return days
}
