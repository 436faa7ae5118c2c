package ledger

import (
	"fmt"
	"time"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
)

// DateLayout is the calendar date format used at every external boundary
const DateLayout = "2006-01-02"

// MonthLayout keys monthly periods
const MonthLayout = "2006-01"

// DateRange is an inclusive calendar date range. Both ends are truncated to
// midnight UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates and normalizes a range
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, errors.NewInvalidRangeError("start and end dates are required")
	}
	r := DateRange{Start: Day(start), End: Day(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, errors.NewInvalidRangeError(
			fmt.Sprintf("end date %s is before start date %s", r.End.Format(DateLayout), r.Start.Format(DateLayout)))
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD strings
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, errors.NewInvalidRangeError(fmt.Sprintf("malformed start date %q", start)).WithCause(err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, errors.NewInvalidRangeError(fmt.Sprintf("malformed end date %q", end)).WithCause(err)
	}
	return NewDateRange(s, e)
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls on a day inside the range
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days covered
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// PriorYear returns the same calendar period one year earlier. Feb 29 maps to
// Feb 28 rather than rolling into March.
func (r DateRange) PriorYear() DateRange {
	return DateRange{Start: yearBack(r.Start), End: yearBack(r.End)}
}

// TrailingDays returns the range of exactly days calendar days ending at r.End
func (r DateRange) TrailingDays(days int) DateRange {
	return DateRange{Start: r.End.AddDate(0, 0, -(days - 1)), End: r.End}
}

// CompleteMonths returns the n whole calendar months before the month of t.
// The month containing t is still in progress and is never included.
func CompleteMonths(t time.Time, n int) (DateRange, error) {
	if n <= 0 {
		return DateRange{}, errors.NewInvalidRangeError(fmt.Sprintf("month count must be positive, got %d", n))
	}
	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return NewDateRange(first.AddDate(0, -n, 0), first.AddDate(0, 0, -1))
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

func yearBack(t time.Time) time.Time {
	y, m, d := t.Date()
	if m == time.February && d == 29 {
		d = 28
	}
	return time.Date(y-1, m, d, 0, 0, 0, 0, time.UTC)
}
