package analytics

import (
	"errors"
	"fmt"
	"time"
)

// Month identifies one calendar month. The zero value means "unspecified"
// and resolves to the current month at summarize time.
type Month struct {
	Year  int
	Month time.Month
}

var ErrBadMonth = errors.New("month must be formatted as YYYY-MM")

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.UTC().Year(), Month: t.UTC().Month()}
}

// ParseMonth parses a YYYY-MM label.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, ErrBadMonth
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Start is the first instant of the month, UTC midnight on the 1st.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next is the following calendar month. Start of Next is the exclusive end
// of this month's half-open window.
func (m Month) Next() Month {
	return MonthOf(m.Start().AddDate(0, 1, 0))
}

// Shift moves the month by delta calendar months (negative for past).
func (m Month) Shift(delta int) Month {
	return MonthOf(m.Start().AddDate(0, delta, 0))
}

// String renders the YYYY-MM label used for trend points.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Contains reports whether t falls inside the month's half-open window
// [first of month, first of next month). The boundary instant at the start
// of the next month belongs entirely to that next month.
func (m Month) Contains(t time.Time) bool {
	return !t.Before(m.Start()) && t.Before(m.Next().Start())
}
