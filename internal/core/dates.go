package core

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date form used in receipts and queries.
const DateLayout = "2006-01-02"

// MonthLayout is the month token form accepted by the summary wrappers.
const MonthLayout = "2006-01"

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")
)

// ParseDate validates a YYYY-MM-DD token and returns its midnight-UTC time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Today returns the current date in YYYY-MM-DD form.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}

// MonthWindow expands a YYYY-MM token into the inclusive [first, last] day of
// that month. The end is derived as first-day-of-next-month minus one day, so
// December rolls into the next year and leap Februaries come out right.
func MonthWindow(month string) (start, end string, err error) {
	t, perr := time.Parse(MonthLayout, month)
	if perr != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}

// CurrentMonthWindow returns the window for the month containing now, plus the
// YYYY-MM token itself.
func CurrentMonthWindow(now time.Time) (start, end, month string) {
	month = now.UTC().Format(MonthLayout)
	start, end, _ = MonthWindow(month)
	return start, end, month
}
