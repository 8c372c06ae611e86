package engine

import (
	"context"
	"time"
)

// =============================================================================
// DATE - Calendar day (the engine never cares about time-of-day)
// =============================================================================

// Date is a calendar date normalized to UTC midnight. Request ranges and
// blackout ranges are inclusive on both ends.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic & properties
func (d Date) AddDays(n int) Date    { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }
func (d Date) String() string        { return d.t.Format("2006-01-02") }

// DisplayString renders a date the way conflict details name recurring
// hits, e.g. "Friday, Mar 14".
func (d Date) DisplayString() string { return d.t.Format("Monday, Jan 02") }

// =============================================================================
// DATE RANGE - Inclusive [Start, End]
// =============================================================================

type DateRange struct {
	Start Date
	End   Date
}

func NewDateRange(start, end Date) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{Start: start, End: end}, nil
}

// Overlaps returns true if the two inclusive ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(r.End)
}

// Contains returns true if the day falls within the range.
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns every day in the range, in order.
func (r DateRange) Days() []Date {
	var days []Date
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// DaysOnWeekdays returns the days in the range that fall on one of the
// given weekdays, in order.
func (r DateRange) DaysOnWeekdays(weekdays []time.Weekday) []Date {
	set := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		set[wd] = true
	}
	var days []Date
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		if set[d.Weekday()] {
			days = append(days, d)
		}
	}
	return days
}

// =============================================================================
// HOLIDAY CALENDAR - Company holidays waive holiday-flagged blackouts
// =============================================================================

// HolidayCalendar answers whether a request range touches a company holiday.
type HolidayCalendar interface {
	// AnyHolidayBetween returns true if any company holiday falls within
	// [start, end] inclusive.
	AnyHolidayBetween(ctx context.Context, start, end Date) (bool, error)
}

// NoHolidays is a calendar with no holidays, for when the catalog is
// unavailable or holidays are disabled.
type NoHolidays struct{}

func (NoHolidays) AnyHolidayBetween(context.Context, Date, Date) (bool, error) { return false, nil }
