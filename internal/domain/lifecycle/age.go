// internal/domain/lifecycle/age.go
package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput is returned for a missing, unparseable or future birth date.
var ErrInvalidInput = errors.New("invalid lifecycle input")

const dateLayout = "2006-01-02"

// Age is a calendar-correct age breakdown.
// TotalDays is the elapsed day count and is not derived from Years/Months/Days.
type Age struct {
	Years       int
	Months      int
	Days        int
	TotalDays   int
	TotalMonths int
}

func (a Age) String() string {
	return fmt.Sprintf("%dy %dm %dd", a.Years, a.Months, a.Days)
}

// StageInfo is the stage classification of a person on a reference date.
type StageInfo struct {
	Stage Stage
	Age   Age
	Next  *NextStage // nil for the last stage
}

// NextStage describes when a person crosses into the following stage.
type NextStage struct {
	Stage         Stage
	StartsOn      time.Time
	DaysRemaining int
}

// ParseDate parses a YYYY-MM-DD date into a date-only value.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birth date %q: %v", ErrInvalidInput, value, err)
	}
	return t, nil
}

// FormatDate renders a date-only value as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return DateOnly(t).Format(dateLayout)
}

// DateOnly drops the time of day, keeping the calendar date as seen in t's location.
// The result is midnight UTC so day arithmetic is never affected by DST.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths shifts a date by whole months. When the target month is shorter than
// the source day, the day is clamped to the month end (Jan 31 + 1 month = Feb 28,
// Feb 29 + 12 months = Feb 28 in a non-leap year).
func AddMonths(t time.Time, months int) time.Time {
	d := DateOnly(t)
	total := int(d.Month()) - 1 + months
	year := d.Year() + floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12 + 1)
	day := d.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddYears shifts a date by whole years with the same month-end clamping as AddMonths.
func AddYears(t time.Time, years int) time.Time {
	return AddMonths(t, years*12)
}

// DaysBetween is the number of calendar days from one date to another,
// comparing date-only values. It is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int((DateOnly(to).Unix() - DateOnly(from).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// AgeAt computes the age of someone born on birth as of today.
//
// The month count is the largest n such that birth shifted by n months does not
// pass today; days are counted from that anchor. When the birth day fits into the
// month preceding today this is the usual borrow-a-month subtraction.
func AgeAt(birth, today time.Time) (Age, error) {
	if birth.IsZero() {
		return Age{}, fmt.Errorf("%w: birth date is missing", ErrInvalidInput)
	}
	b, t := DateOnly(birth), DateOnly(today)
	if t.Before(b) {
		return Age{}, fmt.Errorf("%w: birth date %s is after reference date %s", ErrInvalidInput, FormatDate(b), FormatDate(t))
	}

	totalMonths := (t.Year()-b.Year())*12 + int(t.Month()) - int(b.Month())
	anchor := AddMonths(b, totalMonths)
	if anchor.After(t) {
		totalMonths--
		anchor = AddMonths(b, totalMonths)
	}

	return Age{
		Years:       totalMonths / 12,
		Months:      totalMonths % 12,
		Days:        DaysBetween(anchor, t),
		TotalDays:   DaysBetween(b, t),
		TotalMonths: totalMonths,
	}, nil
}

// StageAt classifies a person by age and reports when the next stage begins.
func StageAt(birth, today time.Time) (StageInfo, error) {
	age, err := AgeAt(birth, today)
	if err != nil {
		return StageInfo{}, err
	}

	info := StageInfo{
		Stage: StageForYears(age.Years),
		Age:   age,
	}
	if next, ok := info.Stage.Next(); ok {
		startsOn := AddYears(birth, next.MinYears())
		info.Next = &NextStage{
			Stage:         next,
			StartsOn:      startsOn,
			DaysRemaining: DaysBetween(today, startsOn),
		}
	}
	return info, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
