package loan

import (
	"fmt"
	"time"
)

// =============================================================================
// CALENDAR DATE - Day-granularity time abstraction
// =============================================================================

// CalendarDate is an immutable calendar day with no time-of-day component.
// All dates live in UTC so that day arithmetic is exact and never shifts
// across daylight-saving boundaries.
type CalendarDate struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// Constructors
func NewDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// MustParseDate is ParseDate for trusted literals (tests, fixtures).
// Returns the zero date on failure.
func MustParseDate(s string) CalendarDate {
	d, err := ParseDate(s)
	if err != nil {
		return CalendarDate{}
	}
	return d
}

func Today() CalendarDate {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// FromTime truncates a time.Time to its UTC calendar day.
func FromTime(t time.Time) CalendarDate {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Comparison
func (d CalendarDate) Before(other CalendarDate) bool        { return d.t.Before(other.t) }
func (d CalendarDate) After(other CalendarDate) bool         { return d.t.After(other.t) }
func (d CalendarDate) Equal(other CalendarDate) bool         { return d.t.Equal(other.t) }
func (d CalendarDate) BeforeOrEqual(other CalendarDate) bool { return !d.t.After(other.t) }
func (d CalendarDate) AfterOrEqual(other CalendarDate) bool  { return !d.t.Before(other.t) }
func (d CalendarDate) IsZero() bool                          { return d.t.IsZero() }

// Compare returns -1, 0, or +1 (useful as a sort key).
func (d CalendarDate) Compare(other CalendarDate) int {
	switch {
	case d.t.Before(other.t):
		return -1
	case d.t.After(other.t):
		return 1
	default:
		return 0
	}
}

// Arithmetic
func (d CalendarDate) AddDays(n int) CalendarDate {
	return CalendarDate{t: d.t.AddDate(0, 0, n)}
}

// AddMonths advances by n calendar months, preserving the day-of-month
// unless the target month is shorter, in which case the day clamps to the
// last valid day of that month (Jan 31 + 1 month = Feb 28/29).
//
// Note: time.AddDate does NOT clamp (Jan 31 + 1 month rolls into March),
// so the clamp is done by hand. Clamping is stable: stepping month by
// month from a clamped date never recovers the original day-of-month.
func (d CalendarDate) AddMonths(n int) CalendarDate {
	first := time.Date(d.t.Year(), d.t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := d.t.Day()
	if day > lastDay {
		day = lastDay
	}
	return NewDate(first.Year(), first.Month(), day)
}

// DaysBetween returns the whole-day count from a to b.
// Defined for a <= b; clamps to 0 when a > b so a reversed span can never
// leak a negative count into interest math.
func DaysBetween(a, b CalendarDate) int {
	days := int(b.t.Sub(a.t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Properties
func (d CalendarDate) Year() int         { return d.t.Year() }
func (d CalendarDate) Month() time.Month { return d.t.Month() }
func (d CalendarDate) Day() int          { return d.t.Day() }

// String renders the unambiguous YYYY-MM-DD form used everywhere:
// display, JSON, and event-sorting keys.
func (d CalendarDate) String() string {
	return d.t.Format(dateLayout)
}

// MarshalJSON encodes as "YYYY-MM-DD".
func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes from "YYYY-MM-DD".
func (d *CalendarDate) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid date json: %s", b)
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MinDate / MaxDate helpers for window arithmetic.
func MinDate(a, b CalendarDate) CalendarDate {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxDate(a, b CalendarDate) CalendarDate {
	if a.After(b) {
		return a
	}
	return b
}
