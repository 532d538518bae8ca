// Package period models the monthly accounting period and its persisted document.
package period

import (
	"fmt"
	"time"
)

const (
	keyLayout  = "2006-01"
	dateLayout = "2006-01-02"
)

// Key identifies a calendar month, formatted YYYY-MM.
type Key string

// KeyOf returns the period key for the calendar month of t.
func KeyOf(t time.Time) Key {
	return Key(t.Format(keyLayout))
}

// ParseKey validates a YYYY-MM string.
func ParseKey(s string) (Key, error) {
	if _, err := time.Parse(keyLayout, s); err != nil {
		return "", fmt.Errorf("invalid period key %q: %w", s, err)
	}
	return Key(s), nil
}

// Start returns midnight UTC on the first day of the month.
func (k Key) Start() time.Time {
	t, err := time.Parse(keyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Previous returns the preceding calendar month. January rolls back to
// December of the previous year.
func (k Key) Previous() Key {
	s := k.Start()
	return KeyOf(time.Date(s.Year(), s.Month()-1, 1, 0, 0, 0, 0, time.UTC))
}

func (k Key) String() string { return string(k) }

// Date is a calendar date formatted YYYY-MM-DD. The zero value means "never".
type Date string

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == "" }

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) (int, error) {
	from, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", d, err)
	}
	to, err := time.Parse(dateLayout, string(other))
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", other, err)
	}
	return int(to.Sub(from).Hours() / 24), nil
}

// EffectiveResetDay clamps the configured reset day to the length of t's month,
// so a reset day of 31 fires on the 30th in April.
func EffectiveResetDay(resetDay int, t time.Time) int {
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if resetDay > last {
		return last
	}
	return resetDay
}

// NextReset returns the date of the next reset strictly after t's date.
func NextReset(resetDay int, t time.Time) Date {
	day := EffectiveResetDay(resetDay, t)
	if t.Day() < day {
		return DateOf(time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, t.Location()))
	}
	next := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return DateOf(time.Date(next.Year(), next.Month(), EffectiveResetDay(resetDay, next), 0, 0, 0, 0, t.Location()))
}
