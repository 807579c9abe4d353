package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used for display and as lookup keys. All are fixed width and zero padded.
const (
	LayoutDayMonth    = "02/01"
	LayoutDate        = "02/01/2006"
	LayoutISODate     = "2006-01-02"
	LayoutClock       = "15:04"
	LayoutISODateTime = time.RFC3339
)

var naiveDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ToDayOfWeek converts Go's weekday numbering (Sunday=0) into the stored numbering (Monday=1 ... Sunday=7).
// It is the only place that conversion happens.
func ToDayOfWeek(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

// ToWeekday is the inverse of ToDayOfWeek. It reports false for values outside 1..7.
func ToWeekday(day int) (time.Weekday, bool) {
	if !ValidDayOfWeek(day) {
		return time.Sunday, false
	}
	if day == 7 {
		return time.Sunday, true
	}
	return time.Weekday(day), true
}

// ValidDayOfWeek reports whether day is within 1..7.
func ValidDayOfWeek(day int) bool {
	return day >= 1 && day <= 7
}

// DayOfWeek returns the stored numbering for the calendar day of t.
func DayOfWeek(t time.Time) int {
	return ToDayOfWeek(t.Weekday())
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Monday of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	day := int(t.Weekday())
	diff := 1 - day
	if day == 0 {
		diff = -6
	}
	return AddDays(StartOfDay(t), diff)
}

// AddDays shifts t by n calendar days keeping the wall clock, so DST changes do not move the time of day.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DateKey formats t as yyyy-MM-dd. Calendar-day equality must go through this key.
func DateKey(t time.Time) string {
	return t.Format(LayoutISODate)
}

// SameDay compares two instants by their yyyy-MM-dd key.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// FormatDayMonth formats t as dd/MM.
func FormatDayMonth(t time.Time) string {
	return t.Format(LayoutDayMonth)
}

// FormatDate formats t as dd/MM/yyyy.
func FormatDate(t time.Time) string {
	return t.Format(LayoutDate)
}

// FormatISODate formats t as yyyy-MM-dd.
func FormatISODate(t time.Time) string {
	return t.Format(LayoutISODate)
}

// FormatISODateTime formats t as RFC3339 with its offset.
func FormatISODateTime(t time.Time) string {
	return t.Format(LayoutISODateTime)
}

// FormatClock formats the time of day of t as HH:mm.
func FormatClock(t time.Time) string {
	return t.Format(LayoutClock)
}

// ParseDate parses a yyyy-MM-dd string as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(LayoutISODate, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// ParseISODateTime parses an RFC3339 timestamp, or a timestamp without offset interpreted in loc.
// The result is always expressed in loc.
func ParseISODateTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse datetime %q: unsupported format", raw)
}

// DateIn returns midnight in loc of the calendar day t carries in its own location. Stored DATE
// values come back as UTC midnight and must keep their day when moved to the scheduler timezone.
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
