package calendar

import "time"

// Occurrence is one dated instance of a weekly window.
type Occurrence struct {
	Date  time.Time
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// OffsetToWeekday returns how many days after from the first day with the given day-of-week falls (0..6).
func OffsetToWeekday(from time.Time, dayOfWeek int) int {
	return (dayOfWeek - DayOfWeek(from) + 7) % 7
}

// ExpandWeekly produces every date within [from, to] (both inclusive, compared by calendar day)
// falling on dayOfWeek, paired with the start/end clock. Dates are built in loc; from and to are
// converted to loc before their calendar day is taken. An empty result is not an error.
func ExpandWeekly(dayOfWeek int, start, end Clock, from, to time.Time, loc *time.Location) []Occurrence {
	if !ValidDayOfWeek(dayOfWeek) {
		return nil
	}
	if loc == nil {
		loc = from.Location()
	}
	first := StartOfDay(from.In(loc))
	last := StartOfDay(to.In(loc))
	if DaysBetween(first, last) < 0 {
		return nil
	}

	current := AddDays(first, OffsetToWeekday(first, dayOfWeek))
	var occurrences []Occurrence
	for DaysBetween(current, last) >= 0 {
		occurrences = append(occurrences, Occurrence{
			Date:  current,
			Start: start.On(current),
			End:   end.On(current),
		})
		current = AddDays(current, 7)
	}
	return occurrences
}

// ClipRange intersects two inclusive date ranges. ok is false when they do not meet.
func ClipRange(aFrom, aTo, bFrom, bTo time.Time) (from, to time.Time, ok bool) {
	from = aFrom
	if DaysBetween(from, bFrom) > 0 {
		from = bFrom
	}
	to = aTo
	if DaysBetween(bTo, to) > 0 {
		to = bTo
	}
	if DaysBetween(from, to) < 0 {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
