package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, jakarta)
}

func TestToDayOfWeekRoundTrip(t *testing.T) {
	cases := []struct {
		weekday time.Weekday
		day     int
	}{
		{time.Monday, 1},
		{time.Tuesday, 2},
		{time.Wednesday, 3},
		{time.Thursday, 4},
		{time.Friday, 5},
		{time.Saturday, 6},
		{time.Sunday, 7},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.day, ToDayOfWeek(tc.weekday), tc.weekday.String())
		w, ok := ToWeekday(tc.day)
		require.True(t, ok)
		assert.Equal(t, tc.weekday, w)
	}

	_, ok := ToWeekday(0)
	assert.False(t, ok)
	_, ok = ToWeekday(8)
	assert.False(t, ok)
}

func TestStartOfWeek(t *testing.T) {
	monday := date(2025, time.January, 6)

	assert.Equal(t, monday, StartOfWeek(monday))
	assert.Equal(t, monday, StartOfWeek(time.Date(2025, time.January, 8, 17, 45, 0, 0, jakarta)))
	// Sunday belongs to the week that started six days earlier.
	assert.Equal(t, monday, StartOfWeek(time.Date(2025, time.January, 12, 23, 59, 0, 0, jakarta)))
	assert.Equal(t, date(2025, time.January, 13), StartOfWeek(date(2025, time.January, 13)))
}

func TestFormatting(t *testing.T) {
	ts := time.Date(2025, time.March, 4, 9, 5, 0, 0, jakarta)

	assert.Equal(t, "04/03", FormatDayMonth(ts))
	assert.Equal(t, "04/03/2025", FormatDate(ts))
	assert.Equal(t, "2025-03-04", FormatISODate(ts))
	assert.Equal(t, "09:05", FormatClock(ts))
	assert.Equal(t, "2025-03-04T09:05:00+07:00", FormatISODateTime(ts))
}

func TestSameDayComparesByKey(t *testing.T) {
	utcEvening := time.Date(2025, time.January, 5, 18, 0, 0, 0, time.UTC)
	// Same instant viewed from Jakarta is already the next calendar day.
	local := utcEvening.In(jakarta)

	assert.False(t, SameDay(utcEvening, local))
	assert.True(t, SameDay(local, date(2025, time.January, 6)))
}

func TestParseISODateTime(t *testing.T) {
	parsed, err := ParseISODateTime("2025-01-06T16:00:00+07:00", jakarta)
	require.NoError(t, err)
	assert.Equal(t, "16:00", FormatClock(parsed))

	naive, err := ParseISODateTime("2025-01-06T16:00", jakarta)
	require.NoError(t, err)
	assert.True(t, naive.Equal(parsed))

	fromUTC, err := ParseISODateTime("2025-01-06T09:00:00Z", jakarta)
	require.NoError(t, err)
	assert.Equal(t, "16:00", FormatClock(fromUTC))

	_, err = ParseISODateTime("06/01/2025 16:00", jakarta)
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("16:00:00")
	require.NoError(t, err)
	assert.Equal(t, "16:00", c.String())

	c, err = ParseClock("9:5")
	require.NoError(t, err)
	assert.Equal(t, "09:05", c.String())

	for _, raw := range []string{"", "24:00", "12:60", "12", "12:00:30", "ab:cd"} {
		_, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
}

func TestExpandWeeklyThreeMondays(t *testing.T) {
	start := MustParseClock("16:00")
	end := MustParseClock("18:00")

	occ := ExpandWeekly(1, start, end, date(2025, time.January, 6), date(2025, time.January, 26), jakarta)

	require.Len(t, occ, 3)
	assert.Equal(t, "2025-01-06", DateKey(occ[0].Date))
	assert.Equal(t, "2025-01-13", DateKey(occ[1].Date))
	assert.Equal(t, "2025-01-20", DateKey(occ[2].Date))
	assert.Equal(t, time.Date(2025, time.January, 13, 16, 0, 0, 0, jakarta), occ[1].Start)
	assert.Equal(t, time.Date(2025, time.January, 13, 18, 0, 0, 0, jakarta), occ[1].End)
}

func TestExpandWeeklyInclusiveBoundaries(t *testing.T) {
	start := MustParseClock("08:00")
	end := MustParseClock("09:00")

	// Range starts and ends on a Sunday.
	occ := ExpandWeekly(7, start, end, date(2025, time.January, 5), date(2025, time.January, 19), jakarta)
	require.Len(t, occ, 3)
	assert.Equal(t, "2025-01-05", DateKey(occ[0].Date))
	assert.Equal(t, "2025-01-19", DateKey(occ[2].Date))

	// Range end given with a late time of day still includes that day.
	occ = ExpandWeekly(3, start, end, date(2025, time.January, 6), time.Date(2025, time.January, 8, 23, 0, 0, 0, jakarta), jakarta)
	require.Len(t, occ, 1)
}

func TestExpandWeeklyEmptyResults(t *testing.T) {
	start := MustParseClock("08:00")
	end := MustParseClock("09:00")

	// Tuesday to Thursday never contains a Monday.
	assert.Empty(t, ExpandWeekly(1, start, end, date(2025, time.January, 7), date(2025, time.January, 9), jakarta))
	// Inverted range.
	assert.Empty(t, ExpandWeekly(1, start, end, date(2025, time.January, 20), date(2025, time.January, 6), jakarta))
	// Invalid day.
	assert.Empty(t, ExpandWeekly(0, start, end, date(2025, time.January, 6), date(2025, time.January, 26), jakarta))
}

func TestExpandWeeklyMatchesDayByDayScan(t *testing.T) {
	start := MustParseClock("16:00")
	end := MustParseClock("18:00")
	origin := date(2025, time.January, 1)

	for offset := 0; offset < 7; offset++ {
		from := AddDays(origin, offset)
		for span := 0; span < 40; span++ {
			to := AddDays(from, span)
			for day := 1; day <= 7; day++ {
				var expected []string
				for d := from; DaysBetween(d, to) >= 0; d = AddDays(d, 1) {
					if DayOfWeek(d) == day {
						expected = append(expected, DateKey(d))
					}
				}

				occ := ExpandWeekly(day, start, end, from, to, jakarta)
				got := make([]string, 0, len(occ))
				for _, o := range occ {
					got = append(got, DateKey(o.Date))
				}
				require.Equal(t, len(expected), len(got), "day=%d from=%s to=%s", day, DateKey(from), DateKey(to))
				if len(expected) > 0 {
					assert.Equal(t, expected, got)
				}

				first := OffsetToWeekday(from, day)
				want := 0
				if first <= span {
					want = (span-first)/7 + 1
				}
				assert.Equal(t, want, len(occ))
			}
		}
	}
}

func TestOverlapsIsSymmetric(t *testing.T) {
	base := time.Date(2025, time.January, 6, 0, 0, 0, 0, jakarta)
	at := func(h, m int) time.Time { return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	intervals := [][2]time.Time{
		{at(16, 0), at(18, 0)},
		{at(17, 0), at(19, 0)},
		{at(18, 0), at(20, 0)},
		{at(15, 0), at(21, 0)},
		{at(16, 30), at(17, 0)},
		{at(20, 0), at(22, 0)},
	}
	for _, a := range intervals {
		for _, b := range intervals {
			assert.Equal(t, Overlaps(a[0], a[1], b[0], b[1]), Overlaps(b[0], b[1], a[0], a[1]))
		}
	}

	assert.True(t, Overlaps(at(16, 0), at(18, 0), at(17, 0), at(19, 0)))
	// Touching endpoints do not overlap.
	assert.False(t, Overlaps(at(16, 0), at(18, 0), at(18, 0), at(20, 0)))
}

func TestClipRange(t *testing.T) {
	from, to, ok := ClipRange(date(2025, time.January, 1), date(2025, time.January, 31), date(2025, time.January, 10), date(2025, time.February, 10))
	require.True(t, ok)
	assert.Equal(t, "2025-01-10", DateKey(from))
	assert.Equal(t, "2025-01-31", DateKey(to))

	_, _, ok = ClipRange(date(2025, time.January, 1), date(2025, time.January, 5), date(2025, time.January, 6), date(2025, time.January, 9))
	assert.False(t, ok)
}

func TestDateInKeepsCalendarDay(t *testing.T) {
	stored := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	west := time.FixedZone("UTC-5", -5*60*60)

	moved := DateIn(stored, west)
	assert.Equal(t, "2025-01-06", DateKey(moved))
	assert.Equal(t, 0, moved.Hour())
	assert.Equal(t, "2025-01-06", DateKey(DateIn(stored, jakarta)))
}
