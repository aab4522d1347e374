package schedule

import "time"

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DateOf truncates t to its calendar date, expressed in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ISOWeekStart returns the Monday of the given ISO week; week 1 contains Jan 4.
func ISOWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -(ISOWeekday(jan4) - 1))
	return monday.AddDate(0, 0, 7*(week-1))
}

// ISOWeekRange returns the inclusive date range spanned by weeks startWeek..endWeek.
func ISOWeekRange(year, startWeek, endWeek int) (time.Time, time.Time) {
	from := ISOWeekStart(year, startWeek)
	to := ISOWeekStart(year, endWeek).AddDate(0, 0, 6)
	return from, to
}

// WeekdayDate returns the date of weekday inside the given ISO week.
func WeekdayDate(year, week, weekday int) time.Time {
	return ISOWeekStart(year, week).AddDate(0, 0, weekday-1)
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in year.
func WeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}
