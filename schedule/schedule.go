package schedule

import (
	"fmt"
	"time"
)

// Window is the operating window of one logical business day.
type Window struct {
	StartHour       int  `json:"start_hour" koanf:"start_hour"`
	EndHour         int  `json:"end_hour" koanf:"end_hour"`
	CrossesMidnight bool `json:"crosses_midnight" koanf:"crosses_midnight"`
}

// NewWindow builds a window from explicit hours. A start after the end means
// the window runs past midnight.
func NewWindow(startHour, endHour int) Window {
	return Window{StartHour: startHour, EndHour: endHour, CrossesMidnight: startHour > endHour}
}

// Contains reports whether hour is part of the window.
func (w Window) Contains(hour int) bool {
	if hour < 0 || hour > 23 {
		return false
	}
	if w.CrossesMidnight {
		return hour >= w.StartHour || hour <= w.EndHour
	}
	return hour >= w.StartHour && hour <= w.EndHour
}

// IsDawn reports whether hour falls in the after-midnight tail of a crossing window.
func (w Window) IsDawn(hour int) bool {
	return w.CrossesMidnight && hour >= 0 && hour <= w.EndHour
}

// SortKey orders hours in business-day order: dawn hours sort after 23:00.
func (w Window) SortKey(hour int) int {
	if w.CrossesMidnight && hour < w.StartHour {
		return hour + 24
	}
	return hour
}

// Hours lists the valid hours in business-day order.
func (w Window) Hours() []int {
	var hours []int
	if w.CrossesMidnight {
		for h := w.StartHour; h <= 23; h++ {
			hours = append(hours, h)
		}
		for h := 0; h <= w.EndHour; h++ {
			hours = append(hours, h)
		}
		return hours
	}
	for h := w.StartHour; h <= w.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Provider hands out the operating window of an ISO weekday (1=Monday..7=Sunday).
type Provider interface {
	Window(weekday int) Window
}

// Table is the per-weekday operating schedule.
type Table map[int]Window

// DefaultTable is the stock operating schedule of the stores.
func DefaultTable() Table {
	return Table{
		1: {StartHour: 12, EndHour: 23, CrossesMidnight: false},
		2: {StartHour: 9, EndHour: 23, CrossesMidnight: false},
		3: {StartHour: 9, EndHour: 0, CrossesMidnight: true},
		4: {StartHour: 9, EndHour: 1, CrossesMidnight: true},
		5: {StartHour: 8, EndHour: 2, CrossesMidnight: true},
		6: {StartHour: 8, EndHour: 2, CrossesMidnight: true},
		7: {StartHour: 8, EndHour: 22, CrossesMidnight: false},
	}
}

// Validate checks the table covers every weekday with sane hours.
func (t Table) Validate() error {
	for d := 1; d <= 7; d++ {
		w, ok := t[d]
		if !ok {
			return fmt.Errorf("schedule: missing weekday %d", d)
		}
		if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 {
			return fmt.Errorf("schedule: weekday %d hours %d-%d outside 0..23", d, w.StartHour, w.EndHour)
		}
		if w.CrossesMidnight != (w.StartHour > w.EndHour) {
			return fmt.Errorf("schedule: weekday %d crosses_midnight=%v contradicts hours %d-%d",
				d, w.CrossesMidnight, w.StartHour, w.EndHour)
		}
	}
	return nil
}

// Window returns the window for weekday. Callers validate weekday first.
func (t Table) Window(weekday int) Window {
	return t[weekday]
}

// ValidHours returns the valid hours of weekday in business-day order.
func (t Table) ValidHours(weekday int) []int {
	return t[weekday].Hours()
}

// SpansMidnight reports whether weekday's business day runs into the next calendar day.
func (t Table) SpansMidnight(weekday int) bool {
	return t[weekday].CrossesMidnight
}

// IsOperating reports whether ts falls inside a business day, either its own
// weekday's or the dawn tail of the previous weekday's.
func (t Table) IsOperating(ts time.Time) bool {
	weekday := ISOWeekday(ts)
	hour := ts.Hour()

	if prev, ok := t[PreviousWeekday(weekday)]; ok && prev.IsDawn(hour) {
		return true
	}
	w, ok := t[weekday]
	if !ok {
		return false
	}
	if w.CrossesMidnight {
		return hour >= w.StartHour
	}
	return w.Contains(hour)
}

// LogicalBusinessDay returns the weekday and date whose business day ts belongs to.
func (t Table) LogicalBusinessDay(ts time.Time) (int, time.Time) {
	weekday := ISOWeekday(ts)
	date := DateOf(ts)
	prev := PreviousWeekday(weekday)
	if w, ok := t[prev]; ok && w.IsDawn(ts.Hour()) {
		return prev, date.AddDate(0, 0, -1)
	}
	return weekday, date
}

// NextWeekday returns the ISO weekday after weekday, wrapping Sunday to Monday.
func NextWeekday(weekday int) int {
	if weekday >= 7 {
		return 1
	}
	return weekday + 1
}

// PreviousWeekday returns the ISO weekday before weekday, wrapping Monday to Sunday.
func PreviousWeekday(weekday int) int {
	if weekday <= 1 {
		return 7
	}
	return weekday - 1
}

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// DayName returns the English name of an ISO weekday.
func DayName(weekday int) string {
	if name, ok := dayNames[weekday]; ok {
		return name
	}
	return "Unknown"
}
