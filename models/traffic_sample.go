package models

import (
	"fmt"
	"time"
)

const DATE_LAYOUT = "2006-01-02"

// ClockTime is a wall-clock time of day without a date.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// ParseClockTime parses "15:04:05" or "15:04".
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("invalid time of day %q", s)
}

// String renders the clock time as "15:04:05".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// TrafficSample is one collected reading of the cumulative order counter.
// Count is a running total since the start of the business day.
type TrafficSample struct {
	ID    int64     `json:"id,omitempty"`
	Date  time.Time `json:"date"`
	Time  ClockTime `json:"time"`
	Count int       `json:"count"`
}

// Timestamp combines Date and Time.
func (s TrafficSample) Timestamp() time.Time {
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), s.Time.Hour, s.Time.Minute, s.Time.Second, 0, time.UTC)
}
