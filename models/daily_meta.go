package models

import "time"

// DailyMeta is the order target set ahead of time for one calendar date.
type DailyMeta struct {
	ID          int64     `json:"id,omitempty"`
	Date        time.Time `json:"date"`
	TargetCount int       `json:"target_count"`
}
