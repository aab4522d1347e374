package models

import "time"

const EXECUTION_TYPE_AUTOMATIC = "automatic"
const EXECUTION_TYPE_MANUAL = "manual"

// ExecutionLog records one run of the collector or one report dispatch request.
type ExecutionLog struct {
	ID            string    `json:"id"`
	ExecutionType string    `json:"execution_type"`
	Command       string    `json:"command"`
	Date          time.Time `json:"date"`
	Time          ClockTime `json:"time"`
}
