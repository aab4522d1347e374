package models

// HourBucketResult holds, for one hour of the business day, the last known
// cumulative count of every week in range and the week-over-week variation.
type HourBucketResult struct {
	Hour             string      `json:"hour"`
	PerWeek          map[int]int `json:"per_week"`
	VariationPercent int         `json:"variation_percent"`
}

// DailyVariation compares the end-of-day totals of the two most recent weeks.
type DailyVariation struct {
	PreviousWeek     int    `json:"previous_week"`
	CurrentWeek      int    `json:"current_week"`
	PreviousTotal    int    `json:"previous_total"`
	CurrentTotal     int    `json:"current_total"`
	PreviousLastHour string `json:"previous_last_hour"`
	CurrentLastHour  string `json:"current_last_hour"`
	Difference       int    `json:"difference"`
	VariationPercent int    `json:"variation_percent"`
}

const META_STATUS_ACHIEVED = "achieved"
const META_STATUS_CLOSE = "close"
const META_STATUS_BEHIND = "behind"
const META_STATUS_NO_META = "no_meta"

// DailyMetaVsReal compares the day's real total against its persisted target.
type DailyMetaVsReal struct {
	HasMeta            bool    `json:"has_meta"`
	Date               string  `json:"date"`
	RealCount          int     `json:"real_count"`
	MetaCount          int     `json:"meta_count"`
	AchievementPercent float64 `json:"achievement_percent"`
	Difference         int     `json:"difference"`
	Status             string  `json:"status"`
}

// CurrentTimeSummary compares the latest populated hour of the current week
// with the same clock hour of the previous week.
type CurrentTimeSummary struct {
	Hour             string `json:"hour"`
	CurrentWeek      int    `json:"current_week"`
	PreviousWeek     int    `json:"previous_week"`
	CurrentCount     int    `json:"current_count"`
	PreviousCount    int    `json:"previous_count"`
	Difference       int    `json:"difference"`
	VariationPercent int    `json:"variation_percent"`
}

// ReportResult is the full traffic variation report for one weekday.
type ReportResult struct {
	Weekday            int                `json:"weekday"`
	DayName            string             `json:"day_name"`
	Year               int                `json:"year"`
	StartWeek          int                `json:"start_week"`
	EndWeek            int                `json:"end_week"`
	StartHour          int                `json:"start_hour"`
	EndHour            int                `json:"end_hour"`
	CrossesMidnight    bool               `json:"crosses_midnight"`
	Weeks              []int              `json:"weeks"`
	HourlyData         []HourBucketResult `json:"hourly_data"`
	DailyVariation     DailyVariation     `json:"daily_variation"`
	DailyMetaVsReal    *DailyMetaVsReal   `json:"daily_meta_vs_real"`
	CurrentTimeSummary CurrentTimeSummary `json:"current_time_summary"`
}

// ReportPayload is what the notification sinks render.
type ReportPayload struct {
	Subject       string        `json:"subject"`
	DayName       string        `json:"day_name"`
	Weeks         []int         `json:"weeks"`
	MaxVariation  int           `json:"max_variation"`
	LastHour      string        `json:"last_hour"`
	LastHourTotal int           `json:"last_hour_total"`
	Report        *ReportResult `json:"report"`
}
