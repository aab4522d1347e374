package services

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"traffic-reporter/models"
	"traffic-reporter/schedule"
)

// bucketKey identifies one (hour, ISO week) cell of the report grid.
type bucketKey struct {
	Hour int
	Week int
}

// assignedSample is a raw sample after bucketing, tagged with its cell.
type assignedSample struct {
	Key   bucketKey
	At    time.Time
	Count int
}

// reportQuery is a fully resolved ComputeVariation request.
type reportQuery struct {
	Weekday   int
	Year      int
	StartWeek int
	EndWeek   int
	Window    schedule.Window
}

func (q reportQuery) weeks() []int {
	weeks := make([]int, 0, q.EndWeek-q.StartWeek+1)
	for w := q.StartWeek; w <= q.EndWeek; w++ {
		weeks = append(weeks, w)
	}
	return weeks
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func parseHourLabel(label string) int {
	hour, _ := strconv.Atoi(label[:2])
	return hour
}

// assignSamples buckets every sample and keeps those that belong to the
// business day of q.Weekday within the requested weeks.
func assignSamples(q reportQuery, bw schedule.BucketWindow, samples []models.TrafficSample) []assignedSample {
	next := schedule.NextWeekday(q.Weekday)
	out := make([]assignedSample, 0, len(samples))

	for _, s := range samples {
		hour, rollover, ok := bw.BucketHour(s.Time.Hour, s.Time.Minute)
		if !ok || !q.Window.Contains(hour) {
			continue
		}
		date := schedule.DateOf(s.Date)
		if rollover {
			date = date.AddDate(0, 0, 1)
		}

		var logical time.Time
		switch weekday := schedule.ISOWeekday(date); {
		case weekday == q.Weekday && (!q.Window.CrossesMidnight || hour >= q.Window.StartHour):
			logical = date
		case q.Window.CrossesMidnight && weekday == next && hour <= q.Window.EndHour:
			logical = date.AddDate(0, 0, -1)
		default:
			continue
		}

		year, week := logical.ISOWeek()
		if year != q.Year || week < q.StartWeek || week > q.EndWeek {
			continue
		}
		out = append(out, assignedSample{
			Key:   bucketKey{Hour: hour, Week: week},
			At:    s.Timestamp(),
			Count: s.Count,
		})
	}
	return out
}

// latestByBucket reduces each cell to the sample with the greatest timestamp.
// On equal timestamps the later sample in input order wins.
func latestByBucket(assigned []assignedSample) map[bucketKey]assignedSample {
	latest := make(map[bucketKey]assignedSample, len(assigned))
	for _, a := range assigned {
		cur, seen := latest[a.Key]
		if !seen || !a.At.Before(cur.At) {
			latest[a.Key] = a
		}
	}
	return latest
}

// variationPercent is the zero-guarded week-over-week change.
func variationPercent(previous, current int) int {
	if previous > 0 {
		return int(math.Round(float64(current-previous) / float64(previous) * 100))
	}
	if current > 0 {
		return 100
	}
	return 0
}

// buildHourlyData lays the grid out as one row per valid hour, sorted in
// business-day order. Empty when nothing was collected.
func buildHourlyData(q reportQuery, grid map[bucketKey]assignedSample) []models.HourBucketResult {
	if len(grid) == 0 {
		return []models.HourBucketResult{}
	}

	weeks := q.weeks()
	hours := q.Window.Hours()
	rows := make([]models.HourBucketResult, 0, len(hours))
	for _, hour := range hours {
		row := models.HourBucketResult{Hour: hourLabel(hour), PerWeek: make(map[int]int, len(weeks))}
		for _, week := range weeks {
			row.PerWeek[week] = grid[bucketKey{Hour: hour, Week: week}].Count
		}
		if len(weeks) > 1 {
			row.VariationPercent = variationPercent(row.PerWeek[weeks[len(weeks)-2]], row.PerWeek[weeks[len(weeks)-1]])
		}
		rows = append(rows, row)
	}
	return rows
}

// lastPopulatedHour walks the rows backwards and returns the last hour with a
// nonzero count for week.
func lastPopulatedHour(rows []models.HourBucketResult, week int) (int, int, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if count := rows[i].PerWeek[week]; count > 0 {
			return parseHourLabel(rows[i].Hour), count, true
		}
	}
	return 0, 0, false
}

// endOfDayTotal returns the final accumulated count of week.
//
// When the last populated hour is a dawn hour the counter has restarted at
// midnight, so the 00:00 checkpoint is added back. 00:00 itself is never
// doubled.
func endOfDayTotal(rows []models.HourBucketResult, week int, w schedule.Window) (int, string) {
	hour, count, ok := lastPopulatedHour(rows, week)
	if !ok {
		return 0, ""
	}
	total := count
	if w.IsDawn(hour) && hour != 0 {
		for _, row := range rows {
			if row.Hour == hourLabel(0) {
				total += row.PerWeek[week]
				break
			}
		}
	}
	return total, hourLabel(hour)
}

func buildDailyVariation(q reportQuery, rows []models.HourBucketResult) models.DailyVariation {
	dv := models.DailyVariation{CurrentWeek: q.EndWeek}
	if q.EndWeek-q.StartWeek < 1 {
		return dv
	}
	dv.PreviousWeek = q.EndWeek - 1
	dv.PreviousTotal, dv.PreviousLastHour = endOfDayTotal(rows, dv.PreviousWeek, q.Window)
	dv.CurrentTotal, dv.CurrentLastHour = endOfDayTotal(rows, dv.CurrentWeek, q.Window)
	dv.Difference = dv.CurrentTotal - dv.PreviousTotal
	dv.VariationPercent = variationPercent(dv.PreviousTotal, dv.CurrentTotal)
	return dv
}

func buildCurrentTimeSummary(q reportQuery, rows []models.HourBucketResult) models.CurrentTimeSummary {
	summary := models.CurrentTimeSummary{CurrentWeek: q.EndWeek}
	hour, count, ok := lastPopulatedHour(rows, q.EndWeek)
	if !ok {
		return summary
	}
	summary.Hour = hourLabel(hour)
	summary.CurrentCount = count
	if q.EndWeek-q.StartWeek < 1 {
		return summary
	}
	summary.PreviousWeek = q.EndWeek - 1
	for _, row := range rows {
		if row.Hour == summary.Hour {
			summary.PreviousCount = row.PerWeek[summary.PreviousWeek]
			break
		}
	}
	summary.Difference = summary.CurrentCount - summary.PreviousCount
	summary.VariationPercent = variationPercent(summary.PreviousCount, summary.CurrentCount)
	return summary
}
