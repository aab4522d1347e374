package util

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"traffic-reporter/models"
)

// RenderVariationChart writes an HTML page with one bar series per week and a
// line of the hourly week-over-week variation.
func RenderVariationChart(w io.Writer, report *models.ReportResult) error {
	if report == nil {
		return fmt.Errorf("render chart: nil report")
	}

	hours := make([]string, 0, len(report.HourlyData))
	for _, row := range report.HourlyData {
		hours = append(hours, row.Hour)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: report.DayName + " Orders",
			Width:     "1000px",
			Height:    "560px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s Orders", report.DayName),
			Subtitle: fmt.Sprintf("Weeks %d-%d of %d", report.StartWeek, report.EndWeek, report.Year),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	bar.SetXAxis(hours)

	weeks := append([]int(nil), report.Weeks...)
	sort.Ints(weeks)
	for _, week := range weeks {
		data := make([]opts.BarData, 0, len(report.HourlyData))
		for _, row := range report.HourlyData {
			data = append(data, opts.BarData{Value: row.PerWeek[week]})
		}
		bar.AddSeries(fmt.Sprintf("Week %d", week), data)
	}

	if len(report.HourlyData) > 0 {
		variation := charts.NewLine()
		variation.SetXAxis(hours)
		points := make([]opts.LineData, 0, len(report.HourlyData))
		for _, row := range report.HourlyData {
			points = append(points, opts.LineData{Value: row.VariationPercent})
		}
		variation.AddSeries("Variation %", points,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{c}%"}),
		)
		bar.Overlap(variation)
	}

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
