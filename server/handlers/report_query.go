package handlers

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	services "traffic-reporter/service"
)

const (
	WEEKDAY_QUERY_ARG    = "weekday"
	START_WEEK_QUERY_ARG = "start_week"
	END_WEEK_QUERY_ARG   = "end_week"
	YEAR_QUERY_ARG       = "year"
	START_HOUR_QUERY_ARG = "start_hour"
	END_HOUR_QUERY_ARG   = "end_hour"
)

// ReportQuery carries the report parameters of both the query string and the
// dispatch body. Cross-field rules (weeks of the year, start <= end) are left
// to the report service.
type ReportQuery struct {
	Weekday   int  `json:"weekday" validate:"required,min=1,max=7"`
	StartWeek *int `json:"start_week,omitempty" validate:"omitempty,min=1,max=53"`
	EndWeek   *int `json:"end_week,omitempty" validate:"omitempty,min=1,max=53"`
	Year      *int `json:"year,omitempty" validate:"omitempty,min=1,max=9999"`
	StartHour *int `json:"start_hour,omitempty" validate:"omitempty,min=0,max=23"`
	EndHour   *int `json:"end_hour,omitempty" validate:"omitempty,min=0,max=23"`
}

var validate = validator.New()

// Validate checks the per-field bounds.
func (q ReportQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", services.ErrInvalidArgument, err)
	}
	return nil
}

// Params converts the query into service parameters.
func (q ReportQuery) Params() services.VariationParams {
	return services.VariationParams{
		Weekday:   q.Weekday,
		StartWeek: q.StartWeek,
		EndWeek:   q.EndWeek,
		Year:      q.Year,
		StartHour: q.StartHour,
		EndHour:   q.EndHour,
	}
}

// ParseReportQuery reads the report parameters from a query string.
func ParseReportQuery(vals url.Values) (ReportQuery, error) {
	var q ReportQuery

	weekday, err := optionalInt(vals, WEEKDAY_QUERY_ARG)
	if err != nil {
		return q, err
	}
	if weekday == nil {
		return q, fmt.Errorf("%w: missing %s", services.ErrInvalidArgument, WEEKDAY_QUERY_ARG)
	}
	q.Weekday = *weekday

	fields := []struct {
		name string
		dst  **int
	}{
		{START_WEEK_QUERY_ARG, &q.StartWeek},
		{END_WEEK_QUERY_ARG, &q.EndWeek},
		{YEAR_QUERY_ARG, &q.Year},
		{START_HOUR_QUERY_ARG, &q.StartHour},
		{END_HOUR_QUERY_ARG, &q.EndHour},
	}
	for _, f := range fields {
		v, err := optionalInt(vals, f.name)
		if err != nil {
			return q, err
		}
		*f.dst = v
	}
	return q, q.Validate()
}

func optionalInt(vals url.Values, name string) (*int, error) {
	raw := vals.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q", services.ErrInvalidArgument, name, raw)
	}
	return &v, nil
}
