package models

// DataSeriesPoint is one bucket of a marketing-event data series.
type DataSeriesPoint struct {
	Time  string `json:"time"`
	Count int    `json:"count"`
}

// DataSeriesResponse is returned by GET /events/data_series.
type DataSeriesResponse struct {
	Message string            `json:"message"`
	Data    []DataSeriesPoint `json:"data"`
}
