package braze

import (
	"context"

	"traffic-reporter/models"
)

// BrazeAPI defines the subset of the Braze REST API used by the collector
type BrazeAPI interface {
	GetDataSeries(ctx context.Context, eventID string, length int) (*models.DataSeriesResponse, error)
}
