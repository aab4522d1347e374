package braze

import (
	"context"
	"fmt"
	"time"

	"traffic-reporter/models"
	"traffic-reporter/util"
)

// BrazeApiClientMock replays a 24-point hourly curve from disk, picking the
// point that matches the current hour. Used outside prod.
type BrazeApiClientMock struct {
	curvePath string
	now       func() time.Time
}

// NewBrazeApiClientMock creates a mock reading the curve at curvePath.
func NewBrazeApiClientMock(curvePath string, now func() time.Time) *BrazeApiClientMock {
	if now == nil {
		now = time.Now
	}
	return &BrazeApiClientMock{curvePath: curvePath, now: now}
}

func (c *BrazeApiClientMock) GetDataSeries(ctx context.Context, eventID string, length int) (*models.DataSeriesResponse, error) {
	curve, err := util.ReadDataSeriesFromJSON(c.curvePath)
	if err != nil {
		return nil, fmt.Errorf("could not read data series curve: %w", err)
	}
	if len(curve.Data) == 0 {
		return &models.DataSeriesResponse{Message: curve.Message}, nil
	}

	hour := c.now().Hour()
	point := curve.Data[hour%len(curve.Data)]
	return &models.DataSeriesResponse{
		Message: "success",
		Data:    []models.DataSeriesPoint{point},
	}, nil
}
