package braze

import (
	"context"
	"fmt"
	"strconv"

	"traffic-reporter/api"
	"traffic-reporter/models"
)

const DATA_SERIES_ENDPOINT = "/events/data_series"
const DATA_SERIES_UNIT = "hour"

// BrazeApiClient embeds the common HTTPClient
type BrazeApiClient struct {
	*api.HTTPClient
}

// NewBrazeApiClient creates a new instance of BrazeApiClient. The API key is
// sent as a bearer token.
func NewBrazeApiClient(httpClient *api.HTTPClient, apiKey string) *BrazeApiClient {
	httpClient.SetBearerToken(apiKey)
	return &BrazeApiClient{HTTPClient: httpClient}
}

// GetDataSeries returns the last length hourly counts of a custom event.
func (c *BrazeApiClient) GetDataSeries(ctx context.Context, eventID string, length int) (*models.DataSeriesResponse, error) {
	if eventID == "" {
		return nil, fmt.Errorf("braze: empty event id")
	}
	if length < 1 {
		length = 1
	}

	query := map[string]string{
		"event":  eventID,
		"length": strconv.Itoa(length),
		"unit":   DATA_SERIES_UNIT,
	}
	var response models.DataSeriesResponse
	if err := c.Request(ctx, "GET", DATA_SERIES_ENDPOINT, query, nil, &response); err != nil {
		return nil, fmt.Errorf("braze data series: %w", err)
	}
	return &response, nil
}
