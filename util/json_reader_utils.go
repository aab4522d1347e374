package util

import (
	"encoding/json"
	"fmt"
	"os"

	"traffic-reporter/models"
)

// ReadJSONFile decodes the JSON document at filePath into a new T.
func ReadJSONFile[T any](filePath string) (*T, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %q: %w", filePath, err)
	}
	return &v, nil
}

// ReadDataSeriesFromJSON loads a data-series response fixture from disk.
func ReadDataSeriesFromJSON(filePath string) (*models.DataSeriesResponse, error) {
	return ReadJSONFile[models.DataSeriesResponse](filePath)
}
