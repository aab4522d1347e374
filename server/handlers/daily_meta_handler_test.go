package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"traffic-reporter/models"
)

type stubMetaWriter struct {
	stored []models.DailyMeta
	err    error
}

func (s *stubMetaWriter) UpsertDailyMeta(ctx context.Context, m *models.DailyMeta) error {
	if s.err != nil {
		return s.err
	}
	m.ID = int64(len(s.stored) + 1)
	s.stored = append(s.stored, *m)
	return nil
}

func putDailyMeta(t *testing.T, writer *stubMetaWriter, date, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/v1/daily-metas/{date}", NewDailyMetaHandler(writer, zap.NewNop()).PutDailyMeta).Methods("PUT")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("PUT", "/v1/daily-metas/"+date, strings.NewReader(body)))

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr, resp
}

func TestPutDailyMeta(t *testing.T) {
	writer := &stubMetaWriter{}
	rr, resp := putDailyMeta(t, writer, "2025-07-27", `{"target_count": 1500}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "2025-07-27", data["date"])
	assert.Equal(t, float64(1500), data["target_count"])
	assert.Equal(t, float64(1), data["id"])

	require.Len(t, writer.stored, 1)
	assert.Equal(t, time.Date(2025, time.July, 27, 0, 0, 0, 0, time.UTC), writer.stored[0].Date)
	assert.Equal(t, 1500, writer.stored[0].TargetCount)
}

func TestPutDailyMetaZeroTarget(t *testing.T) {
	writer := &stubMetaWriter{}
	rr, _ := putDailyMeta(t, writer, "2025-07-28", `{"target_count": 0}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, writer.stored, 1)
	assert.Zero(t, writer.stored[0].TargetCount)
}

func TestPutDailyMetaRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		date string
		body string
	}{
		{"bad date", "27-07-2025", `{"target_count": 10}`},
		{"impossible date", "2025-02-30", `{"target_count": 10}`},
		{"negative target", "2025-07-27", `{"target_count": -1}`},
		{"missing target", "2025-07-27", `{}`},
		{"malformed body", "2025-07-27", `{"target_count":`},
		{"non numeric target", "2025-07-27", `{"target_count": "many"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &stubMetaWriter{}
			rr, resp := putDailyMeta(t, writer, tt.date, tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			assert.Empty(t, writer.stored)
		})
	}
}

func TestPutDailyMetaStoreError(t *testing.T) {
	rr, resp := putDailyMeta(t, &stubMetaWriter{err: errors.New("db down")}, "2025-07-27", `{"target_count": 10}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", resp.Error)
}
