package wasender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-reporter/api"
)

func TestSendMessage(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, SEND_MESSAGE_ENDPOINT, r.URL.Path)
		assert.Equal(t, "Bearer wa-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"msgId":42,"jid":"+593990000000","status":"in_progress"}}`))
	}))
	defer srv.Close()

	client := NewWASenderApiClient(api.NewHTTPClient(srv.URL), "wa-key")
	resp, err := client.SendMessage(context.Background(), "+593990000000", "Sunday Orders - 21:00", "")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(42), resp.Data.MsgID)

	assert.Equal(t, "+593990000000", received["to"])
	assert.Equal(t, "Sunday Orders - 21:00", received["text"])
	_, hasImage := received["imageUrl"]
	assert.False(t, hasImage)
}

func TestSendMessageWithImage(t *testing.T) {
	var received SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewWASenderApiClient(api.NewHTTPClient(srv.URL), "wa-key")
	_, err := client.SendMessage(context.Background(), "+1", "chart", "https://cdn.example.com/chart.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/chart.png", received.ImageURL)
}

func TestSendMessageFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"message":"invalid number"}`))
	}))
	defer srv.Close()

	client := NewWASenderApiClient(api.NewHTTPClient(srv.URL), "wa-key")
	_, err := client.SendMessage(context.Background(), "+0", "hi", "")
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.Code)

	_, err = client.SendMessage(context.Background(), "", "hi", "")
	assert.Error(t, err)
}
