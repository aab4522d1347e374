package wasender

import (
	"context"
	"fmt"

	"traffic-reporter/api"
)

const SEND_MESSAGE_ENDPOINT = "/send-message"

// SendMessageRequest is the body of POST /send-message.
type SendMessageRequest struct {
	To       string `json:"to"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// SendMessageResponse is the subset of the reply the sink logs.
type SendMessageResponse struct {
	Success bool `json:"success"`
	Data    struct {
		MsgID  int64  `json:"msgId"`
		JID    string `json:"jid"`
		Status string `json:"status"`
	} `json:"data"`
}

// WASenderApiClient posts WhatsApp messages through the WASender gateway.
type WASenderApiClient struct {
	*api.HTTPClient
}

// NewWASenderApiClient creates a client authenticated with apiKey.
func NewWASenderApiClient(httpClient *api.HTTPClient, apiKey string) *WASenderApiClient {
	httpClient.SetBearerToken(apiKey)
	return &WASenderApiClient{HTTPClient: httpClient}
}

// SendMessage delivers text, and optionally an image, to one phone number.
func (c *WASenderApiClient) SendMessage(ctx context.Context, to, text, imageURL string) (*SendMessageResponse, error) {
	if to == "" {
		return nil, fmt.Errorf("wasender: empty recipient")
	}
	body := SendMessageRequest{To: to, Text: text, ImageURL: imageURL}
	var response SendMessageResponse
	if err := c.Request(ctx, "POST", SEND_MESSAGE_ENDPOINT, nil, body, &response); err != nil {
		return nil, fmt.Errorf("wasender send to %s: %w", to, err)
	}
	return &response, nil
}
