// api/http_client.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return "unexpected status code: " + e.Status
}

// HTTPClient struct to hold base URL and HTTP client configuration
type HTTPClient struct {
	BaseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

// NewHTTPClient creates a new instance of HTTPClient with default settings.
// Server errors are retried twice; a rate limiter can be added with SetRateLimit.
func NewHTTPClient(baseURL string) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPClient{BaseURL: baseURL, client: client}
}

// SetRateLimit caps outgoing requests at rps with the given burst. rps <= 0 removes the limit.
func (c *HTTPClient) SetRateLimit(rps float64, burst int) *HTTPClient {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// SetBearerToken authenticates every request with "Authorization: Bearer <token>".
func (c *HTTPClient) SetBearerToken(token string) *HTTPClient {
	c.client.SetAuthToken(token)
	return c
}

// SetTimeout overrides the per-request timeout.
func (c *HTTPClient) SetTimeout(d time.Duration) *HTTPClient {
	c.client.SetTimeout(d)
	return c
}

// Request makes an HTTP request to the API and decodes the JSON response into response.
func (c *HTTPClient) Request(
	ctx context.Context,
	method, endpoint string,
	query map[string]string,
	body interface{},
	response interface{},
) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req := c.client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	res, err := req.Execute(method, endpoint)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	if res.IsError() {
		return &StatusError{Code: res.StatusCode(), Status: res.Status(), Body: res.String()}
	}

	if response != nil && len(res.Body()) > 0 {
		if err := json.Unmarshal(res.Body(), response); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, endpoint, err)
		}
	}
	return nil
}
