package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for requests to external web APIs.
type Client struct {
	r *resty.Client
}

// New creates an HTTP client with sensible defaults.
func New() *Client {
	r := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// GetJSON sends a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, params map[string]string, out interface{}) error {
	resp, err := c.r.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode())
	}
	return nil
}
