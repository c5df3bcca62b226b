// Package azure talks to the Azure Computer Vision, Maps and Speech REST APIs.
package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vision-assistant/internal/domain"
	"vision-assistant/internal/infra"
)

const (
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
	requestTimeout        = 30 * time.Second
)

// client carries what every Azure service shares.
type client struct {
	service    string
	endpoint   string
	key        string
	httpClient *http.Client
	retry      infra.RetryConfig
}

func newClient(service, endpoint, key string) client {
	return client{
		service:    service,
		endpoint:   strings.TrimRight(endpoint, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: requestTimeout},
		retry:      infra.DefaultRetryConfig(),
	}
}

// Configured reports whether both the endpoint and the key are set.
func (c *client) Configured() bool {
	return c.endpoint != "" && c.key != ""
}

// SetRetry replaces the backoff used for single-shot requests.
func (c *client) SetRetry(cfg infra.RetryConfig) {
	c.retry = cfg
}

func (c *client) checkConfigured() error {
	if !c.Configured() {
		return fmt.Errorf("%s: %w", c.service, domain.ErrNotConfigured)
	}
	return nil
}

// send performs one round trip. Any status other than want is an error; the
// caller owns the body of a successful response.
func (c *client) send(req *http.Request, want int) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, infra.TransportError(c.service, err)
	}
	if resp.StatusCode != want {
		defer resp.Body.Close()
		return nil, infra.StatusError(c.service, resp)
	}
	return resp, nil
}

func (c *client) withRetry(ctx context.Context, fn func() error) error {
	return infra.WithRetry(ctx, c.retry, fn)
}

// getJSON retries retryable failures and decodes a 200 response into out.
func (c *client) getJSON(ctx context.Context, build func() (*http.Request, error), out any) error {
	return c.withRetry(ctx, func() error {
		req, err := build()
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		resp, err := c.send(req, http.StatusOK)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return c.decode(resp.Body, out)
	})
}

func (c *client) decode(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", c.service, domain.ErrParse, err)
	}
	return nil
}
