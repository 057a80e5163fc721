package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Client POSTs notification payloads to webhook endpoints. A building
// without its own webhook_url falls back to defaultURL.
type Client struct {
	http       *resty.Client
	defaultURL string
	log        *logrus.Logger
}

// NewClient builds a webhook client. The timeout bounds each POST so a
// hung receiver cannot stall a batch send forever.
func NewClient(defaultURL string, timeout time.Duration, log *logrus.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:       httpClient,
		defaultURL: defaultURL,
		log:        log,
	}
}

// Send POSTs the payload as JSON to url, or to the default endpoint when
// url is empty. Any network error or non-2xx status is an error; the
// response body is only ever logged.
func (c *Client) Send(ctx context.Context, url string, p Payload) error {
	if url == "" {
		url = c.defaultURL
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(p).
		Post(url)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"webhook":  url,
			"resident": p.Resident,
		}).Warn("webhook request failed")
		return fmt.Errorf("webhook post: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"webhook":  url,
		"resident": p.Resident,
		"status":   resp.StatusCode(),
		"body":     string(resp.Body()),
	}).Debug("webhook response")

	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
