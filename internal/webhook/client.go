package webhook

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender posts a campaign payload to the external workflow engine. A nil
// error means HTTP-level acceptance only, not business-level success.
type Sender interface {
	Send(url string, payload []byte) error
}

type Client struct {
	httpClient *http.Client
	secret     string
}

func NewClient(timeout time.Duration, secret string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		secret:     secret,
	}
}

// Send POSTs the payload as JSON. Any 2xx counts as accepted; everything
// else is a transport-level failure the dispatcher reports to the caller.
func (c *Client) Send(url string, payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("X-Automation-Secret", c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

var _ Sender = (*Client)(nil)
