// Package webhook posts approval requests to an external endpoint so an
// operator UI can surface pending sensitive actions.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

var _ contractx.InterruptNotifier = (*Client)(nil)

type Config struct {
	URL     string        `split_words:"true"`
	Token   string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

type approvalRequest struct {
	SessionID   string `json:"session_id"`
	Token       string `json:"token"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("webhook url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// NotifyInterrupt delivers one approval request. Callers treat failures as
// non-fatal; the conversation flow does not depend on delivery.
func (c *Client) NotifyInterrupt(ctx context.Context, sessionID, token, tool, description string) error {
	body, err := json.Marshal(approvalRequest{
		SessionID:   sessionID,
		Token:       token,
		Tool:        tool,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("marshal approval request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
