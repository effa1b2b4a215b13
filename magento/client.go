// Package magento is a thin REST client for a Magento-compatible commerce
// backend. It authenticates with an integration bearer token and surfaces
// backend error messages verbatim so callers can show them to users.
package magento

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
)

const (
	defaultStoreView  = "default"
	defaultAPIVersion = "V1"

	maxErrorBodyBytes = 64 << 10
)

type Config struct {
	BaseURL    string        `split_words:"true" required:"true"`
	Token      string        `split_words:"true" required:"true"`
	StoreView  string        `split_words:"true" default:"default"`
	APIVersion string        `split_words:"true" default:"V1"`
	Timeout    time.Duration `split_words:"true" default:"30s"`
}

// Error carries the backend's own message untouched. Duplicate-email
// rejections and similar business errors must reach the user as written.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	token      string
	storeView  string
	apiVersion string
	httpClient *http.Client
}

type Option func(*Client)

func WithTransport(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("magento base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid magento base url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("magento token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		token:      token,
		storeView:  defaultStoreView,
		apiVersion: defaultAPIVersion,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	if sv := strings.TrimSpace(cfg.StoreView); sv != "" {
		client.storeView = sv
	}
	if v := strings.TrimSpace(cfg.APIVersion); v != "" {
		client.apiVersion = v
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// send issues one REST call and decodes the response into out when out is
// non-nil. Endpoints are relative to /rest/{storeView}/{apiVersion}/.
func (c *Client) send(ctx context.Context, method, endpoint string, body, out any) error {
	fullURL := fmt.Sprintf("%s/rest/%s/%s/%s",
		c.baseURL, c.storeView, c.apiVersion, strings.TrimLeft(endpoint, "/"))

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError extracts the backend's message field when present, otherwise
// keeps the raw body.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	message := strings.TrimSpace(string(raw))
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		message = envelope.Message
	}
	if message == "" {
		message = resp.Status
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

// searchCriteria builds a flat Magento searchCriteria query string from
// ordered field/value filter pairs (one filter group per pair, AND-ed).
func searchCriteria(filters [][3]string, pageSize int) string {
	values := url.Values{}
	for i, f := range filters {
		prefix := fmt.Sprintf("searchCriteria[filterGroups][%d][filters][0]", i)
		values.Set(prefix+"[field]", f[0])
		values.Set(prefix+"[value]", f[1])
		if f[2] != "" {
			values.Set(prefix+"[conditionType]", f[2])
		}
	}
	if pageSize > 0 {
		values.Set("searchCriteria[pageSize]", fmt.Sprintf("%d", pageSize))
	}
	return values.Encode()
}
