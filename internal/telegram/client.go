// Package telegram is a thin client for the slice of the Telegram Bot API
// this service uses: sendMessage plus webhook management. Everything else
// (dialogue state, formatting decisions) lives upstream.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const defaultBaseURL = "https://api.telegram.org"

// Client calls the Bot API. Safe for concurrent use.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	parseMode  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host (tests, local
// Bot API server).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithParseMode sets the parse_mode sent with every message ("Markdown",
// "HTML"). Default is plain text.
func WithParseMode(mode string) Option {
	return func(c *Client) {
		c.parseMode = mode
	}
}

// New constructs a Bot API client.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers text to a chat. Implements notify.Notifier.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: c.parseMode,
	})
}

// SetWebhook registers url as the update sink; secret is echoed back by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	return c.call(ctx, "setWebhook", setWebhookRequest{URL: url, SecretToken: secret})
}

// DeleteWebhook unregisters the webhook on shutdown.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", struct{}{})
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("%s failed: %d %s", method, apiResp.ErrorCode, apiResp.Description)
	}
	return nil
}

// ParseUpdate decodes a webhook request body.
func ParseUpdate(r io.Reader) (*Update, error) {
	var update Update
	if err := json.NewDecoder(r).Decode(&update); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}
	return &update, nil
}
