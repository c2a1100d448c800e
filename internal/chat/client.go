package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client is a Slack-compatible Web API client. The platform wraps errors in a
// 200 response with ok=false, so every call checks the body as well as the
// status code.
type Client struct {
	BaseURL    string
	BotToken   string
	HTTPClient *http.Client
}

// NewClient returns a Client for the given API base URL and bot token.
func NewClient(baseURL, botToken string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		BotToken: botToken,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type postMessageRequest struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks,omitempty"`
}

type profileSetRequest struct {
	User    string        `json:"user"`
	Profile statusProfile `json:"profile"`
}

type statusProfile struct {
	StatusText       string `json:"status_text"`
	StatusEmoji      string `json:"status_emoji"`
	StatusExpiration int64  `json:"status_expiration"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PushMessage sends resp to the user as a direct message.
func (c *Client) PushMessage(ctx context.Context, platformUserID string, resp Response) error {
	if platformUserID == "" {
		return fmt.Errorf("chat: platform user id is required")
	}
	return c.call(ctx, "chat.postMessage", postMessageRequest{
		Channel: platformUserID,
		Text:    resp.Text,
		Blocks:  resp.Blocks,
	})
}

// SetStatus sets the user's presence status. A zero expiresAt means the
// status does not expire on its own.
func (c *Client) SetStatus(ctx context.Context, platformUserID, statusText, emoji string, expiresAt time.Time) error {
	if platformUserID == "" {
		return fmt.Errorf("chat: platform user id is required")
	}
	var expiration int64
	if !expiresAt.IsZero() {
		expiration = expiresAt.Unix()
	}
	return c.call(ctx, "users.profile.set", profileSetRequest{
		User: platformUserID,
		Profile: statusProfile{
			StatusText:       statusText,
			StatusEmoji:      emoji,
			StatusExpiration: expiration,
		},
	})
}

// ClearStatus removes the user's presence status.
func (c *Client) ClearStatus(ctx context.Context, platformUserID string) error {
	if platformUserID == "" {
		return fmt.Errorf("chat: platform user id is required")
	}
	return c.call(ctx, "users.profile.set", profileSetRequest{
		User:    platformUserID,
		Profile: statusProfile{},
	})
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	if c.BaseURL == "" {
		return fmt.Errorf("chat: base URL is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("chat: failed to marshal %s request: %w", method, err)
	}

	url := c.BaseURL + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chat: failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.BotToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat: %s failed status=%d body=%s", method, resp.StatusCode, string(respBody))
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("chat: failed to decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("chat: %s failed: %s", method, api.Error)
	}
	return nil
}
