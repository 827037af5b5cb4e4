package telegram

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

const maxMessageLength = 4096

type Config struct {
	BotToken   string
	APIBaseURL string
	Timeout    time.Duration
}

// APIError is a failed Bot API call: a non-2xx status or an ok:false body.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram %s: status %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.StatusCode, e.Description)
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.telegram.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (c *Client) SendMessage(ctx context.Context, chatID string, text string) error {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return fmt.Errorf("telegram sendMessage: empty chat id")
	}
	_, err := c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:                chatID,
		Text:                  clip(text, maxMessageLength),
		DisableWebPagePreview: true,
	})
	return err
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates"`
}

func (c *Client) SetWebhook(ctx context.Context, url string, secret string) error {
	_, err := c.call(ctx, "setWebhook", setWebhookRequest{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: []string{"message"},
	})
	return err
}

func (c *Client) GetWebhookInfo(ctx context.Context) (WebhookInfo, error) {
	raw, err := c.call(ctx, "getWebhookInfo", nil)
	if err != nil {
		return WebhookInfo{}, err
	}
	var info WebhookInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return WebhookInfo{}, fmt.Errorf("decode webhook info: %w", err)
	}
	return info, nil
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", method, err)
		}
		body = bytes.NewReader(buf)
	}

	endpoint := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/bot" + c.cfg.BotToken + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// the URL carries the bot token, keep it out of the error
		return nil, fmt.Errorf("telegram %s: request failed: %w", method, unwrapURLError(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("telegram %s: read response: %w", method, err)
	}

	var decoded apiResponse
	decodeErr := json.Unmarshal(raw, &decoded)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Description: decoded.Description}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("telegram %s: malformed response: %w", method, decodeErr)
	}
	if !decoded.OK {
		return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Description: decoded.Description}
	}
	return decoded.Result, nil
}

func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
