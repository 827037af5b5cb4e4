package telegram

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("telegram_not_configured")

type Provider interface {
	SendMessage(ctx context.Context, chatID string, text string) error
	SetWebhook(ctx context.Context, url string, secret string) error
	GetWebhookInfo(ctx context.Context) (WebhookInfo, error)
}

// WebhookInfo is the subset of Telegram's getWebhookInfo result we use.
type WebhookInfo struct {
	URL                  string `json:"url"`
	PendingUpdateCount   int    `json:"pending_update_count"`
	LastErrorDate        int64  `json:"last_error_date,omitempty"`
	LastErrorMessage     string `json:"last_error_message,omitempty"`
	HasCustomCertificate bool   `json:"has_custom_certificate"`
}

type NoOpProvider struct{}

func (p *NoOpProvider) SendMessage(ctx context.Context, chatID string, text string) error {
	return nil
}

func (p *NoOpProvider) SetWebhook(ctx context.Context, url string, secret string) error {
	return ErrNotConfigured
}

func (p *NoOpProvider) GetWebhookInfo(ctx context.Context) (WebhookInfo, error) {
	return WebhookInfo{}, ErrNotConfigured
}
