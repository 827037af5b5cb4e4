package telegram

import "context"

// AlertSender delivers admin alerts to one fixed chat.
type AlertSender struct {
	provider Provider
	chatID   string
}

func NewAlertSender(provider Provider, chatID string) *AlertSender {
	return &AlertSender{provider: provider, chatID: chatID}
}

func (s *AlertSender) SendAlert(ctx context.Context, text string) error {
	return s.provider.SendMessage(ctx, s.chatID, text)
}
