package telegram

import (
	"github.com/smallbiznis/luggagehub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.telegram",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if !cfg.Telegram.Enabled() {
		log.Named("providers.telegram").Info("telegram bot token not set, outbound messages are disabled")
		return &NoOpProvider{}
	}
	return NewClient(Config{
		BotToken:   cfg.Telegram.BotToken,
		APIBaseURL: cfg.Telegram.APIBaseURL,
		Timeout:    cfg.Telegram.SendTimeout,
	})
}
