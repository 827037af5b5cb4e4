package notification

import (
	"github.com/smallbiznis/luggagehub/internal/config"
	"github.com/smallbiznis/luggagehub/internal/observability"
	"github.com/smallbiznis/luggagehub/internal/observability/logger"
	"github.com/smallbiznis/luggagehub/internal/providers/telegram"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DecorateLogger tees error logs to the admin Telegram chat when one is configured.
// Entries from the Telegram provider itself are not forwarded.
func DecorateLogger(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, obsCfg observability.Config) *zap.Logger {
	if obsCfg.AlertChatID == "" || !cfg.Telegram.Enabled() {
		return log
	}

	level, err := zapcore.ParseLevel(obsCfg.AlertLevel)
	if err != nil {
		level = zapcore.ErrorLevel
	}

	client := telegram.NewClient(telegram.Config{
		BotToken:   cfg.Telegram.BotToken,
		APIBaseURL: cfg.Telegram.APIBaseURL,
		Timeout:    cfg.Telegram.SendTimeout,
	})
	core := logger.NewAlertCore(
		telegram.NewAlertSender(client, obsCfg.AlertChatID),
		level,
		obsCfg.ServiceName,
		"providers.telegram",
		"notification.service",
	)
	lc.Append(fx.StopHook(core.Close))

	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	}))
}
