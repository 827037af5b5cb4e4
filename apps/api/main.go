package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	"github.com/smallbiznis/luggagehub/internal/conversation"
	"github.com/smallbiznis/luggagehub/internal/listing"
	"github.com/smallbiznis/luggagehub/internal/migration"
	"github.com/smallbiznis/luggagehub/internal/notification"
	"github.com/smallbiznis/luggagehub/internal/observability"
	"github.com/smallbiznis/luggagehub/internal/providers"
	"github.com/smallbiznis/luggagehub/internal/ratelimit"
	"github.com/smallbiznis/luggagehub/internal/request"
	"github.com/smallbiznis/luggagehub/internal/reservation"
	"github.com/smallbiznis/luggagehub/internal/server"
	"github.com/smallbiznis/luggagehub/internal/subscription"
	"github.com/smallbiznis/luggagehub/internal/telegram"
	"github.com/smallbiznis/luggagehub/internal/user"
	"github.com/smallbiznis/luggagehub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Decorate(notification.DecorateLogger),
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Marketplace domains
		user.Module,
		listing.Module,
		reservation.Module,
		subscription.Module,
		request.Module,
		conversation.Module,
		notification.Module,

		// Telegram + Redis
		providers.Module,
		telegram.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
