package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	"github.com/smallbiznis/luggagehub/internal/notification"
	"github.com/smallbiznis/luggagehub/internal/observability"
	"github.com/smallbiznis/luggagehub/internal/ratelimit"
	"github.com/smallbiznis/luggagehub/internal/scheduler"
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

		// Domain services required by scheduler
		user.Module,
		ratelimit.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
