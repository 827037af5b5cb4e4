package main

import (
	"github.com/smallbiznis/luggagehub/internal/conversation"
	"github.com/smallbiznis/luggagehub/internal/listing"
	"github.com/smallbiznis/luggagehub/internal/migration"
	"github.com/smallbiznis/luggagehub/internal/notification"
	"github.com/smallbiznis/luggagehub/internal/providers"
	"github.com/smallbiznis/luggagehub/internal/ratelimit"
	"github.com/smallbiznis/luggagehub/internal/request"
	"github.com/smallbiznis/luggagehub/internal/reservation"
	"github.com/smallbiznis/luggagehub/internal/scheduler"
	"github.com/smallbiznis/luggagehub/internal/server"
	"github.com/smallbiznis/luggagehub/internal/subscription"
	"github.com/smallbiznis/luggagehub/internal/telegram"
	"github.com/smallbiznis/luggagehub/internal/user"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCommand() *cobra.Command {
	var withoutScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram webhook and the background scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			options := []fx.Option{
				infrastructure(),
				migration.Module,

				user.Module,
				listing.Module,
				reservation.Module,
				subscription.Module,
				request.Module,
				conversation.Module,
				notification.Module,

				providers.Module,
				telegram.Module,
				ratelimit.Module,

				server.Module,
			}
			if !withoutScheduler {
				options = append(options, scheduler.Module)
			}

			app := fx.New(options...)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}

	cmd.Flags().BoolVar(&withoutScheduler, "no-scheduler", false, "do not run background jobs in this process")

	return cmd
}
