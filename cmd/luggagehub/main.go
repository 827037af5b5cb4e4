package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	"github.com/smallbiznis/luggagehub/internal/notification"
	"github.com/smallbiznis/luggagehub/internal/observability"
	"github.com/smallbiznis/luggagehub/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "luggagehub",
		Short:         "Luggage capacity marketplace",
		Long:          "Marketplace where travellers sell spare luggage kilograms and buyers reserve them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSetWebhookCommand())

	return cmd
}

// infrastructure is shared by every subcommand that touches the database.
func infrastructure() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Decorate(notification.DecorateLogger),
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
	)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
