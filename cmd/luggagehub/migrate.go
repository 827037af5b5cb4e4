package main

import (
	"github.com/smallbiznis/luggagehub/internal/config"
	"github.com/smallbiznis/luggagehub/internal/migration"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				infrastructure(),
				fx.NopLogger,
				fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
					if err := migration.Apply(conn, cfg.DBType); err != nil {
						return err
					}
					log.Info("migrations applied", zap.String("db_type", cfg.DBType))
					return nil
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}
			return app.Stop(ctx)
		},
	}
}
