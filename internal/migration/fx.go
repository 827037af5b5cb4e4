package migration

import (
	"strings"

	"github.com/smallbiznis/luggagehub/internal/config"
	conversationdomain "github.com/smallbiznis/luggagehub/internal/conversation/domain"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
	reservationdomain "github.com/smallbiznis/luggagehub/internal/reservation/domain"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.DBAutoMigrate {
			log.Info("database auto migrate disabled")
			return nil
		}
		return Apply(conn, cfg.DBType)
	}),
)

// Models lists every table the service owns.
func Models() []any {
	return []any{
		&userdomain.User{},
		&userdomain.LinkToken{},
		&listingdomain.Listing{},
		&reservationdomain.Reservation{},
		&subscriptiondomain.Subscription{},
		&requestdomain.Request{},
		&conversationdomain.Conversation{},
		&conversationdomain.Message{},
	}
}

// Apply brings the schema up to date. Postgres uses the versioned SQL
// migrations; other dialects fall back to gorm AutoMigrate.
func Apply(conn *gorm.DB, dbType string) error {
	if strings.EqualFold(strings.TrimSpace(dbType), "postgres") {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return conn.AutoMigrate(Models()...)
}
