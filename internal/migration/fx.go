package migration

import (
	"github.com/smallbiznis/fleetwatch/internal/config"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	eventdomain "github.com/smallbiznis/fleetwatch/internal/event/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// mysql/sqlite are dev conveniences; gorm derives the schema
			// from the models there.
			return conn.AutoMigrate(&devicedomain.Device{}, &eventdomain.Event{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
