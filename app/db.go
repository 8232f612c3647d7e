package app

import (
	"context"

	"github.com/fiffu/buzdealz/config"
	"github.com/fiffu/buzdealz/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.LocalDBPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	log.Sugar().Infof("Database opened at %s", cfg.LocalDBPath)

	log.Info("Starting migrations")
	if err := db.AutoMigrate(
		&models.KeyValue{},
		&models.SeenNotification{},
	); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}
