package db

import (
	"context"
	"fmt"
	"time"

	"ecshop/internal/config"
	"ecshop/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectPostgres はDBに接続して *gorm.DB を返す。
func ConnectPostgres(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // unique違反をgorm.ErrDuplicatedKeyにする
	})
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	//スキーマ（users.emailはunique）
	if err := gormDB.WithContext(ctx).AutoMigrate(&model.User{}, &model.Product{}); err != nil {
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return gormDB, nil
}
