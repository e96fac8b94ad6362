package database

import (
	"fmt"

	"github.com/blues/fundchainx/internal/config"
	"github.com/blues/fundchainx/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// GormConfig 统一的 gorm 配置，开启错误翻译以识别唯一键冲突
func GormConfig(mode string) *gorm.Config {
	level := gormLogger.Silent
	if mode == "debug" {
		level = gormLogger.Warn
	}
	return &gorm.Config{
		Logger:         gormLogger.Default.LogMode(level),
		TranslateError: true,
	}
}

// Init 连接 postgres 并迁移表结构
func Init(cfg config.DatabaseConfig, mode string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 自动迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Campaign{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
