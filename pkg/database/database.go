package database

import (
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 打开本地 SQLite 库并迁移三张核心表
// busy_timeout 配合服务层的按用户串行化，保证并发积分下缓存与流水一致
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.Path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// SQLite 单写者，限制连接数避免 SQLITE_BUSY
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.PointTransaction{},
		&model.KnowledgeChunk{},
	)
	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}
