package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
)

// Open 按配置选择驱动建立连接。
// driver=mysql 走 NewMySQL；driver=sqlite 时 database 字段为文件路径（单机部署）。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "", "mysql":
		return NewMySQL(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.MaxIdle, cfg.MaxOpen)
	case "sqlite":
		return NewSQLite(cfg.Database, cfg.MaxIdle, cfg.MaxOpen)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// NewMySQL 创建MySQL连接
func NewMySQL(host string, port int, user, password, database string, maxIdle, maxOpen int) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, database)

	gormDB, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect mysql: %w", err)
	}

	if err := setupPool(gormDB, maxIdle, maxOpen); err != nil {
		return nil, err
	}
	return gormDB, nil
}

// NewSQLite 创建SQLite连接
func NewSQLite(path string, maxIdle, maxOpen int) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	if err := setupPool(gormDB, maxIdle, maxOpen); err != nil {
		return nil, err
	}
	return gormDB, nil
}

func setupPool(gormDB *gorm.DB, maxIdle, maxOpen int) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}
