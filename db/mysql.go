package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"recs_collector/config"

	_ "github.com/go-sql-driver/mysql"
)

var (
	DB      *sql.DB // 用户镜像库连接（mysql 或 sqlite）
	Dialect string  // DB 对应的驱动名
)

// InitMySQL 初始化数据库连接
func InitMySQL(dsn string) error {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	DB, Dialect = conn, "mysql"
	return DB.Ping()
}

// InitMySQLWithConfig 使用配置初始化数据库连接池
func InitMySQLWithConfig(cfg *config.Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("mysql dsn is empty")
	}
	if err := InitMySQL(cfg.DB.DSN); err != nil {
		return err
	}

	// 从配置读取连接池参数，提供默认值保护
	maxOpenConns := cfg.DB.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 4 // 采集是单线程的，不需要大连接池
	}

	maxIdleConns := cfg.DB.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 2
	}

	connMaxLifetime := cfg.DB.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 60 // 默认连接最大生命周期（分钟）
	}

	DB.SetMaxOpenConns(maxOpenConns)
	DB.SetMaxIdleConns(maxIdleConns)
	DB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

	return nil
}

// Init 根据 database.driver 初始化用户镜像库，driver 为空时不做任何事
func Init(ctx context.Context, cfg *config.Config) error {
	switch cfg.DB.Driver {
	case "":
		return nil
	case "mysql":
		return InitMySQLWithConfig(cfg)
	case "sqlite":
		return InitSQLite(cfg.DB.SQLitePath)
	case "postgres":
		return InitPostgres(ctx, cfg.DB.PostgresDSN, cfg.DB.MaxOpenConns)
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.DB.Driver)
	}
}

// Close 关闭所有已打开的连接
func Close() {
	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
	if PG != nil {
		PG.Close()
		PG = nil
	}
}
