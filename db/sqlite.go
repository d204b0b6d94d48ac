package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// InitSQLite 打开本地sqlite文件，":memory:" 用于测试
func InitSQLite(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("sqlite path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	// :memory: 每个连接都是独立的库
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	DB, Dialect = conn, "sqlite"
	return nil
}
