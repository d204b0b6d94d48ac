package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"recs_collector/db"
	"recs_collector/models"
)

// =====================
// 表结构
// =====================

const mysqlUserTable = `
CREATE TABLE IF NOT EXISTS discovered_users (
	user_id     VARCHAR(64)  NOT NULL PRIMARY KEY,
	name        VARCHAR(255) NOT NULL DEFAULT '',
	age         INT          NULL,
	bio         TEXT         NOT NULL,
	birth_date  VARCHAR(64)  NOT NULL DEFAULT '',
	photo_count INT          NOT NULL DEFAULT 0,
	photo_urls  TEXT         NOT NULL,
	created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
) DEFAULT CHARSET=utf8mb4`

const sqliteUserTable = `
CREATE TABLE IF NOT EXISTS discovered_users (
	user_id     TEXT    NOT NULL PRIMARY KEY,
	name        TEXT    NOT NULL DEFAULT '',
	age         INTEGER NULL,
	bio         TEXT    NOT NULL DEFAULT '',
	birth_date  TEXT    NOT NULL DEFAULT '',
	photo_count INTEGER NOT NULL DEFAULT 0,
	photo_urls  TEXT    NOT NULL DEFAULT '',
	created_at  TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

func insertVerb() string {
	if db.Dialect == "sqlite" {
		return "INSERT OR IGNORE"
	}
	return "INSERT IGNORE"
}

// ageValue 未知年龄存为 NULL
func ageValue(a models.Age) sql.NullInt64 {
	if !a.Known() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(a), Valid: true}
}

// EnsureUserTable 建表（如不存在）
func EnsureUserTable(ctx context.Context) error {
	if db.DB == nil {
		return errors.New("database not initialized")
	}
	ddl := mysqlUserTable
	if db.Dialect == "sqlite" {
		ddl = sqliteUserTable
	}
	_, err := db.DB.ExecContext(ctx, ddl)
	return err
}

// =====================
// 写入
// =====================

// InsertUsers 在一个事务内写入一批用户，主键冲突的行会被忽略，返回实际插入行数
func InsertUsers(ctx context.Context, users []models.UserRecord) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertVerb()+` INTO discovered_users
		(user_id, name, age, bio, birth_date, photo_count, photo_urls)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, u := range users {
		if strings.TrimSpace(u.UserID) == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, u.UserID, u.Name, ageValue(u.Age), u.Bio, u.BirthDate, u.PhotoCount, u.JoinedPhotoURLs())
		if err != nil {
			return 0, fmt.Errorf("insert user %s: %w", u.UserID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// =====================
// 查询
// =====================

// CountUsers 已入库用户数，采集结束时记录日志
func CountUsers(ctx context.Context) (int, error) {
	var count int
	err := db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM discovered_users`).Scan(&count)
	return count, err
}

// SQLUserRepo 将 InsertUsers 适配为采集循环的 sink
type SQLUserRepo struct{}

// NewSQLUserRepo 确认表存在后返回 sink
func NewSQLUserRepo(ctx context.Context) (SQLUserRepo, error) {
	if err := EnsureUserTable(ctx); err != nil {
		return SQLUserRepo{}, fmt.Errorf("ensure discovered_users: %w", err)
	}
	return SQLUserRepo{}, nil
}

func (SQLUserRepo) SaveUsers(ctx context.Context, users []models.UserRecord) error {
	_, err := InsertUsers(ctx, users)
	return err
}
