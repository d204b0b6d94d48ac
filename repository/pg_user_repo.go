package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"recs_collector/db"
	"recs_collector/models"
)

const pgUserTable = `
CREATE TABLE IF NOT EXISTS discovered_users (
	user_id     TEXT        PRIMARY KEY,
	name        TEXT        NOT NULL DEFAULT '',
	age         INTEGER     NULL,
	bio         TEXT        NOT NULL DEFAULT '',
	birth_date  TEXT        NOT NULL DEFAULT '',
	photo_count INTEGER     NOT NULL DEFAULT 0,
	photo_urls  TEXT        NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const pgInsertUser = `
INSERT INTO discovered_users (user_id, name, age, bio, birth_date, photo_count, photo_urls)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO NOTHING`

// queueUserInserts 把非空ID的用户加入批次，返回排队数量
func queueUserInserts(b *pgx.Batch, users []models.UserRecord) int {
	count := 0
	for _, u := range users {
		if strings.TrimSpace(u.UserID) == "" {
			continue
		}
		var age *int
		if u.Age.Known() {
			v := int(u.Age)
			age = &v
		}
		b.Queue(pgInsertUser, u.UserID, u.Name, age, u.Bio, u.BirthDate, u.PhotoCount, u.JoinedPhotoURLs())
		count++
	}
	return count
}

// PGUserRepo Postgres 用户镜像
type PGUserRepo struct{}

// NewPGUserRepo 确认表存在后返回 sink
func NewPGUserRepo(ctx context.Context) (PGUserRepo, error) {
	if db.PG == nil {
		return PGUserRepo{}, errors.New("postgres not initialized")
	}
	if _, err := db.PG.Exec(ctx, pgUserTable); err != nil {
		return PGUserRepo{}, fmt.Errorf("ensure discovered_users: %w", err)
	}
	return PGUserRepo{}, nil
}

// SaveUsers 一批用户作为一个 pgx.Batch 发送
func (PGUserRepo) SaveUsers(ctx context.Context, users []models.UserRecord) error {
	b := &pgx.Batch{}
	count := queueUserInserts(b, users)
	if count == 0 {
		return nil
	}

	br := db.PG.SendBatch(ctx, b)
	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert users batch: %w", err)
		}
	}
	return br.Close()
}
