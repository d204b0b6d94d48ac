package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"recs_collector/logger"
	"recs_collector/models"
)

// CSVFileName 以运行开始时间命名输出文件
func CSVFileName(prefix string, startedAt time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, startedAt.Format("20060102_150405"))
}

// CSVStore 只追加的CSV输出，表头在创建时写入一次
type CSVStore struct {
	path string
	file *os.File
	w    *csv.Writer
}

// NewCSVStore 创建新的CSV文件并写入表头。同名文件已存在时追加序号，不覆盖旧文件。
func NewCSVStore(dir, prefix string, startedAt time.Time) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := CSVFileName(prefix, startedAt)
	path := filepath.Join(dir, base)
	var f *os.File
	for i := 1; ; i++ {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || i > 100 {
			return nil, fmt.Errorf("create csv %s: %w", path, err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.csv", base[:len(base)-len(".csv")], i))
	}

	s := &CSVStore{path: path, file: f, w: csv.NewWriter(f)}
	if err := s.w.Write(models.UserColumns); err != nil {
		f.Close()
		return nil, err
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		f.Close()
		return nil, err
	}

	logger.Info("CSV文件已初始化", "path", path)
	return s, nil
}

func (s *CSVStore) Path() string {
	return s.path
}

// SaveUsers 追加一批用户
func (s *CSVStore) SaveUsers(_ context.Context, users []models.UserRecord) error {
	if len(users) == 0 {
		return nil
	}
	for _, u := range users {
		if err := s.w.Write(u.CSVRow()); err != nil {
			return fmt.Errorf("write csv row %s: %w", u.UserID, err)
		}
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVStore) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
