package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"recs_collector/config"
)

// Logger 全局日志记录器，未初始化时使用slog默认logger
var Logger = slog.Default()

// InitSlog 初始化slog日志系统
func InitSlog(cfg *config.Config) error {
	output := strings.ToLower(cfg.Log.Output)
	filePath := cfg.Log.FilePath

	// 设置输出目标
	var writer io.Writer
	switch output {
	case "file", "both":
		if filePath == "" {
			filePath = "logs/recs_collector.log"
		}
		// 创建日志目录
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return err
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writer = file
		if output == "both" {
			writer = io.MultiWriter(os.Stdout, file)
		}
	default:
		writer = os.Stdout
	}

	InitWithWriter(writer, cfg.Log.Level, cfg.Log.Format)
	return nil
}

// InitWithWriter 使用指定的输出初始化日志
func InitWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	// 设置日志格式
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	// 设置默认logger和全局Logger变量
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init 使用配置文件初始化日志系统
func Init(cfg *config.Config) error {
	return InitSlog(cfg)
}

// Debug 记录调试级别的日志
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info 记录信息级别的日志
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn 记录警告级别的日志
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error 记录错误级别的日志
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
