package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"recs_collector/config"
	"recs_collector/db"
	"recs_collector/handlers"
	"recs_collector/logger"
	"recs_collector/repository"
	"recs_collector/services"
)

func main() {
	cfg := config.Load()

	// 初始化日志系统
	if err := logger.Init(cfg); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	logger.Info("日志系统初始化成功", "level", cfg.Log.Level, "format", cfg.Log.Format, "output", cfg.Log.Output)

	if cfg.API.AuthToken == "" {
		logger.Error("未配置认证token", "env", "RECS_AUTH_TOKEN")
		os.Exit(1)
	}

	// Ctrl+C / SIGTERM 结束采集，但仍然输出汇总
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	csvStore, err := repository.NewCSVStore(cfg.Scraper.OutputDir, cfg.Scraper.FilePrefix, startedAt)
	if err != nil {
		logger.Error("初始化CSV文件失败", "error", err)
		os.Exit(1)
	}
	defer csvStore.Close()

	sinks := []services.UserSink{csvStore}
	if err := db.Init(ctx, cfg); err != nil {
		logger.Error("初始化数据库失败", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch cfg.DB.Driver {
	case "mysql", "sqlite":
		repo, err := repository.NewSQLUserRepo(ctx)
		if err != nil {
			logger.Error("初始化用户表失败", "driver", cfg.DB.Driver, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, repo)
		logger.Info("数据库连接成功", "driver", cfg.DB.Driver)
	case "postgres":
		repo, err := repository.NewPGUserRepo(ctx)
		if err != nil {
			logger.Error("初始化用户表失败", "driver", cfg.DB.Driver, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, repo)
		logger.Info("数据库连接成功", "driver", cfg.DB.Driver)
	}

	state := services.NewRunState(csvStore.Path(), startedAt)

	if cfg.Server.Port > 0 {
		r := chi.NewRouter()
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		handlers.RegisterRoutes(r, state)

		srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
		go func() {
			logger.Info("状态接口启动", "address", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("状态接口异常退出", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client := services.NewRecsClient(cfg)

	if !cfg.Discovery.SkipSettings {
		logger.Info("开始更新资料设置")
		services.ProfileSettings{Client: client}.Apply(ctx, cfg)
	}

	collector := &services.Collector{
		Fetcher:     client,
		Sinks:       sinks,
		State:       state,
		Delay:       time.Duration(cfg.Scraper.DelayMs) * time.Millisecond,
		MaxRequests: cfg.Scraper.MaxRequests,
	}
	summary := collector.Run(ctx)

	// 中断后 ctx 已取消，统计使用独立的 context
	if cfg.DB.Driver == "mysql" || cfg.DB.Driver == "sqlite" {
		countCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if total, err := repository.CountUsers(countCtx); err != nil {
			logger.Warn("统计入库用户失败", "driver", cfg.DB.Driver, "error", err)
		} else {
			logger.Info("数据库累计用户", "driver", cfg.DB.Driver, "total", total)
		}
		cancel()
	}

	summary.Print(os.Stdout)
}
