package services

import (
	"context"
	"time"

	"recs_collector/logger"
	"recs_collector/models"
)

// UserSink 新用户的持久化目标，按批次追加
type UserSink interface {
	SaveUsers(ctx context.Context, users []models.UserRecord) error
}

// Collector 顺序轮询推荐接口，去重后追加写入各个 sink
type Collector struct {
	Fetcher     PageFetcher
	Sinks       []UserSink
	State       *RunState
	Delay       time.Duration
	MaxRequests int // 0 表示不限制

	// Now 用于计算年龄，默认 time.Now
	Now func() time.Time
}

// Run 执行采集循环直到遇到结束条件，无论何种结束方式都返回汇总
func (c *Collector) Run(ctx context.Context) Summary {
	if c.Now == nil {
		c.Now = time.Now
	}

	logger.Info("开始持续采集", "delay", c.Delay.String(), "max_requests", c.MaxRequests, "output", c.State.OutputFile())

	reason := c.loop(ctx)
	c.State.finish(reason)

	summary := c.summarize(reason)
	logger.Info("采集结束",
		"reason", string(reason),
		"requests", summary.Requests,
		"unique_users", summary.UniqueUsers,
		"output", summary.OutputFile)
	return summary
}

func (c *Collector) loop(ctx context.Context) StopReason {
	for {
		if ctx.Err() != nil {
			return StopInterrupted
		}
		if c.MaxRequests > 0 && c.State.Requests() >= c.MaxRequests {
			logger.Info("达到最大请求数", "max_requests", c.MaxRequests)
			return StopRequestLimit
		}

		n := c.State.nextRequest()
		res := c.Fetcher.FetchRecs(ctx)
		if !res.OK() {
			if ctx.Err() != nil {
				logger.Warn("请求被中断", "request", n)
				return StopInterrupted
			}
			logger.Warn("非200响应，停止采集", "request", n, "status_code", res.Status, "response", res.Body)
			return StopNonSuccess
		}

		added := ExtractUsers(res.Page, c.State, c.Now())
		if len(added) == 0 {
			logger.Info("本页没有新用户，停止采集", "request", n)
			return StopEmptyPage
		}

		for _, sink := range c.Sinks {
			if err := sink.SaveUsers(ctx, added); err != nil {
				logger.Error("保存用户失败", "request", n, "count", len(added), "error", err)
				return StopStorageFailed
			}
		}
		logger.Info("发现新用户", "request", n, "new", len(added), "total", c.State.Count())

		if !sleepCtx(ctx, c.Delay) {
			return StopInterrupted
		}
	}
}

// sleepCtx 等待 d，被取消时返回 false
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
