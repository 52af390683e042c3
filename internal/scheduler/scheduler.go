// Package scheduler 收盘后定时任务：交易日收盘后拉取跟踪股票的最新行情并重算指标
package scheduler

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"stock-quant-backend/internal/config"
	"stock-quant-backend/internal/holiday"
	"stock-quant-backend/internal/service"
)

const (
	retryCount    = 3
	retryInterval = 10 * time.Minute
	// 数据源请求间隔，避免被反爬
	fetchInterval = 3 * time.Second
)

// StartPostMarketUpdate 启动收盘后增量更新任务。
// 只在交易日运行，失败时带间隔重试。
func StartPostMarketUpdate(svc *service.Service) {
	cfg := config.GetSchedulerConfig()
	if !cfg.PostMarketUpdate.Enabled {
		log.Println("[INFO][Scheduler] 收盘后更新任务已禁用")
		return
	}

	hour, minute := parseRunAt(cfg.PostMarketUpdate.RunAt)
	log.Printf("[INFO][Scheduler] 收盘后更新任务已启动，运行时刻 %02d:%02d", hour, minute)

	go func() {
		for {
			now := time.Now()
			nextRun := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if now.After(nextRun) {
				nextRun = nextRun.Add(24 * time.Hour)
			}
			// 跳过非交易日
			for !holiday.IsTradingDay(nextRun) {
				nextRun = nextRun.Add(24 * time.Hour)
			}

			duration := nextRun.Sub(now)
			log.Printf("[INFO][Scheduler] 下次收盘后更新: %s（%v后）",
				nextRun.Format("2006-01-02 15:04:05"), duration.Round(time.Minute))
			time.Sleep(duration)

			updateWithRetry(svc)
		}
	}()
}

// parseRunAt 解析HH:MM，非法时给默认16:30
func parseRunAt(runAt string) (hour, minute int) {
	hour, minute = 16, 30
	parts := strings.Split(runAt, ":")
	if len(parts) != 2 {
		return hour, minute
	}
	if h, err := strconv.Atoi(parts[0]); err == nil && h >= 0 && h < 24 {
		hour = h
	}
	if m, err := strconv.Atoi(parts[1]); err == nil && m >= 0 && m < 60 {
		minute = m
	}
	return hour, minute
}

func updateWithRetry(svc *service.Service) {
	for i := 0; i <= retryCount; i++ {
		if i > 0 {
			log.Printf("[INFO][Scheduler] 第 %d 次重试收盘后更新", i)
		}
		if err := updateTracked(svc); err != nil {
			log.Printf("[WARN][Scheduler] 收盘后更新失败: %v", err)
			if i < retryCount {
				time.Sleep(retryInterval)
			}
			continue
		}
		log.Println("[INFO][Scheduler] 收盘后更新完成")
		return
	}
	log.Printf("[WARN][Scheduler] 收盘后更新失败，已重试 %d 次", retryCount)
}

// updateTracked 逐只更新已入库的股票。失败超过半数触发重试。
func updateTracked(svc *service.Service) error {
	codes, err := svc.TrackedCodes()
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		log.Println("[INFO][Scheduler] 没有需要更新的股票")
		return nil
	}

	start := time.Now()
	failCount := 0
	for _, code := range codes {
		if _, err := svc.UpdateSymbol(code); err != nil {
			log.Printf("[WARN][Scheduler] 更新 %s 失败: %v", code, err)
			failCount++
		}
		time.Sleep(fetchInterval)
	}

	log.Printf("[INFO][Scheduler] 更新 %d 只股票，失败 %d，耗时 %v",
		len(codes), failCount, time.Since(start).Round(time.Second))
	if failCount > len(codes)/2 {
		return fmt.Errorf("更新失败数量过多: %d/%d", failCount, len(codes))
	}
	return nil
}
