// Package config 环境变量配置
package config

import (
	"os"
	"strconv"
	"time"
)

// BacktestConfig 回测配置
type BacktestConfig struct {
	InitialCapital float64 `json:"initial_capital"` // 初始资金，默认100万
	CommissionRate float64 `json:"commission_rate"` // 佣金率，默认0.03%
	Strategy       string  `json:"strategy"`        // 默认策略
	Sizing         string  `json:"sizing"`          // 仓位策略 all_in / volatility
	RiskFraction   float64 `json:"risk_fraction"`   // 波动率仓位的基础风险比例
	StopLossPct    float64 `json:"stop_loss_pct"`   // 止损比例
	MaxStockRatio  float64 `json:"max_stock_ratio"` // 单只股票最大仓位比例
	MaxTotalRatio  float64 `json:"max_total_ratio"` // 总仓位上限比例
	MinHoldDays    int     `json:"min_hold_days"`   // 卖出前最少持仓天数
}

// GetBacktestConfig 读取回测配置
func GetBacktestConfig() *BacktestConfig {
	return &BacktestConfig{
		InitialCapital: getEnvFloat("BACKTEST_CAPITAL", 1000000),
		CommissionRate: getEnvFloat("BACKTEST_COMMISSION_RATE", 0.0003),
		Strategy:       getEnvString("BACKTEST_STRATEGY", "oversold_reversal"),
		Sizing:         getEnvString("BACKTEST_SIZING", "all_in"),
		RiskFraction:   getEnvFloat("BACKTEST_RISK_FRACTION", 0.02),
		StopLossPct:    getEnvFloat("BACKTEST_STOP_LOSS_PCT", 0.08),
		MaxStockRatio:  getEnvFloat("BACKTEST_MAX_STOCK_RATIO", 0.1),
		MaxTotalRatio:  getEnvFloat("BACKTEST_MAX_TOTAL_RATIO", 0.8),
		MinHoldDays:    getEnvInt("BACKTEST_MIN_HOLD_DAYS", 3),
	}
}

// RiskConfig 风险分析配置
type RiskConfig struct {
	RiskFreeRate       float64 `json:"risk_free_rate"`      // 无风险利率，默认2%
	ConcentrationLimit float64 `json:"concentration_limit"` // 单票集中度阈值，默认0.2
	LookbackDays       int     `json:"lookback_days"`       // 风险分析回看天数
}

// GetRiskConfig 读取风险分析配置
func GetRiskConfig() *RiskConfig {
	return &RiskConfig{
		RiskFreeRate:       getEnvFloat("RISK_FREE_RATE", 0.02),
		ConcentrationLimit: getEnvFloat("RISK_CONCENTRATION_LIMIT", 0.2),
		LookbackDays:       getEnvInt("RISK_LOOKBACK_DAYS", 252),
	}
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	// 收盘后增量更新配置
	PostMarketUpdate struct {
		Enabled bool          `json:"enabled"`
		RunAt   string        `json:"run_at"` // 每日运行时刻 HH:MM，默认16:30
		Delay   time.Duration `json:"delay"`  // 启动检查间隔
	} `json:"post_market_update"`
}

// GetSchedulerConfig 读取定时任务配置
func GetSchedulerConfig() *SchedulerConfig {
	config := &SchedulerConfig{}
	config.PostMarketUpdate.Enabled = getEnvBool("POST_MARKET_UPDATE_ENABLED", true)
	config.PostMarketUpdate.RunAt = getEnvString("POST_MARKET_UPDATE_TIME", "16:30")
	config.PostMarketUpdate.Delay = getEnvDuration("POST_MARKET_UPDATE_CHECK_INTERVAL", time.Minute)
	return config
}

// 辅助函数
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
