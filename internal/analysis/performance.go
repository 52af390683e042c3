// Package analysis 回测结果的绩效分析与点位分析。
// 只做已有数据的后处理，不触发任何行情请求。
package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"stock-quant-backend/internal/backtest"
	"stock-quant-backend/internal/model"
)

const tradingDaysPerYear = 252

// Analyze 从单只股票的回测结果计算绩效指标。
// riskFreeRate为年化无风险利率，夏普比率在零波动时给0。
func Analyze(result *backtest.Result, riskFreeRate float64) model.PerformanceMetrics {
	ledger := result.Ledger
	metrics := model.PerformanceMetrics{
		InitialCapital: ledger.InitialCapital,
		FinalEquity:    result.FinalEquity,
		UnrealizedPnl:  result.UnrealizedPnl,
		Days:           len(ledger.Equity),
	}

	if ledger.InitialCapital > 0 {
		metrics.TotalReturn = result.FinalEquity/ledger.InitialCapital - 1
	}
	metrics.AnnualizedReturn = annualize(metrics.TotalReturn, ledger.Equity)
	metrics.Volatility = annualVolatility(equityReturns(ledger.Equity))
	if metrics.Volatility > 0 {
		metrics.SharpeRatio = (metrics.AnnualizedReturn - riskFreeRate) / metrics.Volatility
	}
	metrics.MaxDrawdown = MaxDrawdown(ledger.Equity)

	for _, trade := range ledger.Trades {
		metrics.TotalTrades++
		switch trade.Action {
		case model.ActionBuy:
			metrics.BuyTrades++
		case model.ActionSell:
			metrics.SellTrades++
			metrics.RealizedPnl += trade.RealizedPnl
		}
	}
	metrics.WinRate, metrics.ProfitFactor = winStats(ledger.Trades)
	return metrics
}

// annualize 按自然日年化（一年365.25天），日期不可解析时退回按交易日数
func annualize(totalReturn float64, equity []model.EquityPoint) float64 {
	if len(equity) < 2 || totalReturn <= -1 {
		return 0
	}
	days := float64(len(equity))
	first, err1 := time.Parse("2006-01-02", equity[0].Date)
	last, err2 := time.Parse("2006-01-02", equity[len(equity)-1].Date)
	if err1 == nil && err2 == nil && last.After(first) {
		days = last.Sub(first).Hours() / 24
	}
	if days <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, 365.25/days) - 1
}

// equityReturns 净值曲线的逐日收益率
func equityReturns(equity []model.EquityPoint) []float64 {
	var returns []float64
	for i := 1; i < len(equity); i++ {
		if equity[i-1].TotalValue > 0 {
			returns = append(returns, equity[i].TotalValue/equity[i-1].TotalValue-1)
		}
	}
	return returns
}

// annualVolatility 样本标准差年化
func annualVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	ss := 0.0
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss/float64(len(returns)-1)) * math.Sqrt(tradingDaysPerYear)
}

// MaxDrawdown 最大回撤：净值相对历史峰值的最大跌幅，只用截至当日的峰值
func MaxDrawdown(equity []model.EquityPoint) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, point := range equity {
		if point.TotalValue > peak {
			peak = point.TotalValue
		}
		if peak > 0 {
			dd := (peak - point.TotalValue) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// winStats 胜率与盈亏比。盈亏比 = 平均盈利/平均亏损的绝对值，无亏损单时为0
func winStats(trades []model.Trade) (winRate, profitFactor float64) {
	var wins, losses []float64
	sells := 0
	for _, trade := range trades {
		if trade.Action != model.ActionSell {
			continue
		}
		sells++
		if trade.RealizedPnl > 0 {
			wins = append(wins, trade.RealizedPnl)
		} else if trade.RealizedPnl < 0 {
			losses = append(losses, trade.RealizedPnl)
		}
	}
	if sells == 0 {
		return 0, 0
	}
	winRate = float64(len(wins)) / float64(sells)
	if len(wins) > 0 && len(losses) > 0 {
		profitFactor = math.Abs(mean(wins) / mean(losses))
	}
	return winRate, profitFactor
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Report 生成回测结果文字报告
func Report(code, name string, result *backtest.Result, metrics model.PerformanceMetrics) string {
	var b strings.Builder
	b.WriteString("========== 回测结果报告 ==========\n")
	fmt.Fprintf(&b, "股票: %s %s\n", code, name)
	fmt.Fprintf(&b, "策略: %s\n", result.Strategy)
	fmt.Fprintf(&b, "回测天数: %d\n", metrics.Days)
	fmt.Fprintf(&b, "初始资金: %.2f\n", metrics.InitialCapital)
	fmt.Fprintf(&b, "期末净值: %.2f\n", metrics.FinalEquity)
	fmt.Fprintf(&b, "总收益率: %.2f%%\n", metrics.TotalReturn*100)
	fmt.Fprintf(&b, "年化收益率: %.2f%%\n", metrics.AnnualizedReturn*100)
	fmt.Fprintf(&b, "年化波动率: %.2f%%\n", metrics.Volatility*100)
	fmt.Fprintf(&b, "夏普比率: %.2f\n", metrics.SharpeRatio)
	fmt.Fprintf(&b, "最大回撤: %.2f%%\n", metrics.MaxDrawdown*100)
	fmt.Fprintf(&b, "交易次数: %d (买入%d 卖出%d)\n", metrics.TotalTrades, metrics.BuyTrades, metrics.SellTrades)
	fmt.Fprintf(&b, "胜率: %.2f%%\n", metrics.WinRate*100)
	fmt.Fprintf(&b, "盈亏比: %.2f\n", metrics.ProfitFactor)
	fmt.Fprintf(&b, "已实现盈亏: %.2f\n", metrics.RealizedPnl)
	if result.OpenPosition != nil {
		fmt.Fprintf(&b, "期末持仓: %.0f股 @成本%.2f 未实现盈亏%.2f\n",
			result.OpenPosition.Shares, result.OpenPosition.AvgCost, metrics.UnrealizedPnl)
	}
	b.WriteString("==================================\n")
	return b.String()
}
