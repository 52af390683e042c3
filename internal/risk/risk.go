// Package risk 个股与组合的风险度量：波动率、夏普、最大回撤、
// 历史法VaR、收益分布形态，以及组合层面的集中度与相关性估计。
package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"stock-quant-backend/internal/model"
)

const (
	tradingDaysPerYear = 252
	// minVaRSamples 历史法VaR要求的最少样本数，样本过少时给0
	minVaRSamples = 30
)

// Config 风险分析参数
type Config struct {
	RiskFreeRate           float64 // 年化无风险利率，默认0.02
	ConcentrationThreshold float64 // 集中度告警阈值，默认0.2
}

// DefaultConfig 默认参数
func DefaultConfig() Config {
	return Config{RiskFreeRate: 0.02, ConcentrationThreshold: 0.2}
}

// Analyze 计算单只股票的风险指标
func Analyze(code string, records []model.DailyRecord, cfg Config) (*model.RiskMetrics, error) {
	returns := closeReturns(records)
	if len(returns) < 2 {
		return nil, fmt.Errorf("股票 %s 数据不足以计算风险指标", code)
	}

	metrics := &model.RiskMetrics{
		Code:         code,
		AnalysisDays: len(records),
		CurrentPrice: records[len(records)-1].Close,
	}

	mu := mean(returns)
	sigma := stddev(returns, mu)
	metrics.VolatilityDaily = sigma
	metrics.VolatilityAnnual = sigma * math.Sqrt(tradingDaysPerYear)
	if metrics.VolatilityAnnual > 0 {
		annualReturn := mu * tradingDaysPerYear
		metrics.SharpeRatio = (annualReturn - cfg.RiskFreeRate) / metrics.VolatilityAnnual
	}
	metrics.MaxDrawdown = maxDrawdown(records)
	metrics.VaR95 = historicalVaR(returns, 0.95)
	metrics.VaR99 = historicalVaR(returns, 0.99)
	metrics.Skewness = skewness(returns, mu, sigma)
	metrics.Kurtosis = kurtosis(returns, mu, sigma)
	return metrics, nil
}

// closeReturns 收盘价逐日收益率
func closeReturns(records []model.DailyRecord) []float64 {
	var returns []float64
	for i := 1; i < len(records); i++ {
		if records[i-1].Close > 0 {
			returns = append(returns, records[i].Close/records[i-1].Close-1)
		}
	}
	return returns
}

// historicalVaR 历史法VaR：损失分布的(1-confidence)分位，取正数表示亏损幅度。
// 样本不足30个时分位数不可靠，直接给0。
func historicalVaR(returns []float64, confidence float64) float64 {
	if len(returns) < minVaRSamples {
		return 0
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	k := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if k >= len(sorted) {
		k = len(sorted) - 1
	}
	v := sorted[k]
	if v < 0 {
		return -v
	}
	return 0
}

// maxDrawdown 收盘价序列的最大回撤，峰值只向前看
func maxDrawdown(records []model.DailyRecord) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, rec := range records {
		if rec.Close > peak {
			peak = rec.Close
		}
		if peak > 0 {
			dd := (peak - rec.Close) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// skewness 样本偏度
func skewness(xs []float64, mu, sigma float64) float64 {
	if sigma == 0 || len(xs) < 3 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := (x - mu) / sigma
		sum += d * d * d
	}
	return sum / float64(len(xs))
}

// kurtosis 超额峰度（正态分布为0）
func kurtosis(xs []float64, mu, sigma float64) float64 {
	if sigma == 0 || len(xs) < 4 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := (x - mu) / sigma
		sum += d * d * d * d
	}
	return sum/float64(len(xs)) - 3
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	ss := 0.0
	for _, x := range xs {
		ss += (x - mu) * (x - mu)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// PositionValue 组合风险计算用的单个持仓市值
type PositionValue struct {
	Code  string
	Value float64
}

// AnalyzePortfolio 组合风险：集中度 = 最大单票市值占比；
// 相关性按持仓只数分档估计（持仓越少分散效果越差）。
func AnalyzePortfolio(positions []PositionValue, cfg Config) *model.PortfolioRisk {
	result := &model.PortfolioRisk{PositionsCount: len(positions)}
	if len(positions) == 0 {
		return result
	}

	total := 0.0
	maxValue := 0.0
	for _, pos := range positions {
		total += pos.Value
		if pos.Value > maxValue {
			maxValue = pos.Value
		}
	}
	result.PortfolioValue = total
	if total > 0 {
		result.ConcentrationRisk = maxValue / total
	}
	result.IsConcentrated = result.ConcentrationRisk > cfg.ConcentrationThreshold

	switch {
	case len(positions) <= 2:
		result.CorrelationRisk = 0.7
	case len(positions) <= 4:
		result.CorrelationRisk = 0.5
	default:
		result.CorrelationRisk = 0.3
	}
	return result
}

// Report 生成风险分析文字报告
func Report(name string, m *model.RiskMetrics) string {
	var b strings.Builder
	b.WriteString("========== 风险分析报告 ==========\n")
	fmt.Fprintf(&b, "股票: %s %s\n", m.Code, name)
	fmt.Fprintf(&b, "分析天数: %d\n", m.AnalysisDays)
	fmt.Fprintf(&b, "当前价格: %.2f\n", m.CurrentPrice)
	fmt.Fprintf(&b, "日波动率: %.4f\n", m.VolatilityDaily)
	fmt.Fprintf(&b, "年化波动率: %.2f%%\n", m.VolatilityAnnual*100)
	fmt.Fprintf(&b, "夏普比率: %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "最大回撤: %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(&b, "VaR(95%%): %.2f%%\n", m.VaR95*100)
	fmt.Fprintf(&b, "VaR(99%%): %.2f%%\n", m.VaR99*100)
	fmt.Fprintf(&b, "偏度: %.2f\n", m.Skewness)
	fmt.Fprintf(&b, "超额峰度: %.2f\n", m.Kurtosis)
	b.WriteString("==================================\n")
	return b.String()
}

// PortfolioReport 生成组合风险文字报告
func PortfolioReport(p *model.PortfolioRisk) string {
	var b strings.Builder
	b.WriteString("========== 组合风险报告 ==========\n")
	fmt.Fprintf(&b, "组合市值: %.2f\n", p.PortfolioValue)
	fmt.Fprintf(&b, "持仓只数: %d\n", p.PositionsCount)
	fmt.Fprintf(&b, "集中度: %.2f%%\n", p.ConcentrationRisk*100)
	fmt.Fprintf(&b, "相关性估计: %.2f\n", p.CorrelationRisk)
	if p.IsConcentrated {
		b.WriteString("提示: 仓位过度集中，建议分散\n")
	}
	b.WriteString("==================================\n")
	return b.String()
}
