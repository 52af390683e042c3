package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-quant-backend/internal/backtest"
	"stock-quant-backend/internal/model"
)

func equityCurve(values ...float64) []model.EquityPoint {
	points := make([]model.EquityPoint, len(values))
	for i, v := range values {
		points[i] = model.EquityPoint{
			Date:       fmt.Sprintf("2025-05-%02d", i+1),
			Cash:       v,
			TotalValue: v,
		}
	}
	return points
}

func TestMaxDrawdownMonotonicCurveIsZero(t *testing.T) {
	assert.Zero(t, MaxDrawdown(equityCurve(100, 101, 105, 110, 120)))
}

func TestMaxDrawdownCausal(t *testing.T) {
	// 峰值120，最低84：回撤30%。之后创新高不改写历史回撤
	dd := MaxDrawdown(equityCurve(100, 120, 84, 90, 150))
	assert.InDelta(t, 0.30, dd, 1e-9)
}

func TestMaxDrawdownNeverExceedsFull(t *testing.T) {
	dd := MaxDrawdown(equityCurve(100, 50, 10, 1))
	assert.LessOrEqual(t, dd, 1.0)
	assert.InDelta(t, 0.99, dd, 1e-9)
}

func TestAnalyzeZeroVolatilityZeroSharpe(t *testing.T) {
	ledger := backtest.NewLedger(10000, 0)
	ledger.Equity = equityCurve(10000, 10000, 10000, 10000)
	result := &backtest.Result{Symbol: "000001", Ledger: ledger, FinalEquity: 10000}

	metrics := Analyze(result, 0)
	assert.Zero(t, metrics.Volatility)
	assert.Zero(t, metrics.SharpeRatio, "零波动时夏普比率为0而不是无穷")
	assert.Zero(t, metrics.TotalReturn)
}

func TestAnalyzeTotalAndAnnualizedReturn(t *testing.T) {
	ledger := backtest.NewLedger(10000, 0)
	ledger.Equity = equityCurve(10000, 10500, 11000)
	result := &backtest.Result{Symbol: "000001", Ledger: ledger, FinalEquity: 11000}

	metrics := Analyze(result, 0)
	assert.InDelta(t, 0.10, metrics.TotalReturn, 1e-9)
	assert.Positive(t, metrics.AnnualizedReturn)
	assert.Equal(t, 3, metrics.Days)
}

func TestWinRateAndProfitFactor(t *testing.T) {
	ledger := backtest.NewLedger(10000, 0)
	ledger.Trades = []model.Trade{
		{Action: model.ActionBuy},
		{Action: model.ActionSell, RealizedPnl: 300},
		{Action: model.ActionBuy},
		{Action: model.ActionSell, RealizedPnl: 100},
		{Action: model.ActionBuy},
		{Action: model.ActionSell, RealizedPnl: -100},
	}
	ledger.Equity = equityCurve(10000, 10300)
	result := &backtest.Result{Symbol: "000001", Ledger: ledger, FinalEquity: 10300}

	metrics := Analyze(result, 0)
	assert.InDelta(t, 2.0/3.0, metrics.WinRate, 1e-9)
	// 平均盈利200 / 平均亏损100
	assert.InDelta(t, 2.0, metrics.ProfitFactor, 1e-9)
	assert.Equal(t, 6, metrics.TotalTrades)
	assert.Equal(t, 3, metrics.SellTrades)
	assert.InDelta(t, 300.0, metrics.RealizedPnl, 1e-9)
}

func TestProfitFactorNoLosersIsZero(t *testing.T) {
	ledger := backtest.NewLedger(10000, 0)
	ledger.Trades = []model.Trade{
		{Action: model.ActionSell, RealizedPnl: 500},
	}
	ledger.Equity = equityCurve(10000, 10500)
	result := &backtest.Result{Symbol: "000001", Ledger: ledger, FinalEquity: 10500}

	metrics := Analyze(result, 0)
	assert.Equal(t, 1.0, metrics.WinRate)
	assert.Zero(t, metrics.ProfitFactor)
}

func TestReportContainsKeySections(t *testing.T) {
	ledger := backtest.NewLedger(10000, 0)
	ledger.Equity = equityCurve(10000, 10500)
	result := &backtest.Result{Symbol: "000001", Strategy: "oversold_reversal", Ledger: ledger, FinalEquity: 10500}
	metrics := Analyze(result, 0)

	report := Report("000001", "平安银行", result, metrics)
	require.Contains(t, report, "回测结果报告")
	assert.Contains(t, report, "平安银行")
	assert.Contains(t, report, "总收益率")
	assert.Contains(t, report, "最大回撤")
}
