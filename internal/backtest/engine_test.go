package backtest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-quant-backend/internal/model"
)

// rec 构造一条带指标的日线记录，高低点贴着收盘价以通过价格校验
func rec(date string, close, k, rsi float64) model.DailyRecord {
	return model.DailyRecord{
		KlineData: model.KlineData{
			Date:  date,
			Open:  close,
			Close: close,
			High:  close,
			Low:   close,
		},
		K:       k,
		D:       k,
		J:       k,
		RSI:     rsi,
		BollMid: close,
	}
}

func dates(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("2025-03-%02d", i+1)
	}
	return out
}

func TestOversoldBuyOnceOnly(t *testing.T) {
	ds := dates(6)
	records := []model.DailyRecord{
		rec(ds[0], 100, 50, 50),
		rec(ds[1], 100, 15, 25), // 超卖，买入
		rec(ds[2], 100, 15, 25), // 同样超卖，但已持仓，不得重复买入
		rec(ds[3], 100, 15, 25),
		rec(ds[4], 101, 40, 40),
		rec(ds[5], 102, 40, 40),
	}

	strategy, err := NewStrategy("oversold_reversal")
	require.NoError(t, err)
	sizing, err := NewSizing("all_in", SizingParams{})
	require.NoError(t, err)

	engine := NewEngine(Config{InitialCapital: 10000, CommissionRate: 0}, strategy, sizing)
	result, err := engine.Run("000001", records)
	require.NoError(t, err)

	buys := 0
	for _, trade := range result.Ledger.Trades {
		if trade.Action == model.ActionBuy {
			buys++
		}
	}
	assert.Equal(t, 1, buys, "持仓期间重复满足买入条件不应加仓")
	assert.Equal(t, ds[1], result.Ledger.Trades[0].Date)
	assert.InDelta(t, 100.0, result.Ledger.Trades[0].Shares, 1e-9)
}

func TestMinHoldDaysBlocksSell(t *testing.T) {
	ds := dates(6)
	records := []model.DailyRecord{
		rec(ds[0], 100, 15, 25), // 买入
		rec(ds[1], 120, 85, 85), // 超买，挂起卖出标记
		rec(ds[2], 100, 60, 60), // 回撤>10%触发卖出，但持仓天数不足
		rec(ds[3], 100, 60, 60),
		rec(ds[4], 100, 60, 60), // 满3天后允许卖出
		rec(ds[5], 100, 60, 60),
	}
	// 跌破布林中轨条件需要K>50且close<boll_mid
	for i := 2; i < 6; i++ {
		records[i].BollMid = 150
	}

	strategy, _ := NewStrategy("oversold_reversal")
	sizing, _ := NewSizing("all_in", SizingParams{})
	engine := NewEngine(Config{InitialCapital: 10000, MinHoldDays: 3}, strategy, sizing)

	result, err := engine.Run("000001", records)
	require.NoError(t, err)

	var sellDate string
	for _, trade := range result.Ledger.Trades {
		if trade.Action == model.ActionSell {
			sellDate = trade.Date
		}
	}
	require.NotEmpty(t, sellDate, "应有卖出成交")
	assert.GreaterOrEqual(t, sellDate, ds[3], "最短持仓期内不得卖出")

	skipped := 0
	for _, step := range result.Steps {
		if step.Status == StepSkipped {
			skipped++
		}
	}
	assert.Positive(t, skipped, "被最短持仓期拦下的卖出应记为skipped")
}

func TestEndOfDataKeepsOpenPosition(t *testing.T) {
	ds := dates(4)
	records := []model.DailyRecord{
		rec(ds[0], 100, 15, 25), // 买入后一直持有
		rec(ds[1], 105, 40, 40),
		rec(ds[2], 110, 40, 40),
		rec(ds[3], 120, 40, 40),
	}

	strategy, _ := NewStrategy("oversold_reversal")
	sizing, _ := NewSizing("all_in", SizingParams{})
	engine := NewEngine(Config{InitialCapital: 10000}, strategy, sizing)

	result, err := engine.Run("000001", records)
	require.NoError(t, err)

	require.NotNil(t, result.OpenPosition, "期末不强制平仓")
	assert.Len(t, result.Ledger.Trades, 1, "不应出现期末自动卖出")
	assert.InDelta(t, 12000.0, result.FinalEquity, 1e-6)
	assert.InDelta(t, 2000.0, result.UnrealizedPnl, 1e-6)
}

// panicStrategy 在指定日期抛出panic，用来验证引擎的隔离能力
type panicStrategy struct {
	panicDate string
}

func (s *panicStrategy) Name() string { return "panic_test" }

func (s *panicStrategy) Decide(ctx *Context, symbol string, r model.DailyRecord, pos *Position) model.Signal {
	if r.Date == s.panicDate {
		panic("规则内部错误")
	}
	return model.Signal{Symbol: symbol, Action: model.ActionHold, Price: r.Close}
}

func TestStepPanicRecordedAsSkipped(t *testing.T) {
	ds := dates(3)
	records := []model.DailyRecord{
		rec(ds[0], 100, 50, 50),
		rec(ds[1], 100, 50, 50),
		rec(ds[2], 100, 50, 50),
	}

	sizing, _ := NewSizing("all_in", SizingParams{})
	engine := NewEngine(Config{InitialCapital: 10000}, &panicStrategy{panicDate: ds[1]}, sizing)

	result, err := engine.Run("000001", records)
	require.NoError(t, err, "单日异常不应中断回测")
	require.Len(t, result.Steps, 3)
	assert.Equal(t, StepSkipped, result.Steps[1].Status)
	assert.Contains(t, result.Steps[1].Reason, "规则执行异常")
	assert.Equal(t, StepHeld, result.Steps[2].Status, "异常次日回测继续")
}

func TestDateRangeFiltering(t *testing.T) {
	ds := dates(5)
	records := make([]model.DailyRecord, 5)
	for i := range records {
		records[i] = rec(ds[i], 100, 50, 50)
	}

	strategy, _ := NewStrategy("oversold_reversal")
	sizing, _ := NewSizing("all_in", SizingParams{})
	engine := NewEngine(Config{InitialCapital: 10000, StartDate: ds[1], EndDate: ds[3]}, strategy, sizing)

	result, err := engine.Run("000001", records)
	require.NoError(t, err)
	require.Len(t, result.Steps, 3)
	assert.Equal(t, ds[1], result.Steps[0].Date)
	assert.Equal(t, ds[3], result.Steps[2].Date)
}

func TestRunEmptyRecords(t *testing.T) {
	strategy, _ := NewStrategy("oversold_reversal")
	sizing, _ := NewSizing("all_in", SizingParams{})
	engine := NewEngine(Config{InitialCapital: 10000}, strategy, sizing)

	_, err := engine.Run("000001", nil)
	assert.Error(t, err)
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	ds := dates(3)
	good := []model.DailyRecord{
		rec(ds[0], 100, 50, 50),
		rec(ds[1], 101, 50, 50),
		rec(ds[2], 102, 50, 50),
	}
	load := func(code string) ([]model.DailyRecord, error) {
		if code == "bad" {
			return nil, errors.New("没有数据")
		}
		return good, nil
	}
	newEngine := func() *Engine {
		strategy, _ := NewStrategy("oversold_reversal")
		sizing, _ := NewSizing("all_in", SizingParams{})
		return NewEngine(Config{InitialCapital: 10000}, strategy, sizing)
	}

	runs := RunBatch(context.Background(), []string{"000001", "bad", "000002"}, load, newEngine, 2)
	require.Len(t, runs, 3)
	assert.NoError(t, runs[0].Err)
	assert.Error(t, runs[1].Err)
	assert.NoError(t, runs[2].Err)
	assert.NotNil(t, runs[2].Result)
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	load := func(code string) ([]model.DailyRecord, error) { return nil, errors.New("不应被调用") }
	newEngine := func() *Engine {
		strategy, _ := NewStrategy("oversold_reversal")
		sizing, _ := NewSizing("all_in", SizingParams{})
		return NewEngine(Config{InitialCapital: 10000}, strategy, sizing)
	}

	runs := RunBatch(ctx, []string{"000001", "000002"}, load, newEngine, 1)
	assert.LessOrEqual(t, len(runs), 2)
}
