package backtest

import (
	"fmt"
	"log"
	"math"

	"stock-quant-backend/internal/model"
)

// StepStatus 单日推演结果状态
type StepStatus string

const (
	StepExecuted StepStatus = "executed" // 当日有成交
	StepHeld     StepStatus = "held"     // 无操作
	StepSkipped  StepStatus = "skipped"  // 当日被跳过，原因见Reason
)

// StepResult 单日推演结果。规则异常或信号非法不会中断回测，
// 只会把当日记为skipped并继续下一日。
type StepResult struct {
	Date   string     `json:"date"`
	Status StepStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// Config 引擎配置
type Config struct {
	InitialCapital float64
	CommissionRate float64
	MinHoldDays    int // 买入后至少持有几天才允许卖出
	StartDate      string
	EndDate        string
}

// Result 单只股票一次回测的输出
type Result struct {
	Symbol        string
	Strategy      string
	Ledger        *Ledger
	Steps         []StepResult
	FinalEquity   float64
	UnrealizedPnl float64 // 期末未平仓部分按最后收盘价估值
	OpenPosition  *Position
}

// Engine 回测引擎。一次Run独占一个账本，多股票并行时各建各的引擎。
type Engine struct {
	cfg      Config
	strategy Strategy
	sizing   SizingPolicy
}

// NewEngine 创建引擎
func NewEngine(cfg Config, strategy Strategy, sizing SizingPolicy) *Engine {
	return &Engine{cfg: cfg, strategy: strategy, sizing: sizing}
}

// Run 逐日重放一只股票的历史记录。
// 期末持仓按收盘价估值但不强制平仓，未实现盈亏单独上报。
func (e *Engine) Run(symbol string, records []model.DailyRecord) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("股票 %s 没有历史数据", symbol)
	}

	ledger := NewLedger(e.cfg.InitialCapital, e.cfg.CommissionRate)
	ctx := NewContext()
	result := &Result{Symbol: symbol, Strategy: e.strategy.Name(), Ledger: ledger}

	for i, rec := range records {
		if e.cfg.StartDate != "" && rec.Date < e.cfg.StartDate {
			continue
		}
		if e.cfg.EndDate != "" && rec.Date > e.cfg.EndDate {
			break
		}

		step := e.step(ctx, ledger, symbol, records, i)
		result.Steps = append(result.Steps, step)

		// 逐日推进持仓天数并记净值
		if pos := ledger.Position(symbol); pos != nil {
			pos.HoldDays++
			ctx.PositionDays[symbol] = pos.HoldDays
		} else {
			delete(ctx.PositionDays, symbol)
		}
		ledger.MarkToMarket(rec.Date, map[string]float64{symbol: rec.Close})
	}

	lastClose := records[len(records)-1].Close
	prices := map[string]float64{symbol: lastClose}
	result.FinalEquity = ledger.TotalValue(prices)
	result.UnrealizedPnl = ledger.UnrealizedPnl(prices)
	result.OpenPosition = ledger.Position(symbol)
	return result, nil
}

// step 推演一日。规则内部的panic被吸收为skipped，回测继续。
func (e *Engine) step(ctx *Context, ledger *Ledger, symbol string, records []model.DailyRecord, i int) (step StepResult) {
	rec := records[i]
	step = StepResult{Date: rec.Date, Status: StepHeld}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN][Backtest] %s %s 规则执行异常: %v", symbol, rec.Date, r)
			step = StepResult{Date: rec.Date, Status: StepSkipped, Reason: fmt.Sprintf("规则执行异常: %v", r)}
		}
	}()

	sig := e.strategy.Decide(ctx, symbol, rec, ledger.Position(symbol))
	if sig.Action == model.ActionHold {
		return step
	}
	if reason, ok := e.validateSignal(ctx, ledger, sig, rec); !ok {
		step.Status = StepSkipped
		step.Reason = reason
		return step
	}

	switch sig.Action {
	case model.ActionBuy:
		shares := e.sizing.Shares(ledger, symbol, sig.Price, sig.Strength, trailingVolatility(records, i))
		if shares <= 0 {
			step.Status = StepSkipped
			step.Reason = "仓位策略给出零股数"
			return step
		}
		if err := ledger.Buy(rec.Date, symbol, sig.Price, shares, sig.Reason); err != nil {
			log.Printf("[WARN][Backtest] %s %s 买入被拒绝: %v", symbol, rec.Date, err)
			step.Status = StepSkipped
			step.Reason = err.Error()
			return step
		}
	case model.ActionSell:
		pos := ledger.Position(symbol)
		shares := 0.0
		if pos != nil {
			shares = pos.Shares // 全部卖出，不做部分减仓
		}
		if err := ledger.Sell(rec.Date, symbol, sig.Price, shares, sig.Reason); err != nil {
			log.Printf("[WARN][Backtest] %s %s 卖出被拒绝: %v", symbol, rec.Date, err)
			step.Status = StepSkipped
			step.Reason = err.Error()
			return step
		}
		ctx.sellArmed[symbol] = false
	}

	ctx.TradeCount++
	ctx.LastTradeDate = rec.Date
	step.Status = StepExecuted
	step.Reason = sig.Reason
	return step
}

// validateSignal 信号有效性检查：基本形状、价格在当日高低点附近、最短持仓天数。
// 非法信号直接丢弃，不执行。
func (e *Engine) validateSignal(ctx *Context, ledger *Ledger, sig model.Signal, rec model.DailyRecord) (string, bool) {
	if sig.Symbol == "" {
		return "信号缺少股票代码", false
	}
	if sig.Action != model.ActionBuy && sig.Action != model.ActionSell {
		return fmt.Sprintf("无法识别的信号动作: %s", sig.Action), false
	}
	if sig.Price <= 0 || math.IsNaN(sig.Price) {
		return "信号价格非法", false
	}
	if rec.Low > 0 && (sig.Price < rec.Low*0.99 || sig.Price > rec.High*1.01) {
		return fmt.Sprintf("信号价格%.2f超出当日区间[%.2f, %.2f]", sig.Price, rec.Low, rec.High), false
	}
	if sig.Action == model.ActionBuy && ledger.Position(sig.Symbol) != nil {
		return "已持仓，不重复买入", false
	}
	if sig.Action == model.ActionSell {
		if hold, ok := ctx.PositionDays[sig.Symbol]; ok && hold < e.cfg.MinHoldDays {
			return fmt.Sprintf("持仓%d天，不足最短%d天", hold, e.cfg.MinHoldDays), false
		}
	}
	return "", true
}

// trailingVolatility 截至第i日的近20日年化波动率（只用历史，无未来数据）
func trailingVolatility(records []model.DailyRecord, i int) float64 {
	const window = 20
	start := i - window
	if start < 0 {
		start = 0
	}
	var returns []float64
	for m := start + 1; m <= i; m++ {
		if records[m-1].Close > 0 {
			returns = append(returns, records[m].Close/records[m-1].Close-1)
		}
	}
	if len(returns) < 2 {
		return 0.02 // 默认波动率
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
	return math.Sqrt(ss/float64(len(returns)-1)) * math.Sqrt(252)
}
