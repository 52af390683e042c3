package backtest

import (
	"fmt"
	"sort"

	"stock-quant-backend/internal/model"
)

// Context 回测过程中的策略上下文。
// 只在三处被修改：成交后的TradeCount与LastTradeDate，逐日推进的PositionDays。
type Context struct {
	TradeCount    int
	LastTradeDate string
	PositionDays  map[string]int

	// 规则私有状态（超买后等待卖出时机的标记）
	sellArmed map[string]bool
}

// NewContext 创建上下文
func NewContext() *Context {
	return &Context{
		PositionDays: make(map[string]int),
		sellArmed:    make(map[string]bool),
	}
}

// Strategy 买卖决策规则。对(当前行, 持仓, 上下文)给出决策，不直接动账本。
type Strategy interface {
	Name() string
	// Decide 返回当日信号，无操作时Action为HOLD
	Decide(ctx *Context, symbol string, rec model.DailyRecord, pos *Position) model.Signal
}

var strategies = map[string]func() Strategy{
	"oversold_reversal": func() Strategy { return &oversoldReversal{} },
	"breakout_momentum": func() Strategy { return &breakoutMomentum{} },
}

// NewStrategy 按名称创建策略
func NewStrategy(name string) (Strategy, error) {
	factory, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("未知策略: %s", name)
	}
	return factory(), nil
}

// StrategyNames 已注册的策略名列表
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// oversoldReversal 超卖反转规则。
// 空仓时K<20且RSI<30买入；K>80且RSI>80后挂起卖出标记，
// 随后(K>50且价格跌破布林中轨)或价格较入场后峰值回撤10%时清仓。
type oversoldReversal struct{}

func (s *oversoldReversal) Name() string { return "oversold_reversal" }

func (s *oversoldReversal) Decide(ctx *Context, symbol string, rec model.DailyRecord, pos *Position) model.Signal {
	hold := model.Signal{Symbol: symbol, Action: model.ActionHold, Price: rec.Close}

	if pos == nil {
		ctx.sellArmed[symbol] = false
		if rec.K < 20 && rec.RSI < 30 {
			return model.Signal{
				Symbol:   symbol,
				Action:   model.ActionBuy,
				Price:    rec.Close,
				Strength: 0.7,
				Reason:   fmt.Sprintf("超卖反转: K=%.1f RSI=%.1f", rec.K, rec.RSI),
			}
		}
		return hold
	}

	if rec.K > 80 && rec.RSI > 80 {
		ctx.sellArmed[symbol] = true
		return hold
	}
	if ctx.sellArmed[symbol] {
		brokeMid := rec.K > 50 && rec.Close < rec.BollMid
		trailing := rec.Close < 0.9*pos.MaxPriceSinceEntry
		if brokeMid || trailing {
			reason := "跌破布林中轨"
			if trailing {
				reason = "较峰值回撤超10%"
			}
			return model.Signal{
				Symbol: symbol,
				Action: model.ActionSell,
				Price:  rec.Close,
				Reason: reason,
			}
		}
	}
	return hold
}

// breakoutMomentum 动量突破规则。
// 空仓时MACD柱、DIF、DEA同为正且价格站上布林上轨买入；
// 价格跌破布林中轨或较峰值回撤10%时清仓。
type breakoutMomentum struct{}

func (s *breakoutMomentum) Name() string { return "breakout_momentum" }

func (s *breakoutMomentum) Decide(ctx *Context, symbol string, rec model.DailyRecord, pos *Position) model.Signal {
	hold := model.Signal{Symbol: symbol, Action: model.ActionHold, Price: rec.Close}

	if pos == nil {
		if rec.MACD > 0 && rec.Diff > 0 && rec.DEA > 0 && rec.Close > rec.BollUpper {
			return model.Signal{
				Symbol:   symbol,
				Action:   model.ActionBuy,
				Price:    rec.Close,
				Strength: 0.8,
				Reason:   "动量突破: MACD多头且突破布林上轨",
			}
		}
		return hold
	}

	if rec.Close < rec.BollMid || rec.Close < 0.9*pos.MaxPriceSinceEntry {
		reason := "跌破布林中轨"
		if rec.Close < 0.9*pos.MaxPriceSinceEntry {
			reason = "较峰值回撤超10%"
		}
		return model.Signal{
			Symbol: symbol,
			Action: model.ActionSell,
			Price:  rec.Close,
			Reason: reason,
		}
	}
	return hold
}
