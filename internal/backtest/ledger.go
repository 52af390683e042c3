// Package backtest 规则化回测引擎：逐日重放历史记录，执行买卖决策规则，
// 维护模拟账本并输出成交与净值历史。
package backtest

import (
	"errors"
	"fmt"

	"stock-quant-backend/internal/model"
)

var (
	// ErrInsufficientFunds 资金不足，买入被拒绝
	ErrInsufficientFunds = errors.New("资金不足")
	// ErrNoPosition 没有持仓，卖出被拒绝
	ErrNoPosition = errors.New("没有持仓")
)

// Position 持仓，只由账本的买卖操作修改，份额归零即删除
type Position struct {
	Symbol      string
	Shares      float64 // 允许小数股
	AvgCost     float64
	BuyCount    int
	LastBuyDate string

	// 入场以来的极值，移动止盈类卖出规则使用
	MaxPriceSinceEntry float64
	MinPriceSinceEntry float64
	HoldDays           int
}

// Ledger 模拟账本：现金、持仓、成交历史与净值曲线。
// 单次回测独占一个实例，不做并发保护。
type Ledger struct {
	Cash           float64
	InitialCapital float64
	CommissionRate float64

	positions map[string]*Position
	Trades    []model.Trade
	Equity    []model.EquityPoint
}

// NewLedger 创建账本
func NewLedger(capital, commissionRate float64) *Ledger {
	return &Ledger{
		Cash:           capital,
		InitialCapital: capital,
		CommissionRate: commissionRate,
		positions:      make(map[string]*Position),
	}
}

// Position 查询持仓，无仓位返回nil
func (l *Ledger) Position(symbol string) *Position {
	return l.positions[symbol]
}

// Positions 当前全部持仓
func (l *Ledger) Positions() map[string]*Position {
	return l.positions
}

// Buy 买入。佣金计入总成本，不影响股数；现金不足时拒绝并保持账本不变。
func (l *Ledger) Buy(date, symbol string, price, shares float64, reason string) error {
	if price <= 0 || shares <= 0 {
		return fmt.Errorf("无效买入参数 price=%.4f shares=%.4f", price, shares)
	}
	amount := price * shares
	commission := amount * l.CommissionRate
	totalCost := amount + commission
	if totalCost > l.Cash {
		return fmt.Errorf("%w: 需要%.2f 可用%.2f", ErrInsufficientFunds, totalCost, l.Cash)
	}

	l.Cash -= totalCost
	if pos, ok := l.positions[symbol]; ok {
		// 加仓摊薄成本
		totalShares := pos.Shares + shares
		pos.AvgCost = (pos.AvgCost*pos.Shares + price*shares) / totalShares
		pos.Shares = totalShares
		pos.BuyCount++
		pos.LastBuyDate = date
		if price > pos.MaxPriceSinceEntry {
			pos.MaxPriceSinceEntry = price
		}
		if price < pos.MinPriceSinceEntry {
			pos.MinPriceSinceEntry = price
		}
	} else {
		l.positions[symbol] = &Position{
			Symbol:             symbol,
			Shares:             shares,
			AvgCost:            price,
			BuyCount:           1,
			LastBuyDate:        date,
			MaxPriceSinceEntry: price,
			MinPriceSinceEntry: price,
		}
	}

	l.Trades = append(l.Trades, model.Trade{
		Date:       date,
		Symbol:     symbol,
		Action:     model.ActionBuy,
		Price:      price,
		Shares:     shares,
		Amount:     amount,
		Commission: commission,
		Reason:     reason,
	})
	return nil
}

// Sell 卖出。佣金从卖出所得中扣除；无持仓或超出持仓数量时拒绝。
func (l *Ledger) Sell(date, symbol string, price, shares float64, reason string) error {
	pos, ok := l.positions[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPosition, symbol)
	}
	if price <= 0 || shares <= 0 || shares > pos.Shares+1e-9 {
		return fmt.Errorf("无效卖出参数 price=%.4f shares=%.4f 持仓=%.4f", price, shares, pos.Shares)
	}

	amount := price * shares
	commission := amount * l.CommissionRate
	netProceeds := amount - commission
	realized := netProceeds - pos.AvgCost*shares

	l.Cash += netProceeds
	pos.Shares -= shares
	if pos.Shares <= 1e-9 {
		delete(l.positions, symbol)
	}

	l.Trades = append(l.Trades, model.Trade{
		Date:        date,
		Symbol:      symbol,
		Action:      model.ActionSell,
		Price:       price,
		Shares:      shares,
		Amount:      amount,
		Commission:  commission,
		RealizedPnl: realized,
		Reason:      reason,
	})
	return nil
}

// MarkToMarket 用当日价格记一笔净值
func (l *Ledger) MarkToMarket(date string, prices map[string]float64) float64 {
	positionsValue := 0.0
	for symbol, pos := range l.positions {
		price, ok := prices[symbol]
		if !ok {
			price = pos.AvgCost
		}
		positionsValue += pos.Shares * price
		if price > pos.MaxPriceSinceEntry {
			pos.MaxPriceSinceEntry = price
		}
		if price < pos.MinPriceSinceEntry {
			pos.MinPriceSinceEntry = price
		}
	}
	total := l.Cash + positionsValue
	l.Equity = append(l.Equity, model.EquityPoint{
		Date:           date,
		Cash:           l.Cash,
		PositionsValue: positionsValue,
		TotalValue:     total,
	})
	return total
}

// TotalValue 当前净值（按均价估值未提供价格的持仓）
func (l *Ledger) TotalValue(prices map[string]float64) float64 {
	total := l.Cash
	for symbol, pos := range l.positions {
		price, ok := prices[symbol]
		if !ok {
			price = pos.AvgCost
		}
		total += pos.Shares * price
	}
	return total
}

// UnrealizedPnl 未平仓盈亏
func (l *Ledger) UnrealizedPnl(prices map[string]float64) float64 {
	pnl := 0.0
	for symbol, pos := range l.positions {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		pnl += (price - pos.AvgCost) * pos.Shares
	}
	return pnl
}
