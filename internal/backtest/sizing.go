package backtest

import (
	"fmt"
	"math"
	"sort"
)

// SizingPolicy 仓位策略：决定一笔买入的股数，与买卖时机规则解耦
type SizingPolicy interface {
	Name() string
	// Shares 返回买入股数，0表示放弃本次买入
	Shares(l *Ledger, symbol string, price, strength, volatility float64) float64
}

// SizingParams 波动率仓位参数
type SizingParams struct {
	RiskFraction  float64 // 基础风险比例，默认0.02
	StopLossPct   float64 // 止损距离比例，默认0.08
	MaxStockRatio float64 // 单票仓位上限，默认0.1
	MaxTotalRatio float64 // 总仓位上限，默认0.8
}

var sizings = map[string]func(SizingParams) SizingPolicy{
	"all_in":     func(SizingParams) SizingPolicy { return &allInSizing{} },
	"volatility": func(p SizingParams) SizingPolicy { return &volatilitySizing{params: p} },
}

// NewSizing 按名称创建仓位策略
func NewSizing(name string, params SizingParams) (SizingPolicy, error) {
	factory, ok := sizings[name]
	if !ok {
		return nil, fmt.Errorf("未知仓位策略: %s", name)
	}
	return factory(params), nil
}

// SizingNames 已注册的仓位策略名列表
func SizingNames() []string {
	names := make([]string, 0, len(sizings))
	for name := range sizings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// allInSizing 全仓买入：可用现金折算股数（预留佣金）
type allInSizing struct{}

func (s *allInSizing) Name() string { return "all_in" }

func (s *allInSizing) Shares(l *Ledger, symbol string, price, strength, volatility float64) float64 {
	if price <= 0 || l.Cash <= 0 {
		return 0
	}
	return l.Cash / (price * (1 + l.CommissionRate))
}

// volatilitySizing 波动率仓位：股数 = 权益*风险比例*信号强度 / (价格*止损比例)，
// 受单票与总仓位上限约束
type volatilitySizing struct {
	params SizingParams
}

func (s *volatilitySizing) Name() string { return "volatility" }

func (s *volatilitySizing) Shares(l *Ledger, symbol string, price, strength, volatility float64) float64 {
	if price <= 0 || strength <= 0 {
		return 0
	}
	equity := l.TotalValue(nil)

	riskAmount := equity * s.params.RiskFraction * strength
	stopDistance := price * s.params.StopLossPct
	if stopDistance <= 0 {
		return 0
	}
	shares := riskAmount / stopDistance

	// 单票上限
	maxStockValue := equity * s.params.MaxStockRatio * strength
	if shares*price > maxStockValue {
		shares = maxStockValue / price
	}

	// 总仓位上限
	positionsValue := equity - l.Cash
	room := equity*s.params.MaxTotalRatio - positionsValue
	if room <= 0 {
		return 0
	}
	if shares*price > room {
		shares = room / price
	}

	// 可用现金约束（含佣金）
	affordable := l.Cash / (price * (1 + l.CommissionRate))
	shares = math.Min(shares, affordable)
	if shares <= 0 {
		return 0
	}
	return shares
}
