package model

// DailyRecord 单只股票某个交易日的完整记录：K线原始字段加计算出的指标列。
// 指标列对位置i的取值只依赖位置<=i的K线（因果性），回测依赖这一点避免未来数据。
type DailyRecord struct {
	KlineData

	MA5       float64 `json:"ma5"`
	MA10      float64 `json:"ma10"`
	Diff      float64 `json:"diff"` // DIF快慢线差
	DEA       float64 `json:"dea"`
	MACD      float64 `json:"macd"` // 柱状图 2*(DIF-DEA)
	BollUpper float64 `json:"boll_upper"`
	BollMid   float64 `json:"boll_mid"`
	BollLower float64 `json:"boll_lower"`
	K         float64 `json:"k"`
	D         float64 `json:"d"`
	J         float64 `json:"j"`
	RSI       float64 `json:"rsi"`
	OBV       float64 `json:"obv"`
}

// SignalAction 信号动作
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// Signal 交易信号，由策略对某一日产生，回测引擎立即消费，不落盘
type Signal struct {
	Symbol   string       `json:"symbol"`
	Action   SignalAction `json:"action"`
	Price    float64      `json:"price"`
	Strength float64      `json:"strength"` // 信号强度 0-1
	Reason   string       `json:"reason"`
}

// Trade 成交记录，写入后不再修改
type Trade struct {
	Date        string       `json:"date"`
	Symbol      string       `json:"symbol"`
	Action      SignalAction `json:"action"`
	Price       float64      `json:"price"`
	Shares      float64      `json:"shares"`
	Amount      float64      `json:"amount"`
	Commission  float64      `json:"commission"`
	RealizedPnl float64      `json:"realized_pnl"` // 仅卖出时有值
	Reason      string       `json:"reason"`
}

// EquityPoint 组合净值曲线上的一个点
type EquityPoint struct {
	Date           string  `json:"date"`
	Cash           float64 `json:"cash"`
	PositionsValue float64 `json:"positions_value"`
	TotalValue     float64 `json:"total_value"`
}
