package model

// BacktestRequest 回测请求
type BacktestRequest struct {
	Codes     []string `json:"codes" binding:"required"`
	Strategy  string   `json:"strategy"`   // oversold_reversal / breakout_momentum / min_point
	Sizing    string   `json:"sizing"`     // all_in / volatility
	Capital   float64  `json:"capital"`    // 初始资金，默认取配置
	StartDate string   `json:"start_date"` // YYYY-MM-DD，可为空
	EndDate   string   `json:"end_date"`
}

// PerformanceMetrics 回测绩效指标
type PerformanceMetrics struct {
	InitialCapital   float64 `json:"initial_capital"`
	FinalEquity      float64 `json:"final_equity"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`
	ProfitFactor     float64 `json:"profit_factor"`
	TotalTrades      int     `json:"total_trades"`
	BuyTrades        int     `json:"buy_trades"`
	SellTrades       int     `json:"sell_trades"`
	RealizedPnl      float64 `json:"realized_pnl"`
	UnrealizedPnl    float64 `json:"unrealized_pnl"` // 期末未平仓部分按收盘价估值
	Days             int     `json:"days"`
}

// BacktestSymbolResult 单只股票回测结果
type BacktestSymbolResult struct {
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Strategy string             `json:"strategy"`
	Metrics  PerformanceMetrics `json:"metrics"`
	Trades   []Trade            `json:"trades"`
	Skipped  []string           `json:"skipped,omitempty"` // 被跳过的交易日及原因
	Report   string             `json:"report"`
}

// BacktestResponse 回测响应
type BacktestResponse struct {
	RunID   string                 `json:"run_id"`
	Results []BacktestSymbolResult `json:"results"`
	Errors  map[string]string      `json:"errors,omitempty"` // 失败股票 -> 原因，不影响其它股票
}

// MinPointResult 最低点打分诊断结果
type MinPointResult struct {
	Code       string  `json:"code"`
	Events     int     `json:"events"`
	AvgScore   float64 `json:"avg_score"` // 0-10
	Horizon    int     `json:"horizon"`
	PerfectHit int     `json:"perfect_hit"` // 第10日收盘超出参考价10%的次数
}

// RiskMetrics 单只股票风险指标
type RiskMetrics struct {
	Code             string  `json:"code"`
	AnalysisDays     int     `json:"analysis_days"`
	CurrentPrice     float64 `json:"current_price"`
	VolatilityDaily  float64 `json:"volatility_daily"`
	VolatilityAnnual float64 `json:"volatility_annual"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	VaR95            float64 `json:"var_95"`
	VaR99            float64 `json:"var_99"`
	Skewness         float64 `json:"skewness"`
	Kurtosis         float64 `json:"kurtosis"`
}

// PortfolioRisk 组合风险
type PortfolioRisk struct {
	PortfolioValue    float64 `json:"portfolio_value"`
	PositionsCount    int     `json:"positions_count"`
	ConcentrationRisk float64 `json:"concentration_risk"`
	CorrelationRisk   float64 `json:"correlation_risk"`
	IsConcentrated    bool    `json:"is_concentrated"`
}
