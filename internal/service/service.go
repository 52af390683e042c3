// Package service 业务编排层：行情更新、回测、风险与点位分析。
// handler与CLI只调用这里，不直接碰存储和数据源。
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"stock-quant-backend/internal/analysis"
	"stock-quant-backend/internal/backtest"
	"stock-quant-backend/internal/config"
	"stock-quant-backend/internal/indicator"
	"stock-quant-backend/internal/model"
	"stock-quant-backend/internal/risk"
	"stock-quant-backend/internal/signal"
	"stock-quant-backend/internal/stockdata"
	"stock-quant-backend/internal/store"
)

// Service 业务入口
type Service struct {
	store       *store.Store
	backtestCfg *config.BacktestConfig
	riskCfg     *config.RiskConfig
}

// New 创建服务
func New(st *store.Store) *Service {
	return &Service{
		store:       st,
		backtestCfg: config.GetBacktestConfig(),
		riskCfg:     config.GetRiskConfig(),
	}
}

// UpdateSymbol 拉取一只股票的日线，重算全部指标后落库。
// 指标对历史敏感，每次都整段重算而不是只算增量。
func (s *Service) UpdateSymbol(code string) (int, error) {
	resp, err := stockdata.GetKlineWithRefresh(code, true)
	if err != nil {
		return 0, fmt.Errorf("拉取 %s 行情失败: %w", code, err)
	}

	records := indicator.ComputeRecords(resp.Data)
	if err := s.store.Save(code, resp.Name, records); err != nil {
		return 0, fmt.Errorf("保存 %s 记录失败: %w", code, err)
	}

	log.Printf("[INFO][Service] %s %s 更新 %d 条记录", code, resp.Name, len(records))
	return len(records), nil
}

// LoadRecords 读取本地记录，没有时先拉取一次
func (s *Service) LoadRecords(code string) ([]model.DailyRecord, error) {
	records, err := s.store.Load(code)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		if _, err := s.UpdateSymbol(code); err != nil {
			return nil, err
		}
		records, err = s.store.Load(code)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// RunBacktest 多只股票并行回测。单只股票失败只进Errors，不影响其余。
func (s *Service) RunBacktest(ctx context.Context, req model.BacktestRequest) (*model.BacktestResponse, error) {
	if len(req.Codes) == 0 {
		return nil, fmt.Errorf("codes不能为空")
	}

	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = s.backtestCfg.Strategy
	}
	sizingName := req.Sizing
	if sizingName == "" {
		sizingName = s.backtestCfg.Sizing
	}
	capital := req.Capital
	if capital <= 0 {
		capital = s.backtestCfg.InitialCapital
	}

	// 先验证一遍名称，无效的策略直接整体拒绝
	if _, err := backtest.NewStrategy(strategyName); err != nil {
		return nil, err
	}
	sizingParams := backtest.SizingParams{
		RiskFraction:  s.backtestCfg.RiskFraction,
		StopLossPct:   s.backtestCfg.StopLossPct,
		MaxStockRatio: s.backtestCfg.MaxStockRatio,
		MaxTotalRatio: s.backtestCfg.MaxTotalRatio,
	}
	if _, err := backtest.NewSizing(sizingName, sizingParams); err != nil {
		return nil, err
	}

	engineCfg := backtest.Config{
		InitialCapital: capital,
		CommissionRate: s.backtestCfg.CommissionRate,
		MinHoldDays:    s.backtestCfg.MinHoldDays,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	}
	newEngine := func() *backtest.Engine {
		strategy, _ := backtest.NewStrategy(strategyName)
		sizing, _ := backtest.NewSizing(sizingName, sizingParams)
		return backtest.NewEngine(engineCfg, strategy, sizing)
	}

	runs := backtest.RunBatch(ctx, req.Codes, s.LoadRecords, newEngine, 4)

	resp := &model.BacktestResponse{
		RunID:  uuid.New().String(),
		Errors: make(map[string]string),
	}
	for _, run := range runs {
		if run.Err != nil {
			resp.Errors[run.Code] = run.Err.Error()
			continue
		}
		name, _ := s.store.LoadName(run.Code)
		metrics := analysis.Analyze(run.Result, s.riskCfg.RiskFreeRate)
		symbolResult := model.BacktestSymbolResult{
			Code:     run.Code,
			Name:     name,
			Strategy: run.Result.Strategy,
			Metrics:  metrics,
			Trades:   run.Result.Ledger.Trades,
			Report:   analysis.Report(run.Code, name, run.Result, metrics),
		}
		for _, step := range run.Result.Steps {
			if step.Status == backtest.StepSkipped {
				symbolResult.Skipped = append(symbolResult.Skipped, step.Date+": "+step.Reason)
			}
		}
		resp.Results = append(resp.Results, symbolResult)
	}
	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}
	return resp, nil
}

// MinPointDiagnostic 最低点打分诊断，不产生模拟交易
func (s *Service) MinPointDiagnostic(codes []string) ([]model.MinPointResult, map[string]string) {
	var results []model.MinPointResult
	errors := make(map[string]string)
	for _, code := range codes {
		records, err := s.LoadRecords(code)
		if err != nil {
			errors[code] = err.Error()
			continue
		}
		results = append(results, backtest.MinPointScore(code, records))
	}
	if len(errors) == 0 {
		errors = nil
	}
	return results, errors
}

// SignalSummary 一只股票的MACD金叉死叉序列与最新资金流向评分
type SignalSummary struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Points      []signal.Point `json:"points"`
	FlowScore   float64        `json:"flow_score"`
	FlowComment string         `json:"flow_comment"`
}

// Signals 生成一只股票的信号摘要
func (s *Service) Signals(code string) (*SignalSummary, error) {
	records, err := s.LoadRecords(code)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("股票 %s 没有历史数据", code)
	}

	name, _ := s.store.LoadName(code)
	score, comment := signal.MoneyFlowScore(records, len(records)-1)
	return &SignalSummary{
		Code:        code,
		Name:        name,
		Points:      signal.Generate(records),
		FlowScore:   score,
		FlowComment: comment,
	}, nil
}

// RiskReport 单只股票风险指标与文字报告
func (s *Service) RiskReport(code string) (*model.RiskMetrics, string, error) {
	records, err := s.LoadRecords(code)
	if err != nil {
		return nil, "", err
	}
	if lookback := s.riskCfg.LookbackDays; len(records) > lookback {
		records = records[len(records)-lookback:]
	}

	cfg := risk.Config{
		RiskFreeRate:           s.riskCfg.RiskFreeRate,
		ConcentrationThreshold: s.riskCfg.ConcentrationLimit,
	}
	metrics, err := risk.Analyze(code, records, cfg)
	if err != nil {
		return nil, "", err
	}
	name, _ := s.store.LoadName(code)
	return metrics, risk.Report(name, metrics), nil
}

// PortfolioRiskReport 组合集中度与相关性估计
func (s *Service) PortfolioRiskReport(positions []risk.PositionValue) (*model.PortfolioRisk, string) {
	cfg := risk.Config{
		RiskFreeRate:           s.riskCfg.RiskFreeRate,
		ConcentrationThreshold: s.riskCfg.ConcentrationLimit,
	}
	p := risk.AnalyzePortfolio(positions, cfg)
	return p, risk.PortfolioReport(p)
}

// PointReport 关键点位分析与文字报告
func (s *Service) PointReport(code string) (*analysis.PointAnalysis, string, error) {
	records, err := s.LoadRecords(code)
	if err != nil {
		return nil, "", err
	}
	points, err := analysis.AnalyzePoints(code, records)
	if err != nil {
		return nil, "", err
	}
	name, _ := s.store.LoadName(code)
	return points, analysis.PointReport(name, points), nil
}

// TrackedCodes 已入库的股票代码
func (s *Service) TrackedCodes() ([]string, error) {
	return s.store.Codes()
}
