// Package backtestcli 命令行回测入口：更新行情、跑回测、打印文字报告
package backtestcli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"stock-quant-backend/internal/model"
	"stock-quant-backend/internal/service"
	"stock-quant-backend/internal/store"
)

// Options 命令行参数
type Options struct {
	Codes     string
	Strategy  string
	Sizing    string
	Capital   float64
	StartDate string
	EndDate   string
	DBPath    string
	Update    bool
	Risk      bool
	Points    bool
}

// Execute 解析参数并执行
func Execute(args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts Options
	fs.StringVar(&opts.Codes, "codes", "", "")
	fs.StringVar(&opts.Strategy, "strategy", "", "")
	fs.StringVar(&opts.Sizing, "sizing", "", "")
	fs.Float64Var(&opts.Capital, "capital", 0, "")
	fs.StringVar(&opts.StartDate, "start", "", "")
	fs.StringVar(&opts.EndDate, "end", "", "")
	fs.StringVar(&opts.DBPath, "db", "", "")
	fs.BoolVar(&opts.Update, "update", false, "")
	fs.BoolVar(&opts.Risk, "risk", false, "")
	fs.BoolVar(&opts.Points, "points", false, "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codes := splitCodes(opts.Codes)
	if len(codes) == 0 {
		return fmt.Errorf("用法: backtest -codes 000001,600519 [-strategy oversold_reversal] [-update] [-risk] [-points]")
	}

	if strings.TrimSpace(opts.DBPath) == "" {
		opts.DBPath = os.Getenv("RECORDS_DB_PATH")
	}
	if strings.TrimSpace(opts.DBPath) == "" {
		opts.DBPath = "data"
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return fmt.Errorf("打开记录库失败: %w", err)
	}
	defer st.Close()

	svc := service.New(st)

	if opts.Update {
		for _, code := range codes {
			if _, err := svc.UpdateSymbol(code); err != nil {
				log.Printf("[WARN][CLI] 更新 %s 失败: %v", code, err)
			}
		}
	}

	if opts.Risk {
		return runRisk(svc, codes)
	}
	if opts.Points {
		return runPoints(svc, codes)
	}
	return runBacktest(svc, codes, opts)
}

func splitCodes(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func runBacktest(svc *service.Service, codes []string, opts Options) error {
	if opts.Strategy == "min_point" {
		results, errors := svc.MinPointDiagnostic(codes)
		for _, r := range results {
			fmt.Printf("%s: 超卖事件%d次 平均得分%.1f/%d 满分命中%d次\n",
				r.Code, r.Events, r.AvgScore, r.Horizon, r.PerfectHit)
		}
		for code, msg := range errors {
			fmt.Printf("%s: 失败 %s\n", code, msg)
		}
		return nil
	}

	resp, err := svc.RunBacktest(context.Background(), model.BacktestRequest{
		Codes:     codes,
		Strategy:  opts.Strategy,
		Sizing:    opts.Sizing,
		Capital:   opts.Capital,
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
	})
	if err != nil {
		return err
	}

	fmt.Printf("回测批次: %s\n", resp.RunID)
	for _, result := range resp.Results {
		fmt.Println(result.Report)
	}
	for code, msg := range resp.Errors {
		fmt.Printf("%s: 失败 %s\n", code, msg)
	}
	return nil
}

func runRisk(svc *service.Service, codes []string) error {
	for _, code := range codes {
		_, report, err := svc.RiskReport(code)
		if err != nil {
			log.Printf("[WARN][CLI] %s 风险分析失败: %v", code, err)
			continue
		}
		fmt.Println(report)
	}
	return nil
}

func runPoints(svc *service.Service, codes []string) error {
	for _, code := range codes {
		_, report, err := svc.PointReport(code)
		if err != nil {
			log.Printf("[WARN][CLI] %s 点位分析失败: %v", code, err)
			continue
		}
		fmt.Println(report)
	}
	return nil
}
