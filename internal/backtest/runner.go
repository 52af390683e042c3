package backtest

import (
	"context"
	"log"
	"sync"

	"stock-quant-backend/internal/model"
)

// Loader 按代码加载历史记录
type Loader func(code string) ([]model.DailyRecord, error)

// SymbolRun 批量回测中单只股票的结果或失败原因
type SymbolRun struct {
	Code   string
	Result *Result
	Err    error
}

// RunBatch 多只股票并行回测。
// 每个worker独享自己的引擎和账本，互不共享可变状态；
// ctx取消后不再开始新的股票，已完成的结果原样返回。
// 单只股票失败只记录错误，不影响其它股票。
func RunBatch(ctx context.Context, codes []string, load Loader, newEngine func() *Engine, workers int) []SymbolRun {
	if workers <= 0 {
		workers = 4
	}
	if workers > len(codes) {
		workers = len(codes)
	}

	jobs := make(chan int)
	results := make([]SymbolRun, len(codes))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine := newEngine()
			for idx := range jobs {
				code := codes[idx]
				records, err := load(code)
				if err != nil {
					log.Printf("[WARN][Backtest] %s 加载数据失败: %v", code, err)
					results[idx] = SymbolRun{Code: code, Err: err}
					continue
				}
				res, err := engine.Run(code, records)
				results[idx] = SymbolRun{Code: code, Result: res, Err: err}
			}
		}()
	}

	for idx := range codes {
		select {
		case <-ctx.Done():
			// 批次被中止：停止派发，已完成的结果保留
			log.Printf("[INFO][Backtest] 批量回测被中止，已完成 %d/%d", idx, len(codes))
			close(jobs)
			wg.Wait()
			return results[:idx]
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}
