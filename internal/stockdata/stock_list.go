package stockdata

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"stock-quant-backend/internal/model"
)

var (
	stockListCache []model.Stock
	stockListMutex sync.RWMutex
	lastFetchTime  time.Time
	cacheDuration  = 24 * time.Hour
)

// GetStockList 获取A股股票列表，东方财富与新浪合并去重，结果缓存24小时
func GetStockList() ([]model.Stock, error) {
	stockListMutex.RLock()
	if len(stockListCache) > 0 && time.Since(lastFetchTime) < cacheDuration {
		defer stockListMutex.RUnlock()
		return stockListCache, nil
	}
	stockListMutex.RUnlock()

	stocks := fetchAndMergeStocks()
	if len(stocks) == 0 {
		return nil, fmt.Errorf("获取股票列表失败")
	}

	stockListMutex.Lock()
	stockListCache = stocks
	lastFetchTime = time.Now()
	stockListMutex.Unlock()
	return stocks, nil
}

// fetchAndMergeStocks 多数据源合并去重
func fetchAndMergeStocks() []model.Stock {
	stockMap := make(map[string]model.Stock)

	emStocks, err := fetchStockListFromEM()
	if err == nil {
		for _, s := range emStocks {
			stockMap[s.Code] = s
		}
	} else {
		log.Printf("[WARN][StockData] 东方财富股票列表获取失败: %v", err)
	}

	sinaStocks, err := fetchStockListFromSina()
	if err == nil {
		for _, s := range sinaStocks {
			if _, exists := stockMap[s.Code]; !exists {
				stockMap[s.Code] = s
			}
		}
	} else {
		log.Printf("[WARN][StockData] 新浪股票列表获取失败: %v", err)
	}

	var result []model.Stock
	for _, s := range stockMap {
		result = append(result, s)
	}
	log.Printf("[INFO][StockData] 股票列表合并去重后 %d 只", len(result))
	return result
}

// fetchStockListFromEM 东方财富：沪市主板+深市主板
func fetchStockListFromEM() ([]model.Stock, error) {
	var allStocks []model.Stock

	if shStocks, err := fetchEMStocks("m:1+t:2,m:1+t:23"); err == nil {
		for _, s := range shStocks {
			if strings.HasPrefix(s.Code, "6") {
				s.Market = "SH"
				allStocks = append(allStocks, s)
			}
		}
	}
	if szStocks, err := fetchEMStocks("m:0+t:6,m:0+t:80"); err == nil {
		for _, s := range szStocks {
			if strings.HasPrefix(s.Code, "0") {
				s.Market = "SZ"
				allStocks = append(allStocks, s)
			}
		}
	}
	if len(allStocks) == 0 {
		return nil, fmt.Errorf("东方财富未返回股票")
	}
	return allStocks, nil
}

// fetchEMStocks 东方财富列表接口。diff字段可能是数组、对象或null
func fetchEMStocks(fs string) ([]model.Stock, error) {
	url := fmt.Sprintf("https://push2.eastmoney.com/api/qt/clist/get?pn=1&pz=5000&fs=%s&fields=f12,f14", fs)

	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://quote.eastmoney.com")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			Diff json.RawMessage `json:"diff"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if len(result.Data.Diff) == 0 || string(result.Data.Diff) == "null" {
		return nil, fmt.Errorf("东方财富返回空数据")
	}

	type diffItem struct {
		F12 string `json:"f12"` // 代码
		F14 string `json:"f14"` // 名称
	}
	var diffList []diffItem
	if err := json.Unmarshal(result.Data.Diff, &diffList); err != nil {
		var diffMap map[string]diffItem
		if err2 := json.Unmarshal(result.Data.Diff, &diffMap); err2 != nil {
			return nil, err
		}
		for _, item := range diffMap {
			diffList = append(diffList, item)
		}
	}

	var stocks []model.Stock
	for _, item := range diffList {
		stocks = append(stocks, model.Stock{Code: item.F12, Name: item.F14})
	}
	return stocks, nil
}

// fetchStockListFromSina 新浪分页接口（备用源）
func fetchStockListFromSina() ([]model.Stock, error) {
	var allStocks []model.Stock
	for _, market := range []string{"sh", "sz"} {
		for page := 1; page <= 50; page++ {
			stocks, err := fetchSinaStocks(market, page)
			if err != nil || len(stocks) == 0 {
				break
			}
			allStocks = append(allStocks, stocks...)
		}
	}
	if len(allStocks) == 0 {
		return nil, fmt.Errorf("新浪未返回股票")
	}
	return allStocks, nil
}

func fetchSinaStocks(market string, page int) ([]model.Stock, error) {
	url := fmt.Sprintf("https://vip.stock.finance.sina.com.cn/quotes_service/api/json_v2.php/Market_Center.getHQNodeData?page=%d&num=80&sort=symbol&asc=1&node=%s_a&symbol=&_s_r_a=auto", page, market)

	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://finance.sina.com.cn")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var items []struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}

	var stocks []model.Stock
	for _, item := range items {
		code := strings.TrimPrefix(item.Symbol, "sh")
		code = strings.TrimPrefix(code, "sz")
		// 只保留主板：6和0开头
		if !strings.HasPrefix(code, "6") && !strings.HasPrefix(code, "0") {
			continue
		}
		mkt := "SZ"
		if strings.HasPrefix(code, "6") {
			mkt = "SH"
		}
		stocks = append(stocks, model.Stock{Code: code, Name: item.Name, Market: mkt})
	}
	return stocks, nil
}

// SearchStocks 按代码或名称搜索，最多返回100条
func SearchStocks(keyword string) ([]model.Stock, error) {
	allStocks, err := GetStockList()
	if err != nil {
		return nil, err
	}
	if keyword == "" {
		return allStocks, nil
	}

	keyword = strings.ToUpper(keyword)
	var result []model.Stock
	for _, s := range allStocks {
		if strings.Contains(s.Code, keyword) || strings.Contains(strings.ToUpper(s.Name), keyword) {
			result = append(result, s)
			if len(result) >= 100 {
				break
			}
		}
	}
	return result, nil
}

// GetStockName 获取股票名称，查不到时返回空串
func GetStockName(code string) (string, error) {
	allStocks, err := GetStockList()
	if err != nil {
		return "", err
	}
	for _, s := range allStocks {
		if s.Code == code {
			return s.Name, nil
		}
	}
	return "", fmt.Errorf("股票不存在: %s", code)
}
