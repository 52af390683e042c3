// Package stockdata A股行情数据源：新浪与东方财富的日线接口，
// 多数据源回退，前置可插拔缓存。
package stockdata

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stock-quant-backend/internal/model"
)

// HTTPClient HTTP客户端
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// Source 日线数据源
type Source interface {
	Name() string
	FetchDaily(code string) ([]model.KlineData, error)
}

// DefaultSources 默认数据源顺序：先新浪，失败换东方财富
func DefaultSources() []Source {
	return []Source{&sinaSource{}, &eastmoneySource{}}
}

// GetKline 获取日线数据。缓存命中直接返回，否则逐个数据源尝试。
func GetKline(code string) (*model.KlineResponse, error) {
	return GetKlineWithRefresh(code, false)
}

// GetKlineWithRefresh 获取日线数据，force为true时跳过缓存强制拉取
func GetKlineWithRefresh(code string, force bool) (*model.KlineResponse, error) {
	cacheKey := "kline:daily:" + code
	if !force {
		var cached model.KlineResponse
		if err := getCacheProvider().Get(cacheKey, &cached); err == nil && len(cached.Data) > 0 {
			return &cached, nil
		}
	}

	for _, source := range DefaultSources() {
		data, err := source.FetchDaily(code)
		if err != nil || len(data) == 0 {
			log.Printf("[WARN][StockData] %s 数据源 %s 失败: %v", code, source.Name(), err)
			continue
		}
		name, _ := GetStockName(code)
		resp := &model.KlineResponse{
			Code:   code,
			Name:   name,
			Period: "daily",
			Data:   data,
		}
		if err := getCacheProvider().Set(cacheKey, resp, time.Hour); err != nil {
			log.Printf("[WARN][StockData] %s 写缓存失败: %v", code, err)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("股票 %s 所有数据源均无数据", code)
}

// FilterRange 按日期闭区间过滤，空边界表示不限制
func FilterRange(data []model.KlineData, start, end string) []model.KlineData {
	var out []model.KlineData
	for _, bar := range data {
		if start != "" && bar.Date < start {
			continue
		}
		if end != "" && bar.Date > end {
			continue
		}
		out = append(out, bar)
	}
	return out
}

// marketSymbol 6开头沪市，其余深市
func marketSymbol(code string) string {
	if strings.HasPrefix(code, "6") {
		return "sh" + code
	}
	return "sz" + code
}

type sinaSource struct{}

func (s *sinaSource) Name() string { return "sina" }

func (s *sinaSource) FetchDaily(code string) ([]model.KlineData, error) {
	symbol := marketSymbol(code)
	url := fmt.Sprintf("https://quotes.sina.cn/cn/api/jsonp_v2.php/var__%s_240/CN_MarketDataService.getKLineData?symbol=%s&scale=240&ma=no&datalen=250",
		symbol, symbol)

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

	// JSONP包装，取括号内的JSON
	text := string(body)
	start := strings.Index(text, "(")
	end := strings.LastIndex(text, ")")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("响应格式错误")
	}

	var rawData []struct {
		Day    string `json:"day"`
		Open   string `json:"open"`
		Close  string `json:"close"`
		High   string `json:"high"`
		Low    string `json:"low"`
		Volume string `json:"volume"`
	}
	if err := json.Unmarshal([]byte(text[start+1:end]), &rawData); err != nil {
		return nil, err
	}

	var result []model.KlineData
	for _, item := range rawData {
		open, _ := strconv.ParseFloat(item.Open, 64)
		closePrice, _ := strconv.ParseFloat(item.Close, 64)
		high, _ := strconv.ParseFloat(item.High, 64)
		low, _ := strconv.ParseFloat(item.Low, 64)
		volume, _ := strconv.ParseFloat(item.Volume, 64)

		result = append(result, model.KlineData{
			Date:   item.Day,
			Open:   open,
			Close:  closePrice,
			High:   high,
			Low:    low,
			Volume: volume,
			Amount: 0,
		})
	}
	return result, nil
}

type eastmoneySource struct{}

func (s *eastmoneySource) Name() string { return "eastmoney" }

func (s *eastmoneySource) FetchDaily(code string) ([]model.KlineData, error) {
	var secid string
	if strings.HasPrefix(code, "6") {
		secid = "1." + code
	} else {
		secid = "0." + code
	}

	url := fmt.Sprintf("https://push2his.eastmoney.com/api/qt/stock/kline/get?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57&klt=101&fqt=1&end=20500101&lmt=250",
		secid)

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

	var emResp struct {
		Data struct {
			Klines []string `json:"klines"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &emResp); err != nil {
		return nil, err
	}

	var result []model.KlineData
	for _, line := range emResp.Data.Klines {
		parts := strings.Split(line, ",")
		if len(parts) < 7 {
			continue
		}

		open, _ := strconv.ParseFloat(parts[1], 64)
		closePrice, _ := strconv.ParseFloat(parts[2], 64)
		high, _ := strconv.ParseFloat(parts[3], 64)
		low, _ := strconv.ParseFloat(parts[4], 64)
		volume, _ := strconv.ParseFloat(parts[5], 64)
		amount, _ := strconv.ParseFloat(parts[6], 64)

		result = append(result, model.KlineData{
			Date:   parts[0],
			Open:   open,
			Close:  closePrice,
			High:   high,
			Low:    low,
			Volume: volume,
			Amount: amount,
		})
	}
	return result, nil
}
