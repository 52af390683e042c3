// Package holiday A股交易日历：周末规则 + 自定义节假日配置 + 免费节假日API，
// API结果按天缓存，失败时回退到工作日规则。
package holiday

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

var (
	cacheMu    sync.RWMutex
	cache      = make(map[string]bool)
	cacheTime  = make(map[string]time.Time)
	cacheTTL   = 24 * time.Hour
	apiTimeout = 3 * time.Second

	customHolidays = make(map[string]bool)
)

// LoadCustomHolidays 加载自定义节假日文件，格式 {"holidays": ["2025-01-01", ...]}。
// 文件不存在不算错误。
func LoadCustomHolidays(filePath string) error {
	if filePath == "" {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("读取节假日配置文件失败: %v", err)
	}

	var config struct {
		Holidays []string `json:"holidays"`
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("解析节假日配置文件失败: %v", err)
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	for _, date := range config.Holidays {
		customHolidays[date] = true
	}
	log.Printf("[INFO][Holiday] 加载自定义节假日 %d 个", len(config.Holidays))
	return nil
}

// IsTradingDay 判断是否为A股交易日。
// 周六周日永不交易（调休补班日也不交易），其次看自定义配置，再查API，
// API不可用时按周一到周五处理。
func IsTradingDay(date time.Time) bool {
	dateStr := date.Format("2006-01-02")

	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}

	cacheMu.RLock()
	if result, ok := cache[dateStr]; ok {
		if t, ok := cacheTime[dateStr]; ok && time.Since(t) < cacheTTL {
			cacheMu.RUnlock()
			return result
		}
	}
	isCustom := customHolidays[dateStr]
	cacheMu.RUnlock()

	if isCustom {
		updateCache(dateStr, false)
		return false
	}

	if result, ok := checkFromAPI(dateStr); ok {
		updateCache(dateStr, result)
		return result
	}

	updateCache(dateStr, true)
	return true
}

// IsTradingDayNow 当前日期是否为交易日
func IsTradingDayNow() bool {
	return IsTradingDay(time.Now())
}

func updateCache(dateStr string, result bool) {
	cacheMu.Lock()
	cache[dateStr] = result
	cacheTime[dateStr] = time.Now()
	cacheMu.Unlock()
}

// checkFromAPI http://timor.tech/api/holiday/info/{date}
// type: 0工作日 1周末 2节假日 3调休（上班）
func checkFromAPI(dateStr string) (bool, bool) {
	url := fmt.Sprintf("http://timor.tech/api/holiday/info/%s", dateStr)

	client := &http.Client{Timeout: apiTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return false, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, false
	}

	var result struct {
		Code int `json:"code"`
		Type struct {
			Type int `json:"type"`
		} `json:"type"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.Code != 0 {
		return false, false
	}
	return result.Type.Type == 0 || result.Type.Type == 3, true
}
