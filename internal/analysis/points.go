package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"stock-quant-backend/internal/model"
)

// maWindows 点位分析使用的均线窗口
var maWindows = []int{5, 10, 20, 30, 60, 120, 250}

// PointAnalysis 关键点位分析结果
type PointAnalysis struct {
	Code         string             `json:"code"`
	CurrentPrice float64            `json:"current_price"`
	MA           map[int]float64    `json:"ma"` // 窗口 -> 均线值，数据不足的窗口缺省
	Supports     []float64          `json:"supports"`
	Resistances  []float64          `json:"resistances"`
	Fibonacci    map[string]float64 `json:"fibonacci"`
	BollUpper    float64            `json:"boll_upper"`
	BollMid      float64            `json:"boll_mid"`
	BollLower    float64            `json:"boll_lower"`
}

// AnalyzePoints 从历史记录计算关键价格点位：均线、支撑阻力、斐波那契回撤、布林快照
func AnalyzePoints(code string, records []model.DailyRecord) (*PointAnalysis, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("股票 %s 没有历史数据", code)
	}
	last := records[len(records)-1]
	result := &PointAnalysis{
		Code:         code,
		CurrentPrice: last.Close,
		MA:           make(map[int]float64),
		Fibonacci:    make(map[string]float64),
		BollUpper:    last.BollUpper,
		BollMid:      last.BollMid,
		BollLower:    last.BollLower,
	}

	for _, window := range maWindows {
		if len(records) < window {
			continue
		}
		sum := 0.0
		for _, rec := range records[len(records)-window:] {
			sum += rec.Close
		}
		result.MA[window] = sum / float64(window)
	}

	result.Supports, result.Resistances = localExtremes(records, last.Close)
	result.Fibonacci = fibonacci(records)
	return result, nil
}

// localExtremes 局部极值法找支撑与阻力：
// 比前后各2日都低的低点为候选支撑，比前后各2日都高的高点为候选阻力，
// 按与当前价的距离各取最近的3个。
func localExtremes(records []model.DailyRecord, current float64) (supports, resistances []float64) {
	const wing = 2
	for i := wing; i < len(records)-wing; i++ {
		isLow, isHigh := true, true
		for off := 1; off <= wing; off++ {
			if records[i].Low >= records[i-off].Low || records[i].Low >= records[i+off].Low {
				isLow = false
			}
			if records[i].High <= records[i-off].High || records[i].High <= records[i+off].High {
				isHigh = false
			}
		}
		if isLow && records[i].Low < current {
			supports = append(supports, records[i].Low)
		}
		if isHigh && records[i].High > current {
			resistances = append(resistances, records[i].High)
		}
	}

	sort.Slice(supports, func(a, b int) bool { return supports[a] > supports[b] })
	sort.Slice(resistances, func(a, b int) bool { return resistances[a] < resistances[b] })
	if len(supports) > 3 {
		supports = supports[:3]
	}
	if len(resistances) > 3 {
		resistances = resistances[:3]
	}
	return supports, resistances
}

// fibonacci 区间高低点之间的常用回撤位
func fibonacci(records []model.DailyRecord) map[string]float64 {
	high := math.Inf(-1)
	low := math.Inf(1)
	for _, rec := range records {
		if rec.High > high {
			high = rec.High
		}
		if rec.Low < low {
			low = rec.Low
		}
	}
	span := high - low
	return map[string]float64{
		"0.0":   high,
		"0.236": high - span*0.236,
		"0.382": high - span*0.382,
		"0.5":   high - span*0.5,
		"0.618": high - span*0.618,
		"1.0":   low,
	}
}

// PointReport 生成点位分析文字报告
func PointReport(name string, p *PointAnalysis) string {
	var b strings.Builder
	b.WriteString("========== 点位分析报告 ==========\n")
	fmt.Fprintf(&b, "股票: %s %s\n", p.Code, name)
	fmt.Fprintf(&b, "当前价格: %.2f\n", p.CurrentPrice)

	b.WriteString("均线点位:\n")
	for _, window := range maWindows {
		if v, ok := p.MA[window]; ok {
			fmt.Fprintf(&b, "  MA%-3d: %.2f\n", window, v)
		}
	}

	if len(p.Supports) > 0 {
		b.WriteString("支撑位:")
		for _, s := range p.Supports {
			fmt.Fprintf(&b, " %.2f", s)
		}
		b.WriteString("\n")
	}
	if len(p.Resistances) > 0 {
		b.WriteString("阻力位:")
		for _, r := range p.Resistances {
			fmt.Fprintf(&b, " %.2f", r)
		}
		b.WriteString("\n")
	}

	b.WriteString("斐波那契回撤:\n")
	for _, level := range []string{"0.0", "0.236", "0.382", "0.5", "0.618", "1.0"} {
		fmt.Fprintf(&b, "  %5s: %.2f\n", level, p.Fibonacci[level])
	}
	if !math.IsNaN(p.BollMid) {
		fmt.Fprintf(&b, "布林带: 上轨%.2f 中轨%.2f 下轨%.2f\n", p.BollUpper, p.BollMid, p.BollLower)
	}
	b.WriteString("==================================\n")
	return b.String()
}
