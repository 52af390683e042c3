// Package signal 从指标列生成离散交易信号。
// 无状态：同样的输入前缀总是产生同样的输出，只依赖当前行与前一行。
package signal

import "stock-quant-backend/internal/model"

// Point 与输入行一一对齐的信号点
type Point struct {
	Date      string `json:"date"`
	Signal    int    `json:"signal"`     // 1买入 -1卖出 0观望
	Type      string `json:"type"`       // 金叉买入 / 死叉卖出
	ZeroCross int    `json:"zero_cross"` // DIF上穿0为1，下穿0为-1，仅标注不交易
}

// Generate 生成MACD交叉信号序列。
// 金叉：DIF上穿MACD柱；死叉：DIF下穿MACD柱。每行至多一个信号。
func Generate(records []model.DailyRecord) []Point {
	points := make([]Point, len(records))
	for i, r := range records {
		points[i].Date = r.Date
		if i == 0 {
			continue
		}
		prev := records[i-1]
		switch {
		case r.Diff > r.MACD && prev.Diff <= prev.MACD:
			points[i].Signal = 1
			points[i].Type = "金叉买入"
		case r.Diff < r.MACD && prev.Diff >= prev.MACD:
			points[i].Signal = -1
			points[i].Type = "死叉卖出"
		}
		if r.Diff > 0 && prev.Diff <= 0 {
			points[i].ZeroCross = 1
		} else if r.Diff < 0 && prev.Diff >= 0 {
			points[i].ZeroCross = -1
		}
	}
	return points
}

// MoneyFlowScore 某一日的MACD资金流向评分。
// 零轴上下、金叉死叉、柱状图增减、DIF走向加权求和，返回评分和文字结论。
func MoneyFlowScore(records []model.DailyRecord, i int) (float64, string) {
	if i <= 0 || i >= len(records) {
		return 0, "等待信号"
	}
	latest, prev := records[i], records[i-1]

	score := 0.0
	if latest.Diff > 0 && latest.DEA > 0 {
		score += 1 // 零轴上方偏多
	} else if latest.Diff < 0 && latest.DEA < 0 {
		score -= 1 // 零轴下方偏空
	}
	if prev.Diff <= prev.DEA && latest.Diff > latest.DEA {
		score += 2 // 金叉
	} else if prev.Diff >= prev.DEA && latest.Diff < latest.DEA {
		score -= 2 // 死叉
	}
	if latest.MACD > 0 && latest.MACD > prev.MACD {
		score += 0.5 // 红柱放大
	} else if latest.MACD < 0 && latest.MACD < prev.MACD {
		score -= 0.5 // 绿柱放大
	}
	if latest.Diff > prev.Diff {
		score += 0.5
	} else {
		score -= 0.5
	}

	switch {
	case score >= 2:
		return score, "买入信号（资金大幅流入）"
	case score >= 0.5:
		return score, "买入信号（资金流入）"
	case score <= -2:
		return score, "卖出信号（资金大幅流出）"
	case score <= -0.5:
		return score, "卖出信号（资金流出）"
	default:
		return score, "等待信号"
	}
}

// MoneyFlowTrend 综合资金流向判断：MACD多头、OBV近5日均值高于前5日、当日量高于20日均量。
// 三者同时成立判流入，MACD空头且OBV走弱判流出，其余观望。
func MoneyFlowTrend(records []model.DailyRecord, i int) (int, string) {
	if i < 9 || i >= len(records) {
		return 0, "等待信号"
	}
	latest := records[i]
	macdBullish := latest.Diff > latest.DEA

	var recent, earlier float64
	for m := i - 4; m <= i; m++ {
		recent += records[m].OBV
	}
	for m := i - 9; m <= i-5; m++ {
		earlier += records[m].OBV
	}
	obvTrend := recent/5 > earlier/5

	start := i - 19
	if start < 0 {
		start = 0
	}
	var avgVol float64
	for m := start; m < i; m++ {
		avgVol += records[m].Volume
	}
	avgVol /= float64(i - start)
	volumeConfirm := latest.Volume > avgVol

	if macdBullish && obvTrend && volumeConfirm {
		return 1, "资金流入中"
	}
	if !macdBullish && !obvTrend {
		return -1, "资金流出中"
	}
	return 0, "等待信号"
}
