package backtest

import "stock-quant-backend/internal/model"

// MinPointHorizon 最低点打分的观察天数
const MinPointHorizon = 10

// MinPointScore 最低点打分诊断（不产生真实交易）。
// K<10且RSI<10出现后，把次日收盘价记为参考最低点，
// 观察其后10个交易日有多少天收在参考价之上（0-10分）；
// 第10日收盘超出参考价10%记满分。用于评估"超卖是否预示反弹"。
func MinPointScore(symbol string, records []model.DailyRecord) model.MinPointResult {
	result := model.MinPointResult{Code: symbol, Horizon: MinPointHorizon}

	buyFlag := 0
	refPrice := -1.0
	scoreAll := 0.0
	for i, rec := range records {
		if buyFlag > 0 {
			refPrice = rec.Close
			result.Events++
			buyFlag = 0
		}
		if rec.K < 10 && rec.RSI < 10 {
			buyFlag++
		} else if buyFlag > 0 {
			buyFlag--
		}
		if refPrice > 0 && i < len(records)-MinPointHorizon {
			score := 0.0
			for m := 1; m <= MinPointHorizon; m++ {
				if records[i+m].Close > refPrice {
					score++
				}
			}
			if records[i+MinPointHorizon].Close > refPrice*1.1 {
				score = MinPointHorizon
				result.PerfectHit++
			}
			scoreAll += score
			refPrice = -1
		}
	}

	if result.Events == 0 {
		// 没有超卖事件时给中性分
		result.AvgScore = float64(MinPointHorizon) / 2
		return result
	}
	result.AvgScore = scoreAll / float64(result.Events)
	return result
}
