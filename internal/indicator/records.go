package indicator

import "stock-quant-backend/internal/model"

// ComputeRecords 给K线序列附加全部指标列。
// 每次整列重算，新增交易日后重新调用即可，O(n)成本换正确性。
func ComputeRecords(bars []model.KlineData) []model.DailyRecord {
	n := len(bars)
	records := make([]model.DailyRecord, n)
	if n == 0 {
		return records
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	ma5 := SMA(closes, 5)
	ma10 := SMA(closes, 10)
	diff, dea, macd := MACD(closes)
	bollU, bollM, bollL := Bollinger(closes, 20, 2)
	k, d, j := KDJ(highs, lows, closes)
	rsi := RSI(closes, 14)
	obv := OBV(closes, volumes)

	for i := range bars {
		records[i] = model.DailyRecord{
			KlineData: bars[i],
			MA5:       ma5[i],
			MA10:      ma10[i],
			Diff:      diff[i],
			DEA:       dea[i],
			MACD:      macd[i],
			BollUpper: bollU[i],
			BollMid:   bollM[i],
			BollLower: bollL[i],
			K:         k[i],
			D:         d[i],
			J:         j[i],
			RSI:       rsi[i],
			OBV:       obv[i],
		}
	}
	return records
}
