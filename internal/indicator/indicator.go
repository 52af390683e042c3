// Package indicator 技术指标计算。
// 所有函数都是纯函数：输入按日期升序的序列，输出与输入等长的指标序列，
// 位置i的值只依赖位置<=i的输入（因果，无未来数据）。
package indicator

import "math"

// EWMA 指数加权移动平均，递推 e[i] = alpha*x[i] + (1-alpha)*e[i-1]，e[0] = x[0]
func EWMA(data []float64, alpha float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	out := make([]float64, len(data))
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = alpha*data[i] + (1-alpha)*out[i-1]
	}
	return out
}

// EWMASpan 按span计算EWMA，alpha = 2/(span+1)
func EWMASpan(data []float64, span int) []float64 {
	return EWMA(data, 2.0/float64(span+1))
}

// SMA 简单移动平均序列，不足period的位置为NaN
func SMA(data []float64, period int) []float64 {
	out := make([]float64, len(data))
	sum := 0.0
	for i := range data {
		sum += data[i]
		if i >= period {
			sum -= data[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RollingStd 滚动总体标准差序列，不足period的位置为NaN
func RollingStd(data []float64, period int) []float64 {
	out := make([]float64, len(data))
	for i := range data {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		window := data[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)
		ss := 0.0
		for _, v := range window {
			ss += (v - mean) * (v - mean)
		}
		out[i] = math.Sqrt(ss / float64(period))
	}
	return out
}

// MACD 计算DIF/DEA/MACD柱三条序列
// DIF = EMA(12) - EMA(26)，DEA = EMA(DIF, 9)，MACD = 2*(DIF-DEA)
func MACD(closes []float64) (diff, dea, macd []float64) {
	if len(closes) == 0 {
		return nil, nil, nil
	}
	emaFast := EWMASpan(closes, 12)
	emaSlow := EWMASpan(closes, 26)
	diff = make([]float64, len(closes))
	for i := range closes {
		diff[i] = emaFast[i] - emaSlow[i]
	}
	dea = EWMASpan(diff, 9)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = 2 * (diff[i] - dea[i])
	}
	return diff, dea, macd
}

// KDJ 计算K/D/J三条序列，N=9，前N-1日窗口收缩到已有数据（min_periods=1语义）
// RSV = (C - Ln) / (Hn - Ln) * 100；窗口内最高价等于最低价时RSV取50
func KDJ(highs, lows, closes []float64) (k, d, j []float64) {
	n := len(closes)
	if n == 0 {
		return nil, nil, nil
	}
	const period = 9
	rsv := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		highest := highs[start]
		lowest := lows[start]
		for m := start + 1; m <= i; m++ {
			if highs[m] > highest {
				highest = highs[m]
			}
			if lows[m] < lowest {
				lowest = lows[m]
			}
		}
		if highest == lowest {
			rsv[i] = 50
		} else {
			rsv[i] = (closes[i] - lowest) / (highest - lowest) * 100
		}
	}
	k = EWMA(rsv, 1.0/3.0)
	d = EWMA(k, 1.0/3.0)
	j = make([]float64, n)
	for i := 0; i < n; i++ {
		j[i] = 3*k[i] - 2*d[i]
	}
	return k, d, j
}

// Bollinger 布林带序列，中轨=SMA(n)，上下轨=中轨±k倍标准差，前n-1日为NaN
func Bollinger(closes []float64, period int, width float64) (upper, mid, lower []float64) {
	mid = SMA(closes, period)
	std := RollingStd(closes, period)
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		upper[i] = mid[i] + width*std[i]
		lower[i] = mid[i] - width*std[i]
	}
	return upper, mid, lower
}

// RSI 相对强弱指标序列，window=14
// 涨跌幅拆成gain/loss，均值用收缩窗口的滚动简单平均，rs = gain/(loss+1e-6)
// 位置0没有涨跌数据，为NaN
func RSI(closes []float64, window int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	out[0] = math.NaN()
	const eps = 1e-6
	gains := make([]float64, n) // gains[i]/losses[i]对应第i日相对前一日的变化
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}
	for i := 1; i < n; i++ {
		start := i - window + 1
		if start < 1 {
			start = 1
		}
		var avgGain, avgLoss float64
		for m := start; m <= i; m++ {
			avgGain += gains[m]
			avgLoss += losses[m]
		}
		cnt := float64(i - start + 1)
		avgGain /= cnt
		avgLoss /= cnt
		rs := avgGain / (avgLoss + eps)
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// OBV 能量潮序列，obv[0]=0，收盘上涨加量、下跌减量、持平不变
func OBV(closes, volumes []float64) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}
