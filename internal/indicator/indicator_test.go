package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-quant-backend/internal/model"
)

func TestOBVScenario(t *testing.T) {
	closes := []float64{10, 11, 9, 12, 12, 15}
	volumes := []float64{100, 100, 100, 100, 100, 100}

	obv := OBV(closes, volumes)
	assert.Equal(t, []float64{0, 100, 0, 100, 100, 200}, obv)
}

func TestOBVFollowsCloseSign(t *testing.T) {
	closes := []float64{5, 6, 6, 4, 7, 3, 3}
	volumes := []float64{10, 20, 30, 40, 50, 60, 70}

	obv := OBV(closes, volumes)
	for i := 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		step := obv[i] - obv[i-1]
		switch {
		case diff > 0:
			assert.Positive(t, step, "第%d日收盘上涨，OBV应增加", i)
		case diff < 0:
			assert.Negative(t, step, "第%d日收盘下跌，OBV应减少", i)
		default:
			assert.Zero(t, step, "第%d日收盘持平，OBV应不变", i)
		}
	}
}

func TestEWMASeed(t *testing.T) {
	data := []float64{10, 20, 30}
	out := EWMA(data, 0.5)

	require.Len(t, out, 3)
	assert.Equal(t, 10.0, out[0])
	assert.InDelta(t, 15.0, out[1], 1e-12)
	assert.InDelta(t, 22.5, out[2], 1e-12)
}

func TestMACDRecurrence(t *testing.T) {
	closes := []float64{10, 10.5, 11, 10.8, 11.2, 11.5, 11.3, 11.8}

	diff, dea, macd := MACD(closes)
	require.Len(t, diff, len(closes))

	// 手工复算递推
	alphaFast := 2.0 / 13.0
	alphaSlow := 2.0 / 27.0
	alphaSig := 2.0 / 10.0
	ef, es := closes[0], closes[0]
	wantDiff := []float64{0}
	for i := 1; i < len(closes); i++ {
		ef = alphaFast*closes[i] + (1-alphaFast)*ef
		es = alphaSlow*closes[i] + (1-alphaSlow)*es
		wantDiff = append(wantDiff, ef-es)
	}
	wantDEA := wantDiff[0]
	for i := range closes {
		if i > 0 {
			wantDEA = alphaSig*wantDiff[i] + (1-alphaSig)*wantDEA
		}
		assert.InDelta(t, wantDiff[i], diff[i], 1e-12)
		assert.InDelta(t, wantDEA, dea[i], 1e-12)
		assert.InDelta(t, 2*(wantDiff[i]-wantDEA), macd[i], 1e-12)
	}
}

func TestMACDDeterministic(t *testing.T) {
	closes := []float64{3, 3.1, 3.3, 3.2, 3.5, 3.4, 3.8, 4.0, 3.9, 4.2}

	d1, dea1, m1 := MACD(closes)
	d2, dea2, m2 := MACD(closes)
	assert.Equal(t, d1, d2)
	assert.Equal(t, dea1, dea2)
	assert.Equal(t, m1, m2)
}

func TestKDJShrinkingWindow(t *testing.T) {
	highs := []float64{10, 11, 12}
	lows := []float64{9, 9.5, 10}
	closes := []float64{9.5, 10.5, 11.5}

	k, d, j := KDJ(highs, lows, closes)
	require.Len(t, k, 3)

	// 首日窗口只有自身：RSV = (9.5-9)/(10-9)*100 = 50，K=D=RSV，J=K
	assert.InDelta(t, 50.0, k[0], 1e-12)
	assert.InDelta(t, 50.0, d[0], 1e-12)
	assert.InDelta(t, 50.0, j[0], 1e-12)
	for i := range k {
		assert.InDelta(t, 3*k[i]-2*d[i], j[i], 1e-12)
	}
}

func TestKDJFlatWindowGuard(t *testing.T) {
	highs := []float64{10, 10}
	lows := []float64{10, 10}
	closes := []float64{10, 10}

	k, _, _ := KDJ(highs, lows, closes)
	// 最高等于最低时RSV取50，不产生NaN
	assert.InDelta(t, 50.0, k[0], 1e-12)
	assert.InDelta(t, 50.0, k[1], 1e-12)
}

func TestBollingerWarmupNaN(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10 + float64(i)*0.1
	}

	upper, mid, lower := Bollinger(closes, 20, 2)
	for i := 0; i < 19; i++ {
		assert.True(t, math.IsNaN(mid[i]), "第%d日布林带应为NaN", i)
	}
	for i := 19; i < len(closes); i++ {
		assert.False(t, math.IsNaN(mid[i]))
		assert.Greater(t, upper[i], mid[i])
		assert.Less(t, lower[i], mid[i])
	}
}

func TestRSIBounds(t *testing.T) {
	closes := []float64{10, 11, 12, 11.5, 12.5, 13, 12, 12.8, 13.5, 13, 14, 14.5, 14.2, 15, 15.5, 15.1}

	rsi := RSI(closes, 14)
	assert.True(t, math.IsNaN(rsi[0]))
	for i := 1; i < len(rsi); i++ {
		assert.GreaterOrEqual(t, rsi[i], 0.0)
		assert.LessOrEqual(t, rsi[i], 100.0)
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14}
	rsi := RSI(closes, 14)
	// 只涨不跌时avg_loss为0，rs极大，RSI逼近100
	assert.Greater(t, rsi[len(rsi)-1], 99.0)
}

func TestEmptyAndSingleInput(t *testing.T) {
	assert.Empty(t, OBV(nil, nil))
	assert.Empty(t, EWMA(nil, 0.5))

	diff, dea, macd := MACD([]float64{10})
	require.Len(t, diff, 1)
	assert.Zero(t, diff[0])
	assert.Zero(t, dea[0])
	assert.Zero(t, macd[0])

	rsi := RSI([]float64{10}, 14)
	require.Len(t, rsi, 1)
	assert.True(t, math.IsNaN(rsi[0]))
}

func TestComputeRecordsAligned(t *testing.T) {
	bars := make([]model.KlineData, 30)
	for i := range bars {
		price := 10 + math.Sin(float64(i)/3)
		bars[i] = model.KlineData{
			Date:   "2025-01-01",
			Open:   price - 0.1,
			Close:  price,
			High:   price + 0.2,
			Low:    price - 0.2,
			Volume: 1000,
		}
	}

	records := ComputeRecords(bars)
	require.Len(t, records, len(bars))
	for i, r := range records {
		assert.Equal(t, bars[i].Close, r.Close)
		assert.InDelta(t, 2*(r.Diff-r.DEA), r.MACD, 1e-12)
		assert.InDelta(t, 3*r.K-2*r.D, r.J, 1e-12)
	}
}
