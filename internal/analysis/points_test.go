package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-quant-backend/internal/model"
)

func bars(highsLows ...[3]float64) []model.DailyRecord {
	records := make([]model.DailyRecord, len(highsLows))
	for i, hl := range highsLows {
		records[i] = model.DailyRecord{
			KlineData: model.KlineData{
				Date:  fmt.Sprintf("2025-06-%02d", i+1),
				High:  hl[0],
				Low:   hl[1],
				Close: hl[2],
			},
		}
	}
	return records
}

func TestAnalyzePointsEmpty(t *testing.T) {
	_, err := AnalyzePoints("000001", nil)
	assert.Error(t, err)
}

func TestMovingAveragesSkipShortWindows(t *testing.T) {
	records := make([]model.DailyRecord, 30)
	for i := range records {
		records[i] = model.DailyRecord{KlineData: model.KlineData{Close: 10}}
	}
	p, err := AnalyzePoints("000001", records)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, p.MA[5], 1e-9)
	assert.InDelta(t, 10.0, p.MA[20], 1e-9)
	_, ok := p.MA[60]
	assert.False(t, ok, "数据不足的窗口不给均线值")
}

func TestFibonacciLevels(t *testing.T) {
	records := bars(
		[3]float64{20, 10, 15},
		[3]float64{19, 11, 15},
	)
	p, err := AnalyzePoints("000001", records)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, p.Fibonacci["0.0"], 1e-9)
	assert.InDelta(t, 10.0, p.Fibonacci["1.0"], 1e-9)
	assert.InDelta(t, 15.0, p.Fibonacci["0.5"], 1e-9)
	assert.InDelta(t, 20-10*0.382, p.Fibonacci["0.382"], 1e-9)
}

func TestSupportResistanceLocalExtremes(t *testing.T) {
	// 第3根是局部低点(9)，第7根是局部高点(21)，当前价15
	records := bars(
		[3]float64{15, 12, 14},
		[3]float64{15, 11, 13},
		[3]float64{14, 10, 12},
		[3]float64{13, 9, 11}, // 局部低点
		[3]float64{15, 11, 14},
		[3]float64{17, 13, 16},
		[3]float64{19, 15, 18},
		[3]float64{21, 16, 20}, // 局部高点
		[3]float64{19, 15, 17},
		[3]float64{17, 13, 15},
		[3]float64{16, 12, 15},
	)
	p, err := AnalyzePoints("000001", records)
	require.NoError(t, err)

	assert.Contains(t, p.Supports, 9.0)
	assert.Contains(t, p.Resistances, 21.0)
	for _, s := range p.Supports {
		assert.Less(t, s, p.CurrentPrice)
	}
	for _, r := range p.Resistances {
		assert.Greater(t, r, p.CurrentPrice)
	}
}

func TestPointReportSections(t *testing.T) {
	records := make([]model.DailyRecord, 10)
	for i := range records {
		records[i] = model.DailyRecord{KlineData: model.KlineData{
			High: 11, Low: 9, Close: 10,
		}}
	}
	p, err := AnalyzePoints("600519", records)
	require.NoError(t, err)

	report := PointReport("贵州茅台", p)
	assert.Contains(t, report, "点位分析报告")
	assert.Contains(t, report, "贵州茅台")
	assert.Contains(t, report, "斐波那契回撤")
}
