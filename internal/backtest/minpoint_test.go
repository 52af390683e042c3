package backtest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-quant-backend/internal/model"
)

func minPointRecords(closes []float64, oversoldDays map[int]bool) []model.DailyRecord {
	records := make([]model.DailyRecord, len(closes))
	for i, c := range closes {
		k, rsi := 50.0, 50.0
		if oversoldDays[i] {
			k, rsi = 5, 5
		}
		records[i] = model.DailyRecord{
			KlineData: model.KlineData{Date: fmt.Sprintf("2025-04-%02d", i+1), Close: c},
			K:         k,
			RSI:       rsi,
		}
	}
	return records
}

func TestMinPointPerfectRebound(t *testing.T) {
	// 第0日极端超卖，第1日收盘为参考价，其后持续上涨
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10 + 0.2*float64(i)
	}
	records := minPointRecords(closes, map[int]bool{0: true})

	result := MinPointScore("000001", records)
	assert.Equal(t, 1, result.Events)
	assert.Equal(t, MinPointHorizon, result.Horizon)
	// 第10个观察日收盘12.2 > 参考价10.2*1.1，记满分
	assert.Equal(t, 1, result.PerfectHit)
	assert.InDelta(t, 10.0, result.AvgScore, 1e-9)
}

func TestMinPointFailedRebound(t *testing.T) {
	// 超卖后继续阴跌，观察期内没有一天收在参考价之上
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10 - 0.1*float64(i)
	}
	records := minPointRecords(closes, map[int]bool{0: true})

	result := MinPointScore("000001", records)
	require.Equal(t, 1, result.Events)
	assert.Zero(t, result.PerfectHit)
	assert.InDelta(t, 0.0, result.AvgScore, 1e-9)
}

func TestMinPointNoEventsNeutralScore(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 10
	}
	records := minPointRecords(closes, nil)

	result := MinPointScore("000001", records)
	assert.Zero(t, result.Events)
	assert.InDelta(t, 5.0, result.AvgScore, 1e-9, "无事件时给中性分")
}

func TestMinPointEventNearEndNotScored(t *testing.T) {
	// 参考价落在最后10个交易日内，观察期不完整，不计分
	closes := make([]float64, 12)
	for i := range closes {
		closes[i] = 10
	}
	records := minPointRecords(closes, map[int]bool{5: true})

	result := MinPointScore("000001", records)
	assert.Equal(t, 1, result.Events)
	assert.Zero(t, result.PerfectHit)
}
