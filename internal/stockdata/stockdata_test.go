package stockdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-quant-backend/internal/model"
)

func TestFilterRange(t *testing.T) {
	data := []model.KlineData{
		{Date: "2025-01-01"},
		{Date: "2025-01-02"},
		{Date: "2025-01-03"},
		{Date: "2025-01-04"},
	}

	out := FilterRange(data, "2025-01-02", "2025-01-03")
	require.Len(t, out, 2)
	assert.Equal(t, "2025-01-02", out[0].Date)
	assert.Equal(t, "2025-01-03", out[1].Date)

	assert.Len(t, FilterRange(data, "", ""), 4)
	assert.Empty(t, FilterRange(data, "2025-02-01", ""))
}

func TestInMemoryCacheRoundTrip(t *testing.T) {
	p := NewInMemoryCacheProvider()
	value := model.KlineResponse{Code: "000001", Name: "平安银行"}

	require.NoError(t, p.Set("k", value, time.Minute))

	var got model.KlineResponse
	require.NoError(t, p.Get("k", &got))
	assert.Equal(t, "000001", got.Code)
	assert.Equal(t, "平安银行", got.Name)
}

func TestInMemoryCacheMissAndExpiry(t *testing.T) {
	p := NewInMemoryCacheProvider()

	var got model.KlineResponse
	assert.Error(t, p.Get("absent", &got))

	require.NoError(t, p.Set("k", model.KlineResponse{Code: "x"}, time.Nanosecond))
	time.Sleep(time.Millisecond)
	assert.Error(t, p.Get("k", &got), "过期条目视为未命中")
}

func TestMarketSymbol(t *testing.T) {
	assert.Equal(t, "sh600519", marketSymbol("600519"))
	assert.Equal(t, "sz000001", marketSymbol("000001"))
}
