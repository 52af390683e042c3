package holiday

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekendNeverTrades(t *testing.T) {
	saturday := time.Date(2025, 8, 30, 10, 0, 0, 0, time.Local)
	sunday := time.Date(2025, 8, 31, 10, 0, 0, 0, time.Local)

	assert.False(t, IsTradingDay(saturday))
	assert.False(t, IsTradingDay(sunday))
}

func TestCustomHolidayBlocksTrading(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"holidays": ["2025-10-01"]}`), 0o644))
	require.NoError(t, LoadCustomHolidays(path))

	// 2025-10-01是周三，自定义配置优先于API
	national := time.Date(2025, 10, 1, 10, 0, 0, 0, time.Local)
	assert.False(t, IsTradingDay(national))
}

func TestLoadCustomHolidaysMissingFileOK(t *testing.T) {
	assert.NoError(t, LoadCustomHolidays(filepath.Join(t.TempDir(), "absent.json")))
	assert.NoError(t, LoadCustomHolidays(""))
}

func TestLoadCustomHolidaysBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	assert.Error(t, LoadCustomHolidays(path))
}
