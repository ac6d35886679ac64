package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart_MidWeek(t *testing.T) {
	// 2026-08-27 是周四
	now := time.Date(2026, 8, 27, 15, 30, 0, 0, time.UTC)

	start := WeekStart(now)

	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Monday, start.Weekday())
}

func TestWeekStart_Monday(t *testing.T) {
	// 周一当天回到当天 00:00
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	start := WeekStart(now)

	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), start)
}

func TestWeekStart_Sunday(t *testing.T) {
	// 周日属于上一个周一开始的那一周
	now := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)

	start := WeekStart(now)

	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), start)
}

func TestWeekStart_KeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)

	now := time.Date(2026, 8, 27, 15, 30, 0, 0, loc)
	start := WeekStart(now)

	assert.Equal(t, loc, start.Location())
	assert.Equal(t, 0, start.Hour())
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2026, 8, 27, 23, 15, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-27", DayKey(ts))
}

func TestParseDayKey(t *testing.T) {
	day, err := ParseDayKey("2026-08-27")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseDayKey("not-a-day")
	assert.Error(t, err)
}

func TestShiftHours(t *testing.T) {
	start := time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)
	end := start.Add(8*time.Hour + 30*time.Minute)

	assert.Equal(t, 8.5, ShiftHours(start, &end))

	// 无结束时间按 0 工时计
	assert.Equal(t, 0.0, ShiftHours(start, nil))
}

func TestCeilDays(t *testing.T) {
	// 向上取整
	assert.Equal(t, 1, CeilDays(1*time.Hour))
	assert.Equal(t, 30, CeilDays(30*24*time.Hour))
	assert.Equal(t, 30, CeilDays(29*24*time.Hour+time.Minute))

	// 已过期为负值（昨天到期 → -0.x 天向上取整为 0，完整一天为 -1）
	assert.Equal(t, -1, CeilDays(-24*time.Hour))
	assert.Equal(t, 0, CeilDays(-23*time.Hour))
}
