// Package timeutil 合规计算的日期工具（周起点、日键、工时、天数）
package timeutil

import (
	"math"
	"time"
)

// DayKeyLayout 日键格式（YYYY-MM-DD）
const DayKeyLayout = "2006-01-02"

// WeekStart 返回 t 所在 ISO 周的起点（周一 00:00:00，保留 t 的时区）
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	// time.Sunday == 0，周日回退 6 天
	if weekday == 0 {
		weekday = 7
	}
	start := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, t.Location())
}

// DayKey 返回 t 的日键（YYYY-MM-DD）
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey 解析日键为 UTC 零点时间
func ParseDayKey(key string) (time.Time, error) {
	return time.Parse(DayKeyLayout, key)
}

// ShiftHours 计算班次工时（小时）
// 没有结束时间的班次按 0 工时计
func ShiftHours(start time.Time, end *time.Time) float64 {
	if end == nil {
		return 0
	}
	return end.Sub(start).Hours()
}

// HoursBetween 计算两个时间点之间的小时数（可为负）
func HoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}

// CeilDays 将时长向上取整为天数（过期为负值）
func CeilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}
