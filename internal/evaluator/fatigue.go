package evaluator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/masifmuhammad/SecureForce/internal/models"
	"github.com/masifmuhammad/SecureForce/internal/timeutil"
)

// FatigueEvaluator 疲劳检查评估器
// 两项独立子检查：单班次时长、连续工作天数
type FatigueEvaluator struct {
	evaluator *Evaluator
}

// NewFatigueEvaluator 创建疲劳检查评估器
func NewFatigueEvaluator(evaluator *Evaluator) *FatigueEvaluator {
	return &FatigueEvaluator{
		evaluator: evaluator,
	}
}

// Evaluate 评估疲劳
// 窗口 = 最近 7 天的全部班次：
// (a) 单班次 >14h 记 max_shift_length/critical，(10h,14h] 记 fatigue/warning；
// (b) 每人取工作过的日期集合排序，连续日期串超过 5 天记一条
//     max_consecutive_days/violation，首次命中即停止（每人每次扫描至多一条）
func (e *FatigueEvaluator) Evaluate(ctx context.Context, tenantID string, now time.Time) ([]Candidate, error) {
	lookback := now.Add(-7 * 24 * time.Hour)

	shifts, err := e.evaluator.shifts.ListStartedSince(ctx, tenantID, lookback)
	if err != nil {
		return nil, fmt.Errorf("fatigue check: %w", err)
	}

	var results []Candidate

	// 子检查 (a)：单班次时长
	for _, shift := range shifts {
		if shift.UserID == nil {
			continue
		}
		hours := timeutil.ShiftHours(shift.StartTime, shift.EndTime)
		shiftID := shift.ID

		if hours > models.MaxShiftLengthHours {
			maxAllowed := models.MaxShiftLengthHours
			results = append(results, Candidate{
				UserID:   *shift.UserID,
				Type:     models.ViolationMaxShiftLength,
				Severity: models.SeverityCritical,
				Description: fmt.Sprintf("Shift is %.1fh (max %.0fh)",
					hours, models.MaxShiftLengthHours),
				Details: e.evaluator.marshalDetails(models.ShiftLengthDetails{
					ShiftHours: hours,
					MaxAllowed: &maxAllowed,
				}),
				ShiftID: &shiftID,
			})
		} else if hours > models.WarnShiftLengthHours {
			warnThreshold := models.WarnShiftLengthHours
			results = append(results, Candidate{
				UserID:   *shift.UserID,
				Type:     models.ViolationFatigue,
				Severity: models.SeverityWarning,
				Description: fmt.Sprintf("Shift is %.1fh (warning threshold %.0fh)",
					hours, models.WarnShiftLengthHours),
				Details: e.evaluator.marshalDetails(models.ShiftLengthDetails{
					ShiftHours:    hours,
					WarnThreshold: &warnThreshold,
				}),
				ShiftID: &shiftID,
			})
		}
	}

	// 子检查 (b)：连续工作天数
	userDays := make(map[string]map[string]bool)
	for _, shift := range shifts {
		if shift.UserID == nil {
			continue
		}
		dayKey := timeutil.DayKey(shift.StartTime)
		if userDays[*shift.UserID] == nil {
			userDays[*shift.UserID] = make(map[string]bool)
		}
		userDays[*shift.UserID][dayKey] = true
	}

	// 固定输出顺序
	userIDs := make([]string, 0, len(userDays))
	for userID := range userDays {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		days := userDays[userID]
		sortedDays := make([]string, 0, len(days))
		for day := range days {
			sortedDays = append(sortedDays, day)
		}
		sort.Strings(sortedDays)

		consecutive := 1
		for i := 1; i < len(sortedDays); i++ {
			prevDay, err := timeutil.ParseDayKey(sortedDays[i-1])
			if err != nil {
				return nil, fmt.Errorf("fatigue check: invalid day key %q: %w", sortedDays[i-1], err)
			}
			currDay, err := timeutil.ParseDayKey(sortedDays[i])
			if err != nil {
				return nil, fmt.Errorf("fatigue check: invalid day key %q: %w", sortedDays[i], err)
			}

			if currDay.Sub(prevDay) == 24*time.Hour {
				consecutive++
				if consecutive > models.MaxConsecutiveDays {
					results = append(results, Candidate{
						UserID:   userID,
						Type:     models.ViolationMaxConsecutiveDays,
						Severity: models.SeverityViolation,
						Description: fmt.Sprintf("Guard has worked %d consecutive days (max %d)",
							consecutive, models.MaxConsecutiveDays),
						Details: e.evaluator.marshalDetails(models.ConsecutiveDaysDetails{
							ConsecutiveDays: consecutive,
							MaxAllowed:      models.MaxConsecutiveDays,
						}),
					})
					// 每人每次扫描至多一条，首次命中即停止
					break
				}
			} else {
				consecutive = 1
			}
		}
	}

	return results, nil
}
