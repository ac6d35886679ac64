package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/masifmuhammad/SecureForce/internal/models"
	"github.com/masifmuhammad/SecureForce/internal/timeutil"
)

// RestPeriodEvaluator 班次间休息检查评估器
// Fair Work：相邻班次之间至少休息 10 小时
type RestPeriodEvaluator struct {
	evaluator *Evaluator
}

// NewRestPeriodEvaluator 创建休息检查评估器
func NewRestPeriodEvaluator(evaluator *Evaluator) *RestPeriodEvaluator {
	return &RestPeriodEvaluator{
		evaluator: evaluator,
	}
}

// Evaluate 评估班次间休息
// 窗口 = 最近 48 小时的全部班次（任意状态），按 (user_id, start_time) 升序；
// 只检查相邻班次对：上一班结束（无结束时间取开始时间）到下一班开始的间隔，
// 不足 10 小时违规，不足 6 小时为 critical
func (e *RestPeriodEvaluator) Evaluate(ctx context.Context, tenantID string, now time.Time) ([]Candidate, error) {
	lookback := now.Add(-48 * time.Hour)

	shifts, err := e.evaluator.shifts.ListStartedSince(ctx, tenantID, lookback)
	if err != nil {
		return nil, fmt.Errorf("rest period check: %w", err)
	}

	var results []Candidate
	var prev *models.Shift
	for i := range shifts {
		shift := &shifts[i]
		if prev != nil && prev.UserID != nil && shift.UserID != nil && *prev.UserID == *shift.UserID {
			prevEnd := prev.StartTime
			if prev.EndTime != nil {
				prevEnd = *prev.EndTime
			}
			restHours := timeutil.HoursBetween(prevEnd, shift.StartTime)

			if restHours < models.MinRestBetweenShiftsHours {
				severity := models.SeverityViolation
				if restHours < models.CriticalRestHours {
					severity = models.SeverityCritical
				}

				shiftID := shift.ID
				results = append(results, Candidate{
					UserID:   *shift.UserID,
					Type:     models.ViolationRestPeriod,
					Severity: severity,
					Description: fmt.Sprintf("Only %.1fh rest between shifts (min %.0fh)",
						restHours, models.MinRestBetweenShiftsHours),
					Details: e.evaluator.marshalDetails(models.RestPeriodDetails{
						RestHours:        restHours,
						RequiredRest:     models.MinRestBetweenShiftsHours,
						PreviousShiftEnd: prevEnd.Format(time.RFC3339),
						NextShiftStart:   shift.StartTime.Format(time.RFC3339),
					}),
					ShiftID: &shiftID,
				})
			}
		}
		prev = shift
	}

	return results, nil
}
