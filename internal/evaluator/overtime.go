package evaluator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/masifmuhammad/SecureForce/internal/models"
	"github.com/masifmuhammad/SecureForce/internal/timeutil"
)

// OvertimeEvaluator 每周超时检查评估器
// Fair Work：每周普通工时上限 38 小时
type OvertimeEvaluator struct {
	evaluator *Evaluator
}

// NewOvertimeEvaluator 创建超时检查评估器
func NewOvertimeEvaluator(evaluator *Evaluator) *OvertimeEvaluator {
	return &OvertimeEvaluator{
		evaluator: evaluator,
	}
}

// Evaluate 评估每周超时
// 窗口 = 本 ISO 周（周一 00:00 → now），仅统计已完成班次；
// 恰好 38.0 小时不算违规（严格大于），超过 50 小时级别升为 critical
func (e *OvertimeEvaluator) Evaluate(ctx context.Context, tenantID string, now time.Time) ([]Candidate, error) {
	weekStart := timeutil.WeekStart(now)

	shifts, err := e.evaluator.shifts.ListCompletedInWindow(ctx, tenantID, weekStart, now)
	if err != nil {
		return nil, fmt.Errorf("overtime check: %w", err)
	}

	// 按人员累计工时（无结束时间的班次按 0 计）
	userHours := make(map[string]float64)
	for _, shift := range shifts {
		if shift.UserID == nil {
			continue
		}
		userHours[*shift.UserID] += timeutil.ShiftHours(shift.StartTime, shift.EndTime)
	}

	// 固定输出顺序
	userIDs := make([]string, 0, len(userHours))
	for userID := range userHours {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	var results []Candidate
	for _, userID := range userIDs {
		totalHours := userHours[userID]
		if totalHours <= models.MaxOrdinaryHoursPerWeek {
			continue
		}

		severity := models.SeverityWarning
		if totalHours > models.CriticalOvertimeHours {
			severity = models.SeverityCritical
		}

		results = append(results, Candidate{
			UserID:   userID,
			Type:     models.ViolationOvertime,
			Severity: severity,
			Description: fmt.Sprintf("Guard worked %.1fh this week (max %.0fh ordinary)",
				totalHours, models.MaxOrdinaryHoursPerWeek),
			Details: e.evaluator.marshalDetails(models.OvertimeDetails{
				HoursWorked: totalHours,
				MaxAllowed:  models.MaxOrdinaryHoursPerWeek,
				WeekStart:   weekStart.Format(time.RFC3339),
			}),
		})
	}

	return results, nil
}
