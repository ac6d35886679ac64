package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/models"
)

// ShiftRepository 排班仓库（合规扫描只读）
type ShiftRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewShiftRepository 创建排班仓库
func NewShiftRepository(db *sql.DB, logger *zap.Logger) *ShiftRepository {
	return &ShiftRepository{
		db:     db,
		logger: logger,
	}
}

const shiftColumns = `
			id,
			tenant_id,
			user_id,
			start_time,
			end_time,
			status,
			created_at,
			updated_at`

// ListCompletedInWindow 查询时间窗口内已完成的班次（超时检查用）
func (r *ShiftRepository) ListCompletedInWindow(ctx context.Context, tenantID string, from, to time.Time) ([]models.Shift, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT` + shiftColumns + `
		FROM shifts
		WHERE tenant_id = $1
		  AND status = 'completed'
		  AND start_time >= $2
		  AND start_time <= $3
		ORDER BY user_id, start_time
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed shifts: %w", err)
	}
	defer rows.Close()

	return scanShifts(rows)
}

// ListStartedSince 查询开始时间在 since 之后的所有班次（任意状态）
// 按 (user_id, start_time) 升序排列，休息/疲劳检查依赖该顺序
func (r *ShiftRepository) ListStartedSince(ctx context.Context, tenantID string, since time.Time) ([]models.Shift, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT` + shiftColumns + `
		FROM shifts
		WHERE tenant_id = $1
		  AND start_time >= $2
		ORDER BY user_id, start_time
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	return scanShifts(rows)
}

// scanShifts 扫描班次结果集（处理可空字段）
func scanShifts(rows *sql.Rows) ([]models.Shift, error) {
	var shifts []models.Shift

	for rows.Next() {
		var shift models.Shift
		var userID sql.NullString
		var endTime sql.NullTime

		err := rows.Scan(
			&shift.ID,
			&shift.TenantID,
			&userID,
			&shift.StartTime,
			&endTime,
			&shift.Status,
			&shift.CreatedAt,
			&shift.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}

		if userID.Valid {
			shift.UserID = &userID.String
		}
		if endTime.Valid {
			shift.EndTime = &endTime.Time
		}

		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}

	return shifts, nil
}
