package models

import (
	"time"
)

// Shift 排班领域模型（对应 shifts 表）
type Shift struct {
	// 主键
	ID string `db:"id"` // UUID, PRIMARY KEY

	// 租户和人员关联
	TenantID string  `db:"tenant_id"` // UUID, NOT NULL
	UserID   *string `db:"user_id"`   // UUID, nullable（未分配班次为 NULL）

	// 时间信息
	StartTime time.Time  `db:"start_time"` // TIMESTAMPTZ, NOT NULL
	EndTime   *time.Time `db:"end_time"`   // TIMESTAMPTZ, nullable（无结束时间按 0 工时计）

	// 状态
	Status string `db:"status"` // CHECK IN ('scheduled', 'in_progress', 'completed', 'cancelled', 'no_show')

	// 时间戳
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}
