package models

import (
	"time"
)

// Incident 安保事件领域模型（对应 incidents 表）
// SLA 截止时间在创建时按严重级别一次性计算，之后不再重算；
// sla_breached 单调（false→true）；escalation_level 单调递增且封顶 3
type Incident struct {
	// 主键
	ID string `db:"id"` // UUID, PRIMARY KEY

	// 租户和关联
	TenantID     string  `db:"tenant_id"`      // UUID, NOT NULL
	ReportedByID string  `db:"reported_by_id"` // UUID, NOT NULL
	LocationID   string  `db:"location_id"`    // UUID, NOT NULL
	ShiftID      *string `db:"shift_id"`       // UUID, nullable

	// 事件内容
	Title       string `db:"title"`       // VARCHAR(300), NOT NULL
	Description string `db:"description"` // TEXT, NOT NULL

	// 级别和状态
	Severity string `db:"severity"` // CHECK IN ('low', 'medium', 'high', 'critical'), DEFAULT 'medium'
	Status   string `db:"status"`   // CHECK IN ('open', 'investigating', 'escalated', 'resolved', 'closed')

	// SLA
	SLADeadline time.Time `db:"sla_deadline"` // TIMESTAMPTZ, NOT NULL（创建时固定）
	SLABreached bool      `db:"sla_breached"` // BOOLEAN, DEFAULT FALSE

	// 处理信息
	AssignedToID    *string `db:"assigned_to_id"`   // UUID, nullable
	EscalationLevel int     `db:"escalation_level"` // INT, DEFAULT 0, 上限 3

	// 生命周期时间
	AcknowledgedAt *time.Time `db:"acknowledged_at"` // TIMESTAMPTZ, nullable
	ResolvedAt     *time.Time `db:"resolved_at"`     // TIMESTAMPTZ, nullable
	ClosedAt       *time.Time `db:"closed_at"`       // TIMESTAMPTZ, nullable

	// 时间戳
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}
