package models

import (
	"encoding/json"
	"time"
)

// IncidentTimeline 事件时间线领域模型（对应 incident_timeline 表）
// 仅追加的审计记录：每次事件变更同步写入一条，不做更新和单独删除
type IncidentTimeline struct {
	// 主键
	ID string `db:"id"` // UUID, PRIMARY KEY

	// 租户和关联
	TenantID   string  `db:"tenant_id"`   // UUID, NOT NULL
	IncidentID string  `db:"incident_id"` // UUID, NOT NULL, REFERENCES incidents(id) ON DELETE CASCADE
	UserID     *string `db:"user_id"`     // UUID, nullable（系统触发为 NULL）

	// 操作内容
	Action   string          `db:"action"`   // CHECK IN ('created', 'assigned', 'note_added', ...)
	Comment  string          `db:"comment"`  // TEXT
	Metadata json.RawMessage `db:"metadata"` // JSONB, nullable（如 {previousStatus, newStatus}）

	// 写入时间
	Timestamp time.Time `db:"timestamp"` // TIMESTAMPTZ, NOT NULL
}

// StatusChangeMetadata 状态变更时间线的 metadata 结构
type StatusChangeMetadata struct {
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
}
