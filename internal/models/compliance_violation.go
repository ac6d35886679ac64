package models

import (
	"encoding/json"
	"time"
)

// ComplianceViolation 合规违规领域模型（对应 compliance_violations 表）
// 仅由合规扫描创建；之后只允许人工标记解决，不会被自动重开
type ComplianceViolation struct {
	// 主键
	ID string `db:"id"` // UUID, PRIMARY KEY

	// 租户和人员关联
	TenantID string `db:"tenant_id"` // UUID, NOT NULL
	UserID   string `db:"user_id"`   // UUID, NOT NULL

	// 违规类型和级别
	Type     string `db:"type"`     // CHECK IN ('overtime', 'rest_period', 'license_expired', ...)
	Severity string `db:"severity"` // CHECK IN ('warning', 'violation', 'critical')

	// 违规描述
	Description string          `db:"description"` // TEXT, NOT NULL
	Details     json.RawMessage `db:"details"`     // JSONB（结构化事实，如 hoursWorked/maxAllowed）

	// 关联班次（可选）
	ShiftID *string `db:"shift_id"` // UUID, nullable

	// 解决信息（仅人工操作）
	IsResolved      bool       `db:"is_resolved"`      // BOOLEAN, DEFAULT FALSE
	ResolvedAt      *time.Time `db:"resolved_at"`      // TIMESTAMPTZ, nullable
	ResolvedBy      *string    `db:"resolved_by"`      // UUID, nullable
	ResolutionNotes *string    `db:"resolution_notes"` // TEXT, nullable

	// 时间戳
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}

// OvertimeDetails 超时违规明细（details JSONB 结构）
type OvertimeDetails struct {
	HoursWorked float64 `json:"hoursWorked"`
	MaxAllowed  float64 `json:"maxAllowed"`
	WeekStart   string  `json:"weekStart"`
}

// RestPeriodDetails 休息不足违规明细
type RestPeriodDetails struct {
	RestHours         float64 `json:"restHours"`
	RequiredRest      float64 `json:"requiredRest"`
	PreviousShiftEnd  string  `json:"previousShiftEnd"`
	NextShiftStart    string  `json:"nextShiftStart"`
}

// ShiftLengthDetails 班次时长违规明细（max_shift_length / fatigue 共用）
type ShiftLengthDetails struct {
	ShiftHours    float64  `json:"shiftHours"`
	MaxAllowed    *float64 `json:"maxAllowed,omitempty"`
	WarnThreshold *float64 `json:"warnThreshold,omitempty"`
}

// ConsecutiveDaysDetails 连续工作天数违规明细
type ConsecutiveDaysDetails struct {
	ConsecutiveDays int `json:"consecutiveDays"`
	MaxAllowed      int `json:"maxAllowed"`
}

// LicenseExpiryDetails 执照到期违规明细（license_expired / license_expiring 共用）
type LicenseExpiryDetails struct {
	LicenseID       string `json:"licenseId"`
	LicenseNumber   string `json:"licenseNumber"`
	LicenseClass    string `json:"licenseClass"`
	ExpiryDate      string `json:"expiryDate"`
	DaysUntilExpiry *int   `json:"daysUntilExpiry,omitempty"`
	DaysOverdue     *int   `json:"daysOverdue,omitempty"`
}
