package models

import (
	"time"
)

// GuardLicense 保安执照领域模型（对应 guard_licenses 表）
// 澳大利亚各州安保执照（1A/1B/1C/1D/2A/2B/2C/master）
type GuardLicense struct {
	// 主键
	ID string `db:"id"` // UUID, PRIMARY KEY

	// 租户和人员关联
	TenantID string `db:"tenant_id"` // UUID, NOT NULL
	UserID   string `db:"user_id"`   // UUID, NOT NULL

	// 执照信息
	LicenseClass  string `db:"license_class"`  // VARCHAR(10), NOT NULL
	LicenseNumber string `db:"license_number"` // VARCHAR(100), NOT NULL
	IssuingState  string `db:"issuing_state"`  // CHECK IN ('NSW', 'VIC', 'QLD', 'SA', 'WA', 'TAS', 'NT', 'ACT')

	// 有效期
	IssueDate  time.Time `db:"issue_date"`  // DATE, NOT NULL
	ExpiryDate time.Time `db:"expiry_date"` // DATE, NOT NULL

	// 审核状态（仅 verified 参与到期提醒）
	VerificationStatus string `db:"verification_status"` // CHECK IN ('pending', 'verified', 'expired', 'suspended', 'rejected')

	// 时间戳
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}
