package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/models"
)

// LicenseRepository 保安执照仓库（合规扫描只读）
type LicenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLicenseRepository 创建执照仓库
func NewLicenseRepository(db *sql.DB, logger *zap.Logger) *LicenseRepository {
	return &LicenseRepository{
		db:     db,
		logger: logger,
	}
}

// ListVerifiedExpiringBy 查询在 cutoff 之前到期的已审核执照
// 仅 verification_status = 'verified' 的执照参与到期提醒
func (r *LicenseRepository) ListVerifiedExpiringBy(ctx context.Context, tenantID string, cutoff time.Time) ([]models.GuardLicense, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT
			id,
			tenant_id,
			user_id,
			license_class,
			license_number,
			issuing_state,
			issue_date,
			expiry_date,
			verification_status,
			created_at,
			updated_at
		FROM guard_licenses
		WHERE tenant_id = $1
		  AND verification_status = 'verified'
		  AND expiry_date <= $2
		ORDER BY expiry_date
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring licenses: %w", err)
	}
	defer rows.Close()

	var licenses []models.GuardLicense
	for rows.Next() {
		var license models.GuardLicense
		err := rows.Scan(
			&license.ID,
			&license.TenantID,
			&license.UserID,
			&license.LicenseClass,
			&license.LicenseNumber,
			&license.IssuingState,
			&license.IssueDate,
			&license.ExpiryDate,
			&license.VerificationStatus,
			&license.CreatedAt,
			&license.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, license)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate licenses: %w", err)
	}

	return licenses, nil
}

// CountVerifiedExpiringBy 统计在 cutoff 之前到期的已审核执照数量（仪表盘用）
func (r *LicenseRepository) CountVerifiedExpiringBy(ctx context.Context, tenantID string, cutoff time.Time) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT COUNT(*)
		FROM guard_licenses
		WHERE tenant_id = $1
		  AND verification_status = 'verified'
		  AND expiry_date <= $2
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expiring licenses: %w", err)
	}

	return count, nil
}
