package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/models"
)

// ViolationRepository 合规违规仓库
// 扫描侧只做插入（不做 upsert）；解决路径仅人工触发
type ViolationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewViolationRepository 创建违规仓库
func NewViolationRepository(db *sql.DB, logger *zap.Logger) *ViolationRepository {
	return &ViolationRepository{
		db:     db,
		logger: logger,
	}
}

// ViolationFilters 违规查询过滤条件
type ViolationFilters struct {
	Resolved *bool   // 是否已解决
	UserID   *string // 人员过滤
	Limit    int     // 返回条数上限（默认 100）
}

const violationColumns = `
			id,
			tenant_id,
			user_id,
			type,
			severity,
			description,
			details,
			shift_id,
			is_resolved,
			resolved_at,
			resolved_by,
			resolution_notes,
			created_at,
			updated_at`

// CreateViolation 插入一条违规记录
// 每次扫描命中都插入新行，不与既有未解决违规合并
func (r *ViolationRepository) CreateViolation(ctx context.Context, v *models.ComplianceViolation) error {
	if v.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if v.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	query := `
		INSERT INTO compliance_violations (
			id, tenant_id, user_id, type, severity, description, details,
			shift_id, is_resolved, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $9)
	`

	var details interface{}
	if len(v.Details) > 0 {
		details = []byte(v.Details)
	}
	var shiftID interface{}
	if v.ShiftID != nil {
		shiftID = *v.ShiftID
	}

	_, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.TenantID,
		v.UserID,
		v.Type,
		v.Severity,
		v.Description,
		details,
		shiftID,
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create violation: %w", err)
	}

	return nil
}

// GetViolation 根据 id 获取单条违规（需验证 tenant_id）
func (r *ViolationRepository) GetViolation(ctx context.Context, tenantID, id string) (*models.ComplianceViolation, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	query := `
		SELECT` + violationColumns + `
		FROM compliance_violations
		WHERE id = $1
		  AND tenant_id = $2
	`

	row := r.db.QueryRowContext(ctx, query, id, tenantID)
	violation, err := scanViolation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("violation not found: id=%s, tenant_id=%s: %w", id, tenantID, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to get violation: %w", err)
	}

	return violation, nil
}

// ListViolations 查询违规列表（支持已解决/人员过滤）
func (r *ViolationRepository) ListViolations(ctx context.Context, tenantID string, filters ViolationFilters) ([]models.ComplianceViolation, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT` + violationColumns + `
		FROM compliance_violations
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}

	if filters.Resolved != nil {
		args = append(args, *filters.Resolved)
		query += fmt.Sprintf(" AND is_resolved = $%d", len(args))
	}
	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer rows.Close()

	var violations []models.ComplianceViolation
	for rows.Next() {
		violation, err := scanViolation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		violations = append(violations, *violation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate violations: %w", err)
	}

	return violations, nil
}

// ResolveViolation 人工标记违规已解决
// 只设置解决字段；已解决的违规不会被扫描重开
func (r *ViolationRepository) ResolveViolation(ctx context.Context, tenantID, id, resolvedBy, notes string, resolvedAt time.Time) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if id == "" {
		return fmt.Errorf("id is required")
	}

	query := `
		UPDATE compliance_violations
		SET is_resolved = TRUE,
		    resolved_at = $3,
		    resolved_by = $4,
		    resolution_notes = $5,
		    updated_at = $3
		WHERE id = $1
		  AND tenant_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, tenantID, resolvedAt, resolvedBy, notes)
	if err != nil {
		return fmt.Errorf("failed to resolve violation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check resolve result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("violation not found: id=%s, tenant_id=%s: %w", id, tenantID, sql.ErrNoRows)
	}

	return nil
}

// CountOpen 统计未解决违规数量（severity 为空时统计全部级别）
func (r *ViolationRepository) CountOpen(ctx context.Context, tenantID, severity string) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT COUNT(*)
		FROM compliance_violations
		WHERE tenant_id = $1
		  AND is_resolved = FALSE
	`
	args := []interface{}{tenantID}

	if severity != "" {
		args = append(args, severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open violations: %w", err)
	}

	return count, nil
}

// scanner 行扫描接口（*sql.Row 和 *sql.Rows 共用）
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanViolation 扫描单条违规（处理可空字段）
func scanViolation(row scanner) (*models.ComplianceViolation, error) {
	var v models.ComplianceViolation
	var details []byte
	var shiftID, resolvedBy, resolutionNotes sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&v.ID,
		&v.TenantID,
		&v.UserID,
		&v.Type,
		&v.Severity,
		&v.Description,
		&details,
		&shiftID,
		&v.IsResolved,
		&resolvedAt,
		&resolvedBy,
		&resolutionNotes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Details = details
	if shiftID.Valid {
		v.ShiftID = &shiftID.String
	}
	if resolvedAt.Valid {
		v.ResolvedAt = &resolvedAt.Time
	}
	if resolvedBy.Valid {
		v.ResolvedBy = &resolvedBy.String
	}
	if resolutionNotes.Valid {
		v.ResolutionNotes = &resolutionNotes.String
	}

	return &v, nil
}
