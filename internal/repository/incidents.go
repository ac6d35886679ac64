package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/models"
)

// IncidentRepository 安保事件仓库
type IncidentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIncidentRepository 创建事件仓库
func NewIncidentRepository(db *sql.DB, logger *zap.Logger) *IncidentRepository {
	return &IncidentRepository{
		db:     db,
		logger: logger,
	}
}

const incidentColumns = `
			id,
			tenant_id,
			reported_by_id,
			location_id,
			shift_id,
			title,
			description,
			severity,
			status,
			sla_deadline,
			sla_breached,
			assigned_to_id,
			escalation_level,
			acknowledged_at,
			resolved_at,
			closed_at,
			created_at,
			updated_at`

// CreateIncident 插入一条事件记录
func (r *IncidentRepository) CreateIncident(ctx context.Context, inc *models.Incident) error {
	if inc.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}

	query := `
		INSERT INTO incidents (
			id, tenant_id, reported_by_id, location_id, shift_id,
			title, description, severity, status,
			sla_deadline, sla_breached, escalation_level,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`

	var shiftID interface{}
	if inc.ShiftID != nil {
		shiftID = *inc.ShiftID
	}

	_, err := r.db.ExecContext(ctx, query,
		inc.ID,
		inc.TenantID,
		inc.ReportedByID,
		inc.LocationID,
		shiftID,
		inc.Title,
		inc.Description,
		inc.Severity,
		inc.Status,
		inc.SLADeadline,
		inc.SLABreached,
		inc.EscalationLevel,
		inc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	return nil
}

// GetIncident 根据 id 获取单条事件（需验证 tenant_id）
func (r *IncidentRepository) GetIncident(ctx context.Context, tenantID, id string) (*models.Incident, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	query := `
		SELECT` + incidentColumns + `
		FROM incidents
		WHERE id = $1
		  AND tenant_id = $2
	`

	inc, err := scanIncident(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("incident not found: id=%s, tenant_id=%s: %w", id, tenantID, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	return inc, nil
}

// UpdateIncident 更新事件的可变字段
// SLA 截止时间和创建信息不在更新范围内（创建时固定）
func (r *IncidentRepository) UpdateIncident(ctx context.Context, inc *models.Incident) error {
	if inc.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if inc.ID == "" {
		return fmt.Errorf("id is required")
	}

	query := `
		UPDATE incidents
		SET status = $3,
		    assigned_to_id = $4,
		    acknowledged_at = $5,
		    resolved_at = $6,
		    closed_at = $7,
		    updated_at = $8
		WHERE id = $1
		  AND tenant_id = $2
	`

	var assignedToID interface{}
	if inc.AssignedToID != nil {
		assignedToID = *inc.AssignedToID
	}
	var acknowledgedAt, resolvedAt, closedAt interface{}
	if inc.AcknowledgedAt != nil {
		acknowledgedAt = *inc.AcknowledgedAt
	}
	if inc.ResolvedAt != nil {
		resolvedAt = *inc.ResolvedAt
	}
	if inc.ClosedAt != nil {
		closedAt = *inc.ClosedAt
	}

	result, err := r.db.ExecContext(ctx, query,
		inc.ID,
		inc.TenantID,
		inc.Status,
		assignedToID,
		acknowledgedAt,
		resolvedAt,
		closedAt,
		inc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("incident not found: id=%s, tenant_id=%s: %w", inc.ID, inc.TenantID, sql.ErrNoRows)
	}

	return nil
}

// ListUnbreachedPastDeadline 查询已过 SLA 截止且未标记超时的非终态事件
func (r *IncidentRepository) ListUnbreachedPastDeadline(ctx context.Context, tenantID string, now time.Time) ([]models.Incident, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT` + incidentColumns + `
		FROM incidents
		WHERE tenant_id = $1
		  AND sla_breached = FALSE
		  AND sla_deadline < $2
		  AND status NOT IN ('resolved', 'closed')
		ORDER BY sla_deadline
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list breached incidents: %w", err)
	}
	defer rows.Close()

	var incidents []models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, *inc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incidents: %w", err)
	}

	return incidents, nil
}

// MarkSLABreached 条件更新 sla_breached 标记
// WHERE sla_breached = FALSE 保证并发扫描只有一方胜出，返回是否由本次调用完成标记
func (r *IncidentRepository) MarkSLABreached(ctx context.Context, tenantID, id string, now time.Time) (bool, error) {
	if tenantID == "" {
		return false, fmt.Errorf("tenant_id is required")
	}
	if id == "" {
		return false, fmt.Errorf("id is required")
	}

	query := `
		UPDATE incidents
		SET sla_breached = TRUE,
		    updated_at = $3
		WHERE id = $1
		  AND tenant_id = $2
		  AND sla_breached = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id, tenantID, now)
	if err != nil {
		return false, fmt.Errorf("failed to mark sla breached: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check breach result: %w", err)
	}

	return affected > 0, nil
}

// BumpEscalation 升级事件（级别 +1 封顶 3，状态置为 escalated）
// LEAST 在 SQL 内封顶，并发升级不会超过上限
func (r *IncidentRepository) BumpEscalation(ctx context.Context, tenantID, id string, now time.Time) (*models.Incident, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	query := `
		UPDATE incidents
		SET escalation_level = LEAST(escalation_level + 1, 3),
		    status = 'escalated',
		    updated_at = $3
		WHERE id = $1
		  AND tenant_id = $2
		RETURNING` + incidentColumns + `
	`

	inc, err := scanIncident(r.db.QueryRowContext(ctx, query, id, tenantID, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("incident not found: id=%s, tenant_id=%s: %w", id, tenantID, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to escalate incident: %w", err)
	}

	return inc, nil
}

// CountByStatus 按状态统计事件数量（仪表盘用）
func (r *IncidentRepository) CountByStatus(ctx context.Context, tenantID, status string) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT COUNT(*)
		FROM incidents
		WHERE tenant_id = $1
		  AND status = $2
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}

	return count, nil
}

// CountBreachedOpen 统计已超时且仍为 open 的事件数量（仪表盘用）
func (r *IncidentRepository) CountBreachedOpen(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT COUNT(*)
		FROM incidents
		WHERE tenant_id = $1
		  AND sla_breached = TRUE
		  AND status = 'open'
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count breached incidents: %w", err)
	}

	return count, nil
}

// scanIncident 扫描单条事件（处理可空字段）
func scanIncident(row scanner) (*models.Incident, error) {
	var inc models.Incident
	var shiftID, assignedToID sql.NullString
	var acknowledgedAt, resolvedAt, closedAt sql.NullTime

	err := row.Scan(
		&inc.ID,
		&inc.TenantID,
		&inc.ReportedByID,
		&inc.LocationID,
		&shiftID,
		&inc.Title,
		&inc.Description,
		&inc.Severity,
		&inc.Status,
		&inc.SLADeadline,
		&inc.SLABreached,
		&assignedToID,
		&inc.EscalationLevel,
		&acknowledgedAt,
		&resolvedAt,
		&closedAt,
		&inc.CreatedAt,
		&inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if shiftID.Valid {
		inc.ShiftID = &shiftID.String
	}
	if assignedToID.Valid {
		inc.AssignedToID = &assignedToID.String
	}
	if acknowledgedAt.Valid {
		inc.AcknowledgedAt = &acknowledgedAt.Time
	}
	if resolvedAt.Valid {
		inc.ResolvedAt = &resolvedAt.Time
	}
	if closedAt.Valid {
		inc.ClosedAt = &closedAt.Time
	}

	return &inc, nil
}
