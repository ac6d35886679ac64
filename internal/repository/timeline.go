package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/models"
)

// TimelineRepository 事件时间线仓库（仅追加）
type TimelineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTimelineRepository 创建时间线仓库
func NewTimelineRepository(db *sql.DB, logger *zap.Logger) *TimelineRepository {
	return &TimelineRepository{
		db:     db,
		logger: logger,
	}
}

// AppendTimeline 追加一条时间线记录
func (r *TimelineRepository) AppendTimeline(ctx context.Context, entry *models.IncidentTimeline) error {
	if entry.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if entry.IncidentID == "" {
		return fmt.Errorf("incident_id is required")
	}

	query := `
		INSERT INTO incident_timeline (
			id, tenant_id, incident_id, user_id, action, comment, metadata, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var userID interface{}
	if entry.UserID != nil {
		userID = *entry.UserID
	}
	var metadata interface{}
	if len(entry.Metadata) > 0 {
		metadata = []byte(entry.Metadata)
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.IncidentID,
		userID,
		entry.Action,
		entry.Comment,
		metadata,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append timeline entry: %w", err)
	}

	return nil
}

// ListTimeline 查询事件的完整时间线（按写入时间升序）
func (r *TimelineRepository) ListTimeline(ctx context.Context, tenantID, incidentID string) ([]models.IncidentTimeline, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if incidentID == "" {
		return nil, fmt.Errorf("incident_id is required")
	}

	query := `
		SELECT
			id,
			tenant_id,
			incident_id,
			user_id,
			action,
			comment,
			metadata,
			timestamp
		FROM incident_timeline
		WHERE tenant_id = $1
		  AND incident_id = $2
		ORDER BY timestamp, id
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer rows.Close()

	var entries []models.IncidentTimeline
	for rows.Next() {
		var entry models.IncidentTimeline
		var userID sql.NullString
		var metadata []byte

		err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.IncidentID,
			&userID,
			&entry.Action,
			&entry.Comment,
			&metadata,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}

		if userID.Valid {
			entry.UserID = &userID.String
		}
		entry.Metadata = metadata

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timeline: %w", err)
	}

	return entries, nil
}
