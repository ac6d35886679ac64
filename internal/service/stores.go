package service

import (
	"context"
	"time"

	"github.com/masifmuhammad/SecureForce/internal/models"
	"github.com/masifmuhammad/SecureForce/internal/repository"
)

// ViolationStore 合规违规存储（由 repository.ViolationRepository 实现）
type ViolationStore interface {
	CreateViolation(ctx context.Context, v *models.ComplianceViolation) error
	GetViolation(ctx context.Context, tenantID, id string) (*models.ComplianceViolation, error)
	ListViolations(ctx context.Context, tenantID string, filters repository.ViolationFilters) ([]models.ComplianceViolation, error)
	ResolveViolation(ctx context.Context, tenantID, id, resolvedBy, notes string, resolvedAt time.Time) error
	CountOpen(ctx context.Context, tenantID, severity string) (int, error)
}

// IncidentStore 事件存储（由 repository.IncidentRepository 实现）
type IncidentStore interface {
	CreateIncident(ctx context.Context, inc *models.Incident) error
	GetIncident(ctx context.Context, tenantID, id string) (*models.Incident, error)
	UpdateIncident(ctx context.Context, inc *models.Incident) error
	ListUnbreachedPastDeadline(ctx context.Context, tenantID string, now time.Time) ([]models.Incident, error)
	MarkSLABreached(ctx context.Context, tenantID, id string, now time.Time) (bool, error)
	BumpEscalation(ctx context.Context, tenantID, id string, now time.Time) (*models.Incident, error)
	CountByStatus(ctx context.Context, tenantID, status string) (int, error)
	CountBreachedOpen(ctx context.Context, tenantID string) (int, error)
}

// TimelineStore 事件时间线存储（由 repository.TimelineRepository 实现）
type TimelineStore interface {
	AppendTimeline(ctx context.Context, entry *models.IncidentTimeline) error
	ListTimeline(ctx context.Context, tenantID, incidentID string) ([]models.IncidentTimeline, error)
}

// LicenseCounter 执照到期统计（由 repository.LicenseRepository 实现）
type LicenseCounter interface {
	CountVerifiedExpiringBy(ctx context.Context, tenantID string, cutoff time.Time) (int, error)
}
