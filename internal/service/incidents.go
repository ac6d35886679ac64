package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/events"
	"github.com/masifmuhammad/SecureForce/internal/models"
	"github.com/masifmuhammad/SecureForce/internal/scheduler"
)

// IncidentService 事件生命周期服务
// 每次变更同步追加一条时间线记录；SLA 截止时间创建时固定，之后不重算
type IncidentService struct {
	incidents IncidentStore
	timeline  TimelineStore
	bus       events.Bus
	scheduler scheduler.Scheduler
	logger    *zap.Logger

	nowFn func() time.Time
}

// NewIncidentService 创建事件服务
func NewIncidentService(incidents IncidentStore, timeline TimelineStore, bus events.Bus, sched scheduler.Scheduler, logger *zap.Logger) *IncidentService {
	return &IncidentService{
		incidents: incidents,
		timeline:  timeline,
		bus:       bus,
		scheduler: sched,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// CreateIncidentInput 创建事件入参
type CreateIncidentInput struct {
	ReportedByID string
	LocationID   string
	ShiftID      *string
	Title        string
	Description  string
	Severity     string // 为空或非法值时默认 medium
	AssignedToID *string
}

// EscalationCheckPayload check-escalation 延迟任务载荷
type EscalationCheckPayload struct {
	TenantID   string `json:"tenantId"`
	IncidentID string `json:"incidentId"`
}

// Create 创建事件
// SLA 截止时间 = 创建时间 + 按严重级别的响应时限；
// 有自动升级延迟的级别同时调度一次性 check-escalation 任务，
// 调度失败只记日志（事件仍会被周期性 SLA 扫描兜底）
func (s *IncidentService) Create(ctx context.Context, tenantID string, input CreateIncidentInput) (*models.Incident, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	severity := input.Severity
	policy, ok := models.SLADefaults[severity]
	if !ok {
		severity = models.IncidentMedium
		policy = models.SLADefaults[severity]
	}

	now := s.nowFn()
	inc := &models.Incident{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		ReportedByID: input.ReportedByID,
		LocationID:   input.LocationID,
		ShiftID:      input.ShiftID,
		Title:        input.Title,
		Description:  input.Description,
		Severity:     severity,
		Status:       models.IncidentOpen,
		SLADeadline:  now.Add(time.Duration(policy.ResponseMinutes) * time.Minute),
		AssignedToID: input.AssignedToID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.incidents.CreateIncident(ctx, inc); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	s.appendTimeline(ctx, &models.IncidentTimeline{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		IncidentID: inc.ID,
		UserID:     &input.ReportedByID,
		Action:     models.TimelineCreated,
		Comment:    "Incident reported",
		Timestamp:  now,
	})

	if policy.AutoEscalateMinutes > 0 {
		delay := time.Duration(policy.AutoEscalateMinutes) * time.Minute
		err := s.scheduler.Schedule(ctx, scheduler.TaskCheckEscalation, EscalationCheckPayload{
			TenantID:   tenantID,
			IncidentID: inc.ID,
		}, delay)
		if err != nil {
			s.logger.Error("Failed to schedule escalation check",
				zap.String("incident_id", inc.ID),
				zap.Error(err),
			)
		}
	}

	s.bus.Emit(ctx, events.EventIncidentCreated, events.IncidentCreatedPayload{
		TenantID:     tenantID,
		IncidentID:   inc.ID,
		Severity:     inc.Severity,
		Category:     inc.Title,
		ReportedByID: inc.ReportedByID,
	})

	s.logger.Info("Incident created",
		zap.String("tenant_id", tenantID),
		zap.String("incident_id", inc.ID),
		zap.String("severity", inc.Severity),
		zap.Time("sla_deadline", inc.SLADeadline),
	)

	return inc, nil
}

// Acknowledge 确认事件（首次响应）
func (s *IncidentService) Acknowledge(ctx context.Context, tenantID, id, userID string) (*models.Incident, error) {
	inc, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	inc.AcknowledgedAt = &now
	inc.Status = models.IncidentInvestigating
	inc.UpdatedAt = now

	if err := s.incidents.UpdateIncident(ctx, inc); err != nil {
		return nil, fmt.Errorf("acknowledge incident: %w", err)
	}

	s.appendTimeline(ctx, &models.IncidentTimeline{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		IncidentID: id,
		UserID:     &userID,
		Action:     models.TimelineAcknowledged,
		Comment:    "Incident acknowledged",
		Timestamp:  now,
	})

	return inc, nil
}

// Assign 指派处理人
func (s *IncidentService) Assign(ctx context.Context, tenantID, id, assigneeID, actorID string) (*models.Incident, error) {
	inc, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	inc.AssignedToID = &assigneeID
	inc.UpdatedAt = now

	if err := s.incidents.UpdateIncident(ctx, inc); err != nil {
		return nil, fmt.Errorf("assign incident: %w", err)
	}

	s.appendTimeline(ctx, &models.IncidentTimeline{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		IncidentID: id,
		UserID:     &actorID,
		Action:     models.TimelineAssigned,
		Comment:    fmt.Sprintf("Assigned to %s", assigneeID),
		Timestamp:  now,
	})

	return inc, nil
}

// validStatuses 可流转的目标状态
var validStatuses = map[string]bool{
	models.IncidentOpen:          true,
	models.IncidentInvestigating: true,
	models.IncidentEscalated:     true,
	models.IncidentResolved:      true,
	models.IncidentClosed:        true,
}

// UpdateStatus 更新事件状态
// 关闭仅允许从 resolved 流转，否则返回 ErrInvalidTransition
func (s *IncidentService) UpdateStatus(ctx context.Context, tenantID, id, newStatus, comment, userID string) (*models.Incident, error) {
	if !validStatuses[newStatus] {
		return nil, fmt.Errorf("status %q: %w", newStatus, ErrInvalidTransition)
	}

	inc, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if newStatus == models.IncidentClosed && inc.Status != models.IncidentResolved {
		return nil, fmt.Errorf("close from %q: %w", inc.Status, ErrInvalidTransition)
	}

	now := s.nowFn()
	previousStatus := inc.Status
	inc.Status = newStatus
	inc.UpdatedAt = now

	switch newStatus {
	case models.IncidentResolved:
		inc.ResolvedAt = &now
	case models.IncidentClosed:
		inc.ClosedAt = &now
	}

	if err := s.incidents.UpdateIncident(ctx, inc); err != nil {
		return nil, fmt.Errorf("update incident status: %w", err)
	}

	metadata, _ := json.Marshal(models.StatusChangeMetadata{
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
	})

	s.appendTimeline(ctx, &models.IncidentTimeline{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		IncidentID: id,
		UserID:     &userID,
		Action:     models.TimelineStatusChanged,
		Comment:    comment,
		Metadata:   metadata,
		Timestamp:  now,
	})

	return inc, nil
}

// Escalate 升级事件
// 级别 +1 封顶 3，状态置为 escalated，发布 incident.escalated 事件
func (s *IncidentService) Escalate(ctx context.Context, tenantID, id, reason string) (*models.Incident, error) {
	now := s.nowFn()

	inc, err := s.incidents.BumpEscalation(ctx, tenantID, id, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("incident %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("escalate incident: %w", err)
	}

	comment := fmt.Sprintf("Escalated to level %d", inc.EscalationLevel)
	if reason != "" {
		comment = fmt.Sprintf("%s: %s", comment, reason)
	}

	s.appendTimeline(ctx, &models.IncidentTimeline{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		IncidentID: id,
		Action:     models.TimelineEscalated,
		Comment:    comment,
		Timestamp:  now,
	})

	s.bus.Emit(ctx, events.EventIncidentEscalated, events.IncidentEscalatedPayload{
		TenantID:        tenantID,
		IncidentID:      id,
		EscalationLevel: inc.EscalationLevel,
		AssignedToID:    inc.AssignedToID,
	})

	s.logger.Info("Incident escalated",
		zap.String("tenant_id", tenantID),
		zap.String("incident_id", id),
		zap.Int("escalation_level", inc.EscalationLevel),
	)

	return inc, nil
}

// AddNote 追加备注（只写时间线，不改事件字段）
func (s *IncidentService) AddNote(ctx context.Context, tenantID, id, userID, comment string) error {
	if _, err := s.get(ctx, tenantID, id); err != nil {
		return err
	}

	entry := &models.IncidentTimeline{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		IncidentID: id,
		UserID:     &userID,
		Action:     models.TimelineNoteAdded,
		Comment:    comment,
		Timestamp:  s.nowFn(),
	}

	if err := s.timeline.AppendTimeline(ctx, entry); err != nil {
		return fmt.Errorf("add note: %w", err)
	}

	return nil
}

// IncidentDetail 事件详情（含时间线）
type IncidentDetail struct {
	Incident *models.Incident          `json:"incident"`
	Timeline []models.IncidentTimeline `json:"timeline"`
}

// Get 查询事件详情
func (s *IncidentService) Get(ctx context.Context, tenantID, id string) (*IncidentDetail, error) {
	inc, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	timeline, err := s.timeline.ListTimeline(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get incident timeline: %w", err)
	}

	return &IncidentDetail{Incident: inc, Timeline: timeline}, nil
}

// IncidentStats 事件仪表盘统计
type IncidentStats struct {
	Open          int `json:"open"`
	Investigating int `json:"investigating"`
	Escalated     int `json:"escalated"`
	Resolved      int `json:"resolved"`
	BreachedOpen  int `json:"breachedOpen"`
}

// GetStats 查询事件统计
func (s *IncidentService) GetStats(ctx context.Context, tenantID string) (*IncidentStats, error) {
	stats := &IncidentStats{}

	var err error
	if stats.Open, err = s.incidents.CountByStatus(ctx, tenantID, models.IncidentOpen); err != nil {
		return nil, fmt.Errorf("incident stats: %w", err)
	}
	if stats.Investigating, err = s.incidents.CountByStatus(ctx, tenantID, models.IncidentInvestigating); err != nil {
		return nil, fmt.Errorf("incident stats: %w", err)
	}
	if stats.Escalated, err = s.incidents.CountByStatus(ctx, tenantID, models.IncidentEscalated); err != nil {
		return nil, fmt.Errorf("incident stats: %w", err)
	}
	if stats.Resolved, err = s.incidents.CountByStatus(ctx, tenantID, models.IncidentResolved); err != nil {
		return nil, fmt.Errorf("incident stats: %w", err)
	}
	if stats.BreachedOpen, err = s.incidents.CountBreachedOpen(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("incident stats: %w", err)
	}

	return stats, nil
}

// HandleEscalationCheck 一次性升级检查任务处理器
// 创建后到点触发：仍未确认且状态为 open 才升级，否则空操作。
// 只检查这一次，不重试
func (s *IncidentService) HandleEscalationCheck(ctx context.Context, payload json.RawMessage) error {
	var p EscalationCheckPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode escalation check payload: %w", err)
	}

	inc, err := s.get(ctx, p.TenantID, p.IncidentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// 事件已删除，任务作废
			s.logger.Warn("Escalation check for missing incident",
				zap.String("incident_id", p.IncidentID),
			)
			return nil
		}
		return err
	}

	if inc.AcknowledgedAt != nil || inc.Status != models.IncidentOpen {
		s.logger.Debug("Escalation check no-op",
			zap.String("incident_id", p.IncidentID),
			zap.String("status", inc.Status),
		)
		return nil
	}

	_, err = s.Escalate(ctx, p.TenantID, p.IncidentID, "not acknowledged within SLA window")
	return err
}

// CheckSLABreaches 对一个租户执行 SLA 违约扫描
// 条件更新保证同一事件跨并发扫描只被标记一次（输家跳过），
// 单条失败只跳过该条；返回本次新标记违约的事件
func (s *IncidentService) CheckSLABreaches(ctx context.Context, tenantID string) ([]models.Incident, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	now := s.nowFn()

	candidates, err := s.incidents.ListUnbreachedPastDeadline(ctx, tenantID, now)
	if err != nil {
		return nil, fmt.Errorf("sla breach scan: %w", err)
	}

	var breached []models.Incident
	for _, inc := range candidates {
		won, err := s.incidents.MarkSLABreached(ctx, tenantID, inc.ID, now)
		if err != nil {
			s.logger.Error("Failed to mark sla breach, skipping",
				zap.String("incident_id", inc.ID),
				zap.Error(err),
			)
			continue
		}
		if !won {
			// 已被其他扫描实例标记
			continue
		}

		s.appendTimeline(ctx, &models.IncidentTimeline{
			ID:         uuid.New().String(),
			TenantID:   tenantID,
			IncidentID: inc.ID,
			Action:     models.TimelineSLABreached,
			Comment:    "SLA response deadline missed",
			Timestamp:  now,
		})

		s.bus.Emit(ctx, events.EventIncidentSLABreach, events.SLABreachPayload{
			TenantID:   tenantID,
			IncidentID: inc.ID,
			Severity:   inc.Severity,
		})

		escalated, err := s.Escalate(ctx, tenantID, inc.ID, "SLA breached")
		if err != nil {
			s.logger.Error("Failed to escalate breached incident",
				zap.String("incident_id", inc.ID),
				zap.Error(err),
			)
			continue
		}

		escalated.SLABreached = true
		breached = append(breached, *escalated)
	}

	if len(breached) > 0 {
		s.logger.Info("SLA breach scan completed",
			zap.String("tenant_id", tenantID),
			zap.Int("breached", len(breached)),
		)
	}

	return breached, nil
}

// get 读取事件并把 sql.ErrNoRows 映射为 ErrNotFound
func (s *IncidentService) get(ctx context.Context, tenantID, id string) (*models.Incident, error) {
	inc, err := s.incidents.GetIncident(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("incident %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return inc, nil
}

// appendTimeline 追加时间线记录，失败只记日志（审计缺口不阻断业务变更）
func (s *IncidentService) appendTimeline(ctx context.Context, entry *models.IncidentTimeline) {
	if err := s.timeline.AppendTimeline(ctx, entry); err != nil {
		s.logger.Error("Failed to append timeline entry",
			zap.String("incident_id", entry.IncidentID),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}
