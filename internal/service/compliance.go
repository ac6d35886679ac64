package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/evaluator"
	"github.com/masifmuhammad/SecureForce/internal/events"
	"github.com/masifmuhammad/SecureForce/internal/models"
	"github.com/masifmuhammad/SecureForce/internal/repository"
)

// ComplianceService 合规扫描服务
// 扫描 = 规则评估 + 逐条落库 + 逐条发事件；
// 单条落库失败只跳过该条，不中断整批（重跑最多产生重复违规，不会损坏数据）
type ComplianceService struct {
	evaluator  *evaluator.Evaluator
	violations ViolationStore
	licenses   LicenseCounter
	bus        events.Bus
	logger     *zap.Logger

	nowFn func() time.Time
}

// NewComplianceService 创建合规扫描服务
func NewComplianceService(eval *evaluator.Evaluator, violations ViolationStore, licenses LicenseCounter, bus events.Bus, logger *zap.Logger) *ComplianceService {
	return &ComplianceService{
		evaluator:  eval,
		violations: violations,
		licenses:   licenses,
		bus:        bus,
		logger:     logger,
		nowFn:      time.Now,
	}
}

// RunComplianceScan 对一个租户执行合规扫描
// 返回成功落库的违规条数和记录
func (s *ComplianceService) RunComplianceScan(ctx context.Context, tenantID string) (int, []models.ComplianceViolation, error) {
	if tenantID == "" {
		return 0, nil, fmt.Errorf("tenant_id is required")
	}

	now := s.nowFn()

	candidates, err := s.evaluator.RunAllChecks(ctx, tenantID, now)
	if err != nil {
		return 0, nil, fmt.Errorf("compliance scan: %w", err)
	}

	saved := make([]models.ComplianceViolation, 0, len(candidates))
	for _, c := range candidates {
		violation := models.ComplianceViolation{
			ID:          uuid.New().String(),
			TenantID:    tenantID,
			UserID:      c.UserID,
			Type:        c.Type,
			Severity:    c.Severity,
			Description: c.Description,
			Details:     c.Details,
			ShiftID:     c.ShiftID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.violations.CreateViolation(ctx, &violation); err != nil {
			s.logger.Error("Failed to save violation, skipping",
				zap.String("tenant_id", tenantID),
				zap.String("user_id", c.UserID),
				zap.String("type", c.Type),
				zap.Error(err),
			)
			continue
		}

		saved = append(saved, violation)

		s.bus.Emit(ctx, events.EventViolationDetected, events.ViolationDetectedPayload{
			TenantID:    tenantID,
			ViolationID: violation.ID,
			UserID:      violation.UserID,
			Type:        violation.Type,
			Severity:    violation.Severity,
		})
	}

	s.logger.Info("Compliance scan completed",
		zap.String("tenant_id", tenantID),
		zap.Int("candidates", len(candidates)),
		zap.Int("saved", len(saved)),
	)

	return len(saved), saved, nil
}

// GetViolations 查询违规列表
func (s *ComplianceService) GetViolations(ctx context.Context, tenantID string, filters repository.ViolationFilters) ([]models.ComplianceViolation, error) {
	return s.violations.ListViolations(ctx, tenantID, filters)
}

// GetViolation 查询单条违规
func (s *ComplianceService) GetViolation(ctx context.Context, tenantID, id string) (*models.ComplianceViolation, error) {
	v, err := s.violations.GetViolation(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("violation %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return v, nil
}

// ResolveViolation 人工标记违规已解决
func (s *ComplianceService) ResolveViolation(ctx context.Context, tenantID, id, resolvedBy, notes string) error {
	err := s.violations.ResolveViolation(ctx, tenantID, id, resolvedBy, notes, s.nowFn())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("violation %s: %w", id, ErrNotFound)
		}
		return err
	}

	s.logger.Info("Violation resolved",
		zap.String("tenant_id", tenantID),
		zap.String("violation_id", id),
		zap.String("resolved_by", resolvedBy),
	)

	return nil
}

// ComplianceStats 合规仪表盘统计
type ComplianceStats struct {
	OpenWarnings         int `json:"openWarnings"`
	OpenViolations       int `json:"openViolations"`
	OpenCritical         int `json:"openCritical"`
	LicensesExpiringSoon int `json:"licensesExpiringSoon"` // 30 天内到期
}

// GetComplianceStats 查询合规统计
func (s *ComplianceService) GetComplianceStats(ctx context.Context, tenantID string) (*ComplianceStats, error) {
	stats := &ComplianceStats{}

	var err error
	if stats.OpenWarnings, err = s.violations.CountOpen(ctx, tenantID, models.SeverityWarning); err != nil {
		return nil, fmt.Errorf("compliance stats: %w", err)
	}
	if stats.OpenViolations, err = s.violations.CountOpen(ctx, tenantID, models.SeverityViolation); err != nil {
		return nil, fmt.Errorf("compliance stats: %w", err)
	}
	if stats.OpenCritical, err = s.violations.CountOpen(ctx, tenantID, models.SeverityCritical); err != nil {
		return nil, fmt.Errorf("compliance stats: %w", err)
	}

	cutoff := s.nowFn().Add(30 * 24 * time.Hour)
	if stats.LicensesExpiringSoon, err = s.licenses.CountVerifiedExpiringBy(ctx, tenantID, cutoff); err != nil {
		return nil, fmt.Errorf("compliance stats: %w", err)
	}

	return stats, nil
}
