package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/config"
	"github.com/masifmuhammad/SecureForce/internal/database"
	"github.com/masifmuhammad/SecureForce/internal/evaluator"
	"github.com/masifmuhammad/SecureForce/internal/events"
	"github.com/masifmuhammad/SecureForce/internal/redisx"
	"github.com/masifmuhammad/SecureForce/internal/repository"
	"github.com/masifmuhammad/SecureForce/internal/scheduler"
)

// ComplianceEngineService 合规与事件引擎服务（整合各层）
type ComplianceEngineService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
	tenantID    string

	// 各层组件
	shiftRepo     *repository.ShiftRepository
	licenseRepo   *repository.LicenseRepository
	violationRepo *repository.ViolationRepository
	incidentRepo  *repository.IncidentRepository
	timelineRepo  *repository.TimelineRepository
	evaluator     *evaluator.Evaluator
	bus           *events.StreamBus
	scheduler     *scheduler.RedisScheduler
	compliance    *ComplianceService
	incidents     *IncidentService
}

// NewComplianceEngineService 创建合规与事件引擎服务
func NewComplianceEngineService(cfg *config.Config, logger *zap.Logger, tenantID string) (*ComplianceEngineService, error) {
	// 1. 连接数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redisx.NewRedisClient(&cfg.Redis)

	ctx := context.Background()
	if err := redisx.Ping(ctx, redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	shiftRepo := repository.NewShiftRepository(db, logger)
	licenseRepo := repository.NewLicenseRepository(db, logger)
	violationRepo := repository.NewViolationRepository(db, logger)
	incidentRepo := repository.NewIncidentRepository(db, logger)
	timelineRepo := repository.NewTimelineRepository(db, logger)

	// 4. 创建 Evaluator 层
	eval := evaluator.NewEvaluator(shiftRepo, licenseRepo, logger)

	// 5. 创建事件总线和延迟任务调度器
	bus := events.NewStreamBus(redisClient, cfg.Events.Stream, logger)
	sched := scheduler.NewRedisScheduler(
		redisClient,
		cfg.Queue.Key,
		time.Duration(cfg.Queue.PollInterval)*time.Second,
		logger,
	)

	// 6. 创建 Service 层
	compliance := NewComplianceService(eval, violationRepo, licenseRepo, bus, logger)
	incidents := NewIncidentService(incidentRepo, timelineRepo, bus, sched, logger)

	s := &ComplianceEngineService{
		config:        cfg,
		db:            db,
		redisClient:   redisClient,
		logger:        logger,
		tenantID:      tenantID,
		shiftRepo:     shiftRepo,
		licenseRepo:   licenseRepo,
		violationRepo: violationRepo,
		incidentRepo:  incidentRepo,
		timelineRepo:  timelineRepo,
		evaluator:     eval,
		bus:           bus,
		scheduler:     sched,
		compliance:    compliance,
		incidents:     incidents,
	}

	// 7. 注册延迟任务处理器
	sched.Register(scheduler.TaskCheckEscalation, incidents.HandleEscalationCheck)
	sched.Register(scheduler.TaskComplianceScan, s.handleComplianceScan)
	sched.Register(scheduler.TaskSLABreachScan, s.handleSLABreachScan)

	return s, nil
}

// Compliance 合规扫描服务
func (s *ComplianceEngineService) Compliance() *ComplianceService {
	return s.compliance
}

// Incidents 事件生命周期服务
func (s *ComplianceEngineService) Incidents() *IncidentService {
	return s.incidents
}

// Start 启动服务（阻塞直到 ctx 取消）
// 三个循环：延迟任务轮询、周期性合规扫描、周期性 SLA 违约扫描
func (s *ComplianceEngineService) Start(ctx context.Context) error {
	s.logger.Info("Starting compliance engine service",
		zap.String("tenant_id", s.tenantID),
		zap.Int("scan_interval_minutes", s.config.Compliance.ScanInterval),
		zap.Int("sweep_interval_seconds", s.config.Incident.SweepInterval),
	)

	go s.scheduler.Start(ctx)
	go s.runComplianceScanLoop(ctx)
	go s.runSLASweepLoop(ctx)

	<-ctx.Done()
	return nil
}

// Stop 停止服务
func (s *ComplianceEngineService) Stop() error {
	s.logger.Info("Stopping compliance engine service")

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := redisx.Close(s.redisClient); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// runComplianceScanLoop 周期性合规扫描循环
func (s *ComplianceEngineService) runComplianceScanLoop(ctx context.Context) {
	interval := time.Duration(s.config.Compliance.ScanInterval) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := s.compliance.RunComplianceScan(ctx, s.tenantID); err != nil {
				s.logger.Error("Compliance scan failed",
					zap.String("tenant_id", s.tenantID),
					zap.Error(err),
				)
			}
		}
	}
}

// runSLASweepLoop 周期性 SLA 违约扫描循环
func (s *ComplianceEngineService) runSLASweepLoop(ctx context.Context) {
	interval := time.Duration(s.config.Incident.SweepInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.incidents.CheckSLABreaches(ctx, s.tenantID); err != nil {
				s.logger.Error("SLA breach scan failed",
					zap.String("tenant_id", s.tenantID),
					zap.Error(err),
				)
			}
		}
	}
}

// handleComplianceScan compliance-scan 延迟任务处理器（调度器触发的一次性扫描）
func (s *ComplianceEngineService) handleComplianceScan(ctx context.Context, payload json.RawMessage) error {
	tenantID := s.tenantID
	if len(payload) > 0 {
		var p struct {
			TenantID string `json:"tenantId"`
		}
		if err := json.Unmarshal(payload, &p); err == nil && p.TenantID != "" {
			tenantID = p.TenantID
		}
	}

	_, _, err := s.compliance.RunComplianceScan(ctx, tenantID)
	return err
}

// handleSLABreachScan sla-breach-scan 延迟任务处理器
func (s *ComplianceEngineService) handleSLABreachScan(ctx context.Context, payload json.RawMessage) error {
	tenantID := s.tenantID
	if len(payload) > 0 {
		var p struct {
			TenantID string `json:"tenantId"`
		}
		if err := json.Unmarshal(payload, &p); err == nil && p.TenantID != "" {
			tenantID = p.TenantID
		}
	}

	_, err := s.incidents.CheckSLABreaches(ctx, tenantID)
	return err
}
