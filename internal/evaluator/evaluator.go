package evaluator

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/masifmuhammad/SecureForce/internal/models"
)

// ShiftSource 班次数据源（便于在单元测试中替换仓库）
type ShiftSource interface {
	ListCompletedInWindow(ctx context.Context, tenantID string, from, to time.Time) ([]models.Shift, error)
	ListStartedSince(ctx context.Context, tenantID string, since time.Time) ([]models.Shift, error)
}

// LicenseSource 执照数据源
type LicenseSource interface {
	ListVerifiedExpiringBy(ctx context.Context, tenantID string, cutoff time.Time) ([]models.GuardLicense, error)
}

// Candidate 单条违规候选（扫描产出，尚未落库）
type Candidate struct {
	UserID      string
	Type        string
	Severity    string
	Description string
	Details     json.RawMessage
	ShiftID     *string
}

// Evaluator 合规规则评估器（Fair Work 合规检查）
type Evaluator struct {
	shifts   ShiftSource
	licenses LicenseSource
	logger   *zap.Logger

	// 规则评估器
	overtime   *OvertimeEvaluator      // 每周超时检查
	rest       *RestPeriodEvaluator    // 班次间休息检查
	fatigue    *FatigueEvaluator       // 疲劳检查（班次时长 + 连续工作天数）
	expiry     *LicenseExpiryEvaluator // 执照到期检查
}

// NewEvaluator 创建评估器
func NewEvaluator(shifts ShiftSource, licenses LicenseSource, logger *zap.Logger) *Evaluator {
	e := &Evaluator{
		shifts:   shifts,
		licenses: licenses,
		logger:   logger,
	}

	// 初始化规则评估器
	e.overtime = NewOvertimeEvaluator(e)
	e.rest = NewRestPeriodEvaluator(e)
	e.fatigue = NewFatigueEvaluator(e)
	e.expiry = NewLicenseExpiryEvaluator(e)

	return e
}

// RunAllChecks 对一个租户执行全部合规检查
// 四项检查并发执行（只读查询，无共享状态），全部完成后合并结果；
// 不做跨规则去重
func (e *Evaluator) RunAllChecks(ctx context.Context, tenantID string, now time.Time) ([]Candidate, error) {
	var overtime, rest, fatigue, expiry []Candidate

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		overtime, err = e.overtime.Evaluate(gctx, tenantID, now)
		return err
	})
	g.Go(func() error {
		var err error
		rest, err = e.rest.Evaluate(gctx, tenantID, now)
		return err
	})
	g.Go(func() error {
		var err error
		fatigue, err = e.fatigue.Evaluate(gctx, tenantID, now)
		return err
	})
	g.Go(func() error {
		var err error
		expiry, err = e.expiry.Evaluate(gctx, tenantID, now)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []Candidate
	candidates = append(candidates, overtime...)
	candidates = append(candidates, rest...)
	candidates = append(candidates, fatigue...)
	candidates = append(candidates, expiry...)

	e.logger.Debug("Compliance checks completed",
		zap.String("tenant_id", tenantID),
		zap.Int("candidates", len(candidates)),
	)

	return candidates, nil
}

// marshalDetails 序列化违规明细
// 明细结构都是纯值字段，序列化失败视为编码错误，记录后返回空明细
func (e *Evaluator) marshalDetails(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		e.logger.Error("Failed to marshal violation details", zap.Error(err))
		return nil
	}
	return data
}
