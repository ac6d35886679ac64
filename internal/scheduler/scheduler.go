package scheduler

import (
	"context"
	"encoding/json"
	"time"
)

// 延迟任务名
const (
	TaskCheckEscalation = "check-escalation"
	TaskComplianceScan  = "compliance-scan"
	TaskSLABreachScan   = "sla-breach-scan"
)

// Task 延迟任务
type Task struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	FireAt  time.Time       `json:"fireAt"`
}

// Handler 任务处理函数
type Handler func(ctx context.Context, payload json.RawMessage) error

// Scheduler 延迟任务调度器
type Scheduler interface {
	Schedule(ctx context.Context, name string, payload interface{}, delay time.Duration) error
}
