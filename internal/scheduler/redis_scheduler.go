package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedisScheduler 基于 Redis ZSET 的延迟任务调度器
// 任务以 JSON 作为 member、触发时间（Unix 毫秒）作为 score 写入 ZSET；
// 轮询协程按 score 取出到期任务，ZRem 成功者获得执行权（多实例下每个任务只执行一次）
type RedisScheduler struct {
	client *redis.Client
	key    string
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	pollInterval time.Duration
	nowFn        func() time.Time
}

// NewRedisScheduler 创建调度器
func NewRedisScheduler(client *redis.Client, key string, pollInterval time.Duration, logger *zap.Logger) *RedisScheduler {
	return &RedisScheduler{
		client:       client,
		key:          key,
		logger:       logger,
		handlers:     make(map[string]Handler),
		pollInterval: pollInterval,
		nowFn:        time.Now,
	}
}

// Register 注册任务处理器
func (s *RedisScheduler) Register(name string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = handler
}

// Schedule 调度一个延迟任务
func (s *RedisScheduler) Schedule(ctx context.Context, name string, payload interface{}, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}

	task := Task{
		ID:      uuid.New().String(),
		Name:    name,
		Payload: data,
		FireAt:  s.nowFn().Add(delay),
	}

	member, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	err = s.client.ZAdd(ctx, s.key, &redis.Z{
		Score:  float64(task.FireAt.UnixMilli()),
		Member: string(member),
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	s.logger.Debug("Task scheduled",
		zap.String("task_id", task.ID),
		zap.String("task_name", name),
		zap.Time("fire_at", task.FireAt),
	)

	return nil
}

// Start 启动轮询循环，阻塞直到 ctx 取消
func (s *RedisScheduler) Start(ctx context.Context) {
	s.logger.Info("Scheduler started",
		zap.String("queue_key", s.key),
		zap.Duration("poll_interval", s.pollInterval),
	)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunDue(ctx); err != nil {
				s.logger.Error("Failed to run due tasks", zap.Error(err))
			}
		}
	}
}

// RunDue 执行所有已到期的任务
// ZRem 返回 0 表示任务已被其他实例取走，跳过即可
func (s *RedisScheduler) RunDue(ctx context.Context) error {
	now := s.nowFn()

	members, err := s.client.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("query due tasks: %w", err)
	}

	for _, member := range members {
		removed, err := s.client.ZRem(ctx, s.key, member).Result()
		if err != nil {
			return fmt.Errorf("claim task: %w", err)
		}
		if removed == 0 {
			continue
		}

		var task Task
		if err := json.Unmarshal([]byte(member), &task); err != nil {
			s.logger.Error("Failed to decode task, dropping", zap.Error(err))
			continue
		}

		s.dispatch(ctx, task)
	}

	return nil
}

// dispatch 调用任务处理器，处理失败只记录日志
func (s *RedisScheduler) dispatch(ctx context.Context, task Task) {
	s.mu.RLock()
	handler, ok := s.handlers[task.Name]
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("No handler registered for task",
			zap.String("task_name", task.Name),
			zap.String("task_id", task.ID),
		)
		return
	}

	if err := handler(ctx, task.Payload); err != nil {
		s.logger.Error("Task handler failed",
			zap.String("task_name", task.Name),
			zap.String("task_id", task.ID),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("Task completed",
		zap.String("task_name", task.Name),
		zap.String("task_id", task.ID),
	)
}
