package scheduler

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var schedTestNow = time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)

func setupScheduler(t *testing.T) *RedisScheduler {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewRedisScheduler(client, "test:tasks:delayed", 5*time.Second, zap.NewNop())
	s.nowFn = func() time.Time { return schedTestNow }
	return s
}

func TestScheduler_DueTaskDispatched(t *testing.T) {
	s := setupScheduler(t)
	ctx := context.Background()

	var got json.RawMessage
	s.Register(TaskCheckEscalation, func(ctx context.Context, payload json.RawMessage) error {
		got = payload
		return nil
	})

	require.NoError(t, s.Schedule(ctx, TaskCheckEscalation, map[string]string{"incidentId": "inc-1"}, 10*time.Minute))

	// 未到期时不执行
	require.NoError(t, s.RunDue(ctx))
	assert.Nil(t, got)

	// 时间推进到触发点之后
	s.nowFn = func() time.Time { return schedTestNow.Add(11 * time.Minute) }
	require.NoError(t, s.RunDue(ctx))

	require.NotNil(t, got)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(got, &payload))
	assert.Equal(t, "inc-1", payload["incidentId"])
}

func TestScheduler_TaskRunsOnce(t *testing.T) {
	s := setupScheduler(t)
	ctx := context.Background()

	var calls int32
	s.Register(TaskComplianceScan, func(ctx context.Context, payload json.RawMessage) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.NoError(t, s.Schedule(ctx, TaskComplianceScan, nil, time.Minute))

	s.nowFn = func() time.Time { return schedTestNow.Add(2 * time.Minute) }
	require.NoError(t, s.RunDue(ctx))
	require.NoError(t, s.RunDue(ctx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestScheduler_MultipleDueTasks_AllDispatched(t *testing.T) {
	s := setupScheduler(t)
	ctx := context.Background()

	var calls int32
	handler := func(ctx context.Context, payload json.RawMessage) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	s.Register(TaskCheckEscalation, handler)
	s.Register(TaskSLABreachScan, handler)

	require.NoError(t, s.Schedule(ctx, TaskCheckEscalation, map[string]string{"incidentId": "inc-1"}, time.Minute))
	require.NoError(t, s.Schedule(ctx, TaskCheckEscalation, map[string]string{"incidentId": "inc-2"}, 2*time.Minute))
	require.NoError(t, s.Schedule(ctx, TaskSLABreachScan, nil, 3*time.Minute))

	s.nowFn = func() time.Time { return schedTestNow.Add(5 * time.Minute) }
	require.NoError(t, s.RunDue(ctx))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestScheduler_UnregisteredTask_Skipped(t *testing.T) {
	s := setupScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Schedule(ctx, "unknown-task", nil, time.Minute))

	s.nowFn = func() time.Time { return schedTestNow.Add(2 * time.Minute) }
	// 没有处理器也不报错，任务被丢弃
	require.NoError(t, s.RunDue(ctx))
}

func TestScheduler_HandlerError_DoesNotBlockOthers(t *testing.T) {
	s := setupScheduler(t)
	ctx := context.Background()

	var okCalls int32
	s.Register(TaskCheckEscalation, func(ctx context.Context, payload json.RawMessage) error {
		return assert.AnError
	})
	s.Register(TaskSLABreachScan, func(ctx context.Context, payload json.RawMessage) error {
		atomic.AddInt32(&okCalls, 1)
		return nil
	})

	require.NoError(t, s.Schedule(ctx, TaskCheckEscalation, nil, time.Minute))
	require.NoError(t, s.Schedule(ctx, TaskSLABreachScan, nil, 2*time.Minute))

	s.nowFn = func() time.Time { return schedTestNow.Add(5 * time.Minute) }
	require.NoError(t, s.RunDue(ctx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&okCalls))
}
