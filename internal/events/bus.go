package events

import (
	"context"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/masifmuhammad/SecureForce/internal/redisx"
)

// Bus 领域事件总线
// 事件发布是尽力而为：发布失败只记录日志，不阻断业务流程
type Bus interface {
	Emit(ctx context.Context, event string, payload interface{})
}

// StreamBus 基于 Redis Streams 的事件总线实现
type StreamBus struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamBus 创建事件总线
func NewStreamBus(client *redis.Client, stream string, logger *zap.Logger) *StreamBus {
	return &StreamBus{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Emit 发布领域事件到 Redis Streams
func (b *StreamBus) Emit(ctx context.Context, event string, payload interface{}) {
	id, err := redisx.PublishJSONToStream(ctx, b.client, b.stream, event, payload)
	if err != nil {
		b.logger.Error("Failed to publish event",
			zap.String("event", event),
			zap.String("stream", b.stream),
			zap.Error(err),
		)
		return
	}

	b.logger.Debug("Event published",
		zap.String("event", event),
		zap.String("message_id", id),
	)
}
