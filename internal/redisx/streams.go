package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// PublishToStream 发布消息到 Redis Streams
func PublishToStream(ctx context.Context, client *redis.Client, stream string, values map[string]interface{}) (string, error) {
	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
}

// PublishJSONToStream 发布 JSON 消息到 Redis Streams
// 消息格式: {event: <事件名>, data: <JSON载荷>, timestamp: <Unix秒>}
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, event string, data interface{}) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return PublishToStream(ctx, client, stream, map[string]interface{}{
		"event":     event,
		"data":      string(jsonBytes),
		"timestamp": time.Now().Unix(),
	})
}
