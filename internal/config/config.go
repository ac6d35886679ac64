package config

import (
	"fmt"
	"os"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 合规与事件服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// 合规扫描配置
	Compliance struct {
		ScanInterval int // 合规扫描间隔（分钟），默认 60分钟
	}

	// 事件 SLA 配置
	Incident struct {
		SweepInterval int // SLA 超时扫描间隔（秒），默认 60秒
	}

	// 延迟任务队列配置
	Queue struct {
		Key          string // 延迟任务 ZSET 键，如 "secureforce:tasks:delayed"
		PollInterval int    // 任务轮询间隔（秒），默认 5秒
	}

	// 领域事件流配置
	Events struct {
		Stream string // Redis Streams 键，如 "secureforce:events"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = 5432
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "secureforce")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	// 扫描周期
	cfg.Compliance.ScanInterval = 60 // 每小时扫描一次
	cfg.Incident.SweepInterval = 60  // 每分钟检查一次 SLA 超时

	// 延迟任务队列
	cfg.Queue.Key = getEnv("QUEUE_KEY", "secureforce:tasks:delayed")
	cfg.Queue.PollInterval = 5 // 5秒轮询一次

	// 领域事件流
	cfg.Events.Stream = getEnv("EVENTS_STREAM", "secureforce:events")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
