package cache

import (
	"context"
	"time"

	"github.com/blues/fundchainx/internal/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fundchainx:throttle:"

// NewRedis 根据配置创建客户端，并检查连接
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Throttle 同一 key 在窗口期内只放行一次
type Throttle struct {
	client *redis.Client
	window time.Duration
}

func NewThrottle(client *redis.Client, window time.Duration) *Throttle {
	return &Throttle{client: client, window: window}
}

// Allow 窗口期内首次调用返回 true
func (t *Throttle) Allow(ctx context.Context, key string) (bool, error) {
	return t.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), t.window).Result()
}

// NoopThrottle 未配置 redis 时使用，始终放行
type NoopThrottle struct{}

func (NoopThrottle) Allow(context.Context, string) (bool, error) { return true, nil }
