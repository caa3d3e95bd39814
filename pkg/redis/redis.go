package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Joy2225/timetable/config"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("缓存未命中")

// Client Redis 客户端封装
// 用于挂件快照缓存、接口限流与刷新任务的分布式锁
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 挂件快照 ──

const snapshotPrefix = "timetable:widget:snapshot:"

// GetSnapshot 读取挂件渲染快照，未命中返回 ErrCacheMiss
func (c *Client) GetSnapshot(ctx context.Context, widgetID string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, snapshotPrefix+widgetID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

// SetSnapshot 写入挂件渲染快照；ttl<=0 时不写入
func (c *Client) SetSnapshot(ctx context.Context, widgetID string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, snapshotPrefix+widgetID, payload, ttl).Err()
}

// DeleteSnapshot 删除挂件快照
func (c *Client) DeleteSnapshot(ctx context.Context, widgetIDs ...string) error {
	if len(widgetIDs) == 0 {
		return nil
	}
	keys := make([]string, len(widgetIDs))
	for i, id := range widgetIDs {
		keys[i] = snapshotPrefix + id
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// ── 限流 ──

const rateLimitPrefix = "timetable:ratelimit:"

// 清理窗口外记录、计数、按需写入在同一脚本内完成，并发请求不会同时越过阈值
// KEYS[1]=限流键 ARGV: 1=当前毫秒 2=窗口起点毫秒 3=limit 4=成员 5=窗口毫秒
var rateLimitScript = goredis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[2])
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return 1
`)

// CheckRateLimit 滑动窗口限流
// 返回 true 表示允许通过；窗口内请求数达到 limit 时返回 false
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	allowed, err := rateLimitScript.Run(ctx, c.rdb, []string{rateLimitPrefix + key},
		now.UnixMilli(),
		now.Add(-window).UnixMilli(),
		limit,
		uuid.NewString(),
		window.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// ── 分布式锁 ──

const lockPrefix = "timetable:lock:"

// 仅当值匹配时删除，避免释放他人持有的锁
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock 尝试获取锁，成功时返回持有令牌
func (c *Client) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, string, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockPrefix+name, token, ttl).Result()
	if err != nil || !ok {
		return false, "", err
	}
	return true, token, nil
}

// Unlock 释放锁
func (c *Client) Unlock(ctx context.Context, name, token string) error {
	return unlockScript.Run(ctx, c.rdb, []string{lockPrefix + name}, token).Err()
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
