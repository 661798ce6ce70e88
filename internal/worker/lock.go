package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSweepLockTTL = 4 * time.Minute

// SweepLock 多实例部署时保证同一时刻只有一个清扫循环在执行。
// Acquire 返回持有令牌，Release 只释放该令牌对应的锁。
type SweepLock interface {
	Acquire(ctx context.Context) (string, bool, error)
	Release(ctx context.Context, token string) error
}

// 仅当持有者仍为自己时删除
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSweepLock 基于 SETNX + TTL 的分布式锁
type RedisSweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSweepLock 创建 Redis 清扫锁
func NewRedisSweepLock(client *redis.Client, key string, ttl time.Duration) (*RedisSweepLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for sweep lock")
	}
	if key == "" {
		return nil, errors.New("sweep lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultSweepLockTTL
	}
	return &RedisSweepLock{client: client, key: key, ttl: ttl}, nil
}

// Acquire 尝试获取锁
func (l *RedisSweepLock) Acquire(ctx context.Context) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release 释放锁；锁已过期并被其他持有者获取时不做任何事
func (l *RedisSweepLock) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseLockScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release sweep lock: %w", err)
	}
	return nil
}

// localSweepLock 单实例部署（未启用 Redis）使用的进程内锁
type localSweepLock struct {
	mu    sync.Mutex
	token string
}

func newLocalSweepLock() *localSweepLock {
	return &localSweepLock{}
}

func (l *localSweepLock) Acquire(context.Context) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.token != "" {
		return "", false, nil
	}
	l.token = uuid.NewString()
	return l.token, true, nil
}

func (l *localSweepLock) Release(_ context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != "" && token == l.token {
		l.token = ""
	}
	return nil
}
