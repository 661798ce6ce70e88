package worker

import (
	"context"
	"errors"
	"time"

	"github.com/employer-pool/internal/cache"
	"github.com/employer-pool/internal/config"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/provider"
	"github.com/employer-pool/internal/queue"

	"github.com/hibiken/asynq"
)

const sweepLockKey = "lock:intent_sweep"

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// SweepLoop 周期性清扫滞留 Pending 意图，不依赖队列
type SweepLoop struct {
	consumer *Consumer
	interval time.Duration
}

// NewSweepLoop 创建清扫循环
func NewSweepLoop(consumer *Consumer, interval time.Duration) (*SweepLoop, error) {
	if consumer == nil || consumer.Container == nil || consumer.SweepService == nil {
		return nil, errors.New("sweep service is nil")
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SweepLoop{consumer: consumer, interval: interval}, nil
}

// Name 服务名称
func (l *SweepLoop) Name() string {
	return "intent_sweep"
}

// Start 立即执行一次，之后按间隔执行，直到 ctx 取消
func (l *SweepLoop) Start(ctx context.Context) error {
	if l == nil {
		return errors.New("sweep loop not initialized")
	}
	runOnce := func() {
		if _, err := l.consumer.RunSweep(ctx); err != nil && ctx.Err() == nil {
			logger.Warnw("worker_intent_sweep_loop_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}

// Stop 停止服务
func (l *SweepLoop) Stop(context.Context) error {
	return nil
}

func newSweepLock(c *provider.Container) SweepLock {
	client := cache.Client()
	if client == nil || c == nil {
		return newLocalSweepLock()
	}
	ttl := defaultSweepLockTTL
	if c.Config != nil && c.Config.Reconcile.LockTTLSeconds > 0 {
		ttl = time.Duration(c.Config.Reconcile.LockTTLSeconds) * time.Second
	}
	lock, err := NewRedisSweepLock(client, cache.Key(sweepLockKey), ttl)
	if err != nil {
		logger.Warnw("worker_sweep_lock_fallback_local", "error", err)
		return newLocalSweepLock()
	}
	return lock
}
