package worker

import (
	"context"
	"errors"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/provider"
	"github.com/employer-pool/internal/queue"
	"github.com/employer-pool/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	jobIntentStatusCheck = "intent_status_check"
	jobIntentSweep       = "intent_sweep"

	// maxStatusCheckAttempts 超过后不再排队，由周期清扫兜底
	maxStatusCheckAttempts = 6
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	lock SweepLock
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
		lock:      newSweepLock(c),
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskIntentStatusCheck, c.handleIntentStatusCheck)
	mux.HandleFunc(queue.TaskIntentSweep, c.handleIntentSweep)
}

func (c *Consumer) handleIntentStatusCheck(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	payload, err := queue.ParseIntentStatusCheckPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_intent_status_check_unmarshal_failed", "error", err)
		return err
	}
	if payload.IntentID == "" {
		logger.Debugw("worker_intent_status_check_skip_invalid_payload")
		c.JobMetrics.IncSkipped(jobIntentStatusCheck)
		return nil
	}
	return c.checkIntent(ctx, payload)
}

func (c *Consumer) checkIntent(ctx context.Context, payload queue.IntentStatusCheckPayload) error {
	start := time.Now()
	defer func() { c.JobMetrics.ObserveDuration(jobIntentStatusCheck, time.Since(start)) }()
	log := logger.SW("intent_id", payload.IntentID, "attempt", payload.Attempt)

	result, err := c.SweepService.CheckIntent(ctx, payload.IntentID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrIntentMalformed):
		// 不合规意图不重试
		log.Warnw("worker_intent_status_check_malformed", "error", err)
		c.JobMetrics.IncSkipped(jobIntentStatusCheck)
		return nil
	case errors.Is(err, service.ErrInvocationUnknown):
		log.Warnw("worker_intent_status_check_gateway_unavailable", "error", err)
		c.JobMetrics.IncFailure(jobIntentStatusCheck)
		return c.requeueStatusCheck(payload, log)
	default:
		log.Errorw("worker_intent_status_check_failed", "error", err)
		c.JobMetrics.IncFailure(jobIntentStatusCheck)
		return err
	}

	c.JobMetrics.IncSuccess(jobIntentStatusCheck)
	switch result.Status {
	case "":
		log.Debugw("worker_intent_status_check_intent_missing")
		return nil
	case constants.IntentStatusPending:
		return c.requeueStatusCheck(payload, log)
	default:
		log.Infow("worker_intent_status_check_settled", "status", result.Status, "gateway_state", result.GatewayState, "applied", result.Applied)
		return nil
	}
}

func (c *Consumer) requeueStatusCheck(payload queue.IntentStatusCheckPayload, log *zap.SugaredLogger) error {
	next := payload
	next.Attempt++
	if next.Attempt >= maxStatusCheckAttempts {
		log.Infow("worker_intent_status_check_exhausted")
		return nil
	}
	if c.QueueClient == nil {
		return nil
	}
	if err := c.QueueClient.EnqueueIntentStatusCheck(next, c.Config.Reconcile.CheckDelay()); err != nil {
		log.Warnw("worker_intent_status_check_requeue_failed", "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleIntentSweep(ctx context.Context, _ *asynq.Task) error {
	if c == nil {
		return nil
	}
	_, err := c.RunSweep(ctx)
	return err
}

// RunSweep 获取清扫锁后执行一次滞留意图清扫，未获取到锁时跳过
func (c *Consumer) RunSweep(ctx context.Context) (*service.SweepReport, error) {
	token, acquired, err := c.lock.Acquire(ctx)
	if err != nil {
		logger.Warnw("worker_intent_sweep_lock_failed", "error", err)
		c.JobMetrics.IncFailure(jobIntentSweep)
		return nil, err
	}
	if !acquired {
		logger.Debugw("worker_intent_sweep_skip_locked")
		c.JobMetrics.IncSkipped(jobIntentSweep)
		return nil, nil
	}
	defer func() {
		if err := c.lock.Release(context.Background(), token); err != nil {
			logger.Warnw("worker_intent_sweep_unlock_failed", "error", err)
		}
	}()

	start := time.Now()
	report, err := c.SweepService.SweepStale(ctx)
	c.JobMetrics.ObserveDuration(jobIntentSweep, time.Since(start))
	if err != nil {
		logger.Warnw("worker_intent_sweep_partial_failure", "error", err)
		c.JobMetrics.IncFailure(jobIntentSweep)
		return report, err
	}
	c.JobMetrics.IncSuccess(jobIntentSweep)
	return report, nil
}
