package service

import (
	"context"
	"fmt"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"

	"go.uber.org/multierr"
)

const (
	defaultStaleAfter = 30 * time.Minute
	defaultBatchLimit = 100
)

// SweepReport 单次清扫统计
type SweepReport struct {
	Scanned     int `json:"scanned"`
	Settled     int `json:"settled"`
	Abandoned   int `json:"abandoned"`
	Pending     int `json:"pending"`
	Quarantined int `json:"quarantined"`
	Errors      int `json:"errors"`
}

// CheckResult 单个意图核对结果
type CheckResult struct {
	IntentID     string
	GatewayState string
	Status       string
	Applied      bool
}

// SweepService 过期 Pending 意图清扫
type SweepService struct {
	intentRepo repository.IntentRepository
	invoker    Invoker
	reconciler *Reconciler
	schema     *RecordSchema
	staleAfter time.Duration
	batchLimit int
	now        func() time.Time
}

// NewSweepService 创建清扫服务
func NewSweepService(
	intentRepo repository.IntentRepository,
	invoker Invoker,
	reconciler *Reconciler,
	schema *RecordSchema,
	staleAfter time.Duration,
	batchLimit int,
) *SweepService {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}
	return &SweepService{
		intentRepo: intentRepo,
		invoker:    invoker,
		reconciler: reconciler,
		schema:     schema,
		staleAfter: staleAfter,
		batchLimit: batchLimit,
		now:        time.Now,
	}
}

// SweepStale 核对早于阈值仍为 Pending 的意图；单个意图出错不影响其余意图
func (s *SweepService) SweepStale(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}
	before := s.now().Add(-s.staleAfter)
	intents, err := s.intentRepo.ListStalePending(before, s.batchLimit)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrIntentFetchFailed, err)
	}

	var errs error
	checked := make([]string, 0, len(intents))
	for i := range intents {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		intent := &intents[i]
		report.Scanned++
		checked = append(checked, intent.ID)
		if err := s.schema.CheckIntent(intent); err != nil {
			report.Quarantined++
			continue
		}
		result, err := s.resolve(ctx, intent, true)
		if err != nil {
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("intent %s: %w", intent.ID, err))
			continue
		}
		switch {
		case !result.Applied:
			report.Pending++
		case result.GatewayState == constants.GatewayStateUnknown:
			report.Abandoned++
		default:
			report.Settled++
		}
	}
	if err := s.intentRepo.TouchChecked(checked, s.now()); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: %v", ErrRecordSaveFailed, err))
	}
	logger.Infow("intent_sweep_finished",
		"scanned", report.Scanned,
		"settled", report.Settled,
		"abandoned", report.Abandoned,
		"pending", report.Pending,
		"quarantined", report.Quarantined,
		"errors", report.Errors,
	)
	return report, errs
}

// CheckIntent 核对单个意图（延迟任务调用），网关无记录时保持 Pending
func (s *SweepService) CheckIntent(ctx context.Context, intentID string) (*CheckResult, error) {
	intent, err := s.intentRepo.GetByID(intentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentFetchFailed, err)
	}
	if intent == nil {
		return &CheckResult{IntentID: intentID}, nil
	}
	if intent.IsTerminal() {
		return &CheckResult{IntentID: intent.ID, Status: intent.Status}, nil
	}
	if err := s.schema.CheckIntent(intent); err != nil {
		return nil, err
	}
	allowAbandon := s.now().Sub(intent.CreatedAt) >= s.staleAfter
	return s.resolve(ctx, intent, allowAbandon)
}

func (s *SweepService) resolve(ctx context.Context, intent *models.PaymentIntent, allowAbandon bool) (*CheckResult, error) {
	result := &CheckResult{IntentID: intent.ID, Status: intent.Status}
	status, err := s.invoker.Query(ctx, InvocationQuery{IntentID: intent.ID, RequestID: intent.SignerRequestID})
	if err != nil {
		logger.Warnw("intent_status_query_failed", "intent_id", intent.ID, "error", err)
		return nil, err
	}
	result.GatewayState = status.State

	outcome, terminal := status.Outcome()
	if !terminal {
		if status.State != constants.GatewayStateUnknown || !allowAbandon {
			return result, nil
		}
		outcome = Outcome{Kind: constants.OutcomeAbandoned}
		if intent.SignerRequestID == "" {
			outcome.Reason = "the payment never reached the signing gateway"
		}
	}
	reconciled, err := s.reconciler.Reconcile(ctx, intent.ID, outcome)
	if err != nil {
		return nil, err
	}
	result.Applied = reconciled.Applied
	result.Status = reconciled.Status
	return result, nil
}
