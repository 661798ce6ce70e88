package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/metrics"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/queue"
	"github.com/employer-pool/internal/repository"

	"go.uber.org/zap"
)

// InitiateResult 发起支付结果
type InitiateResult struct {
	Intent    *models.PaymentIntent `json:"intent"`
	Skipped   []SkippedRecipient    `json:"skipped"`
	Submitted bool                  `json:"submitted"`
	Reused    bool                  `json:"reused"`
}

// SignerCallbackInput 签名网关回调输入
type SignerCallbackInput struct {
	RequestID       string
	IntentID        string
	Status          string
	TransactionHash string
	Reason          string
	Payload         map[string]interface{}
}

// PaymentFlowService 参数化的支付 saga 编排
type PaymentFlowService struct {
	writer          *IntentWriter
	reconciler      *Reconciler
	invoker         Invoker
	strategies      map[string]FlowStrategy
	businessRepo    repository.BusinessRepository
	intentRepo      repository.IntentRepository
	queueClient     *queue.Client
	contractAddress string
	checkDelay      time.Duration
	metrics         *metrics.PaymentMetrics
	now             func() time.Time
}

// PaymentFlowOptions 编排服务依赖
type PaymentFlowOptions struct {
	Writer          *IntentWriter
	Reconciler      *Reconciler
	Invoker         Invoker
	Strategies      map[string]FlowStrategy
	BusinessRepo    repository.BusinessRepository
	IntentRepo      repository.IntentRepository
	QueueClient     *queue.Client
	ContractAddress string
	CheckDelay      time.Duration
	Metrics         *metrics.PaymentMetrics
}

// NewPaymentFlowService 创建支付编排服务
func NewPaymentFlowService(opts PaymentFlowOptions) *PaymentFlowService {
	return &PaymentFlowService{
		writer:          opts.Writer,
		reconciler:      opts.Reconciler,
		invoker:         opts.Invoker,
		strategies:      opts.Strategies,
		businessRepo:    opts.BusinessRepo,
		intentRepo:      opts.IntentRepo,
		queueClient:     opts.QueueClient,
		contractAddress: strings.TrimSpace(opts.ContractAddress),
		checkDelay:      opts.CheckDelay,
		metrics:         opts.Metrics,
		now:             time.Now,
	}
}

// Initiate 发起支付：会话校验 -> 收款方校验 -> 写入 Pending -> 调用外部签名
func (s *PaymentFlowService) Initiate(ctx context.Context, session *Session, flow string, input FlowInput) (*InitiateResult, error) {
	if err := session.RequireWalletMatch(); err != nil {
		return nil, err
	}
	strategy, ok := s.strategies[strings.TrimSpace(flow)]
	if !ok {
		return nil, ErrFlowUnsupported
	}
	log := logger.SW("business_id", session.BusinessID, "operator_id", session.OperatorID, "flow", strategy.Flow(), "request_id", session.RequestID)

	business, err := s.businessRepo.GetByID(session.BusinessID)
	if err != nil {
		log.Errorw("payment_business_fetch_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRecordFetchFailed, err)
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}

	candidates, err := strategy.Candidates(ctx, FlowScope{Business: business, Session: session}, input)
	if err != nil {
		log.Warnw("payment_candidates_failed", "error", err)
		return nil, err
	}
	gate, err := ValidateRecipients(strategy.Mode(), candidates)
	if err != nil {
		log.Warnw("payment_validation_failed", "candidate_count", len(candidates), "error", err)
		return nil, err
	}
	if len(gate.Skipped) > 0 {
		log.Infow("payment_recipients_skipped", "skipped_count", len(gate.Skipped))
	}

	category, err := strategy.Category(input)
	if err != nil {
		return nil, err
	}
	now := s.now()
	intent, created, err := s.writer.CreatePending(ctx, business.ID, gate.Recipients, gate.Total, constants.TokenUSDC, IntentMetadata{
		Flow:           strategy.Flow(),
		Prefix:         strategy.Prefix(),
		Category:       category,
		PeriodLabel:    strategy.PeriodLabel(now, input),
		ContractMethod: strategy.ContractMethod(),
		GasLimit:       input.GasLimit,
		OperatorID:     session.OperatorID,
		IdempotencyKey: input.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	result := &InitiateResult{Intent: intent, Skipped: gate.Skipped}
	if !created {
		result.Reused = true
		result.Submitted = intent.SignerRequestID != ""
		return result, nil
	}
	log = log.With("intent_id", intent.ID)

	req, err := BuildInvocationRequest(intent, s.contractAddress)
	if err != nil {
		return nil, err
	}
	submission, err := s.invoker.Submit(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvocationRejected):
		s.metrics.IncInvocation(intent.Flow, "rejected")
		log.Warnw("payment_invocation_rejected", "error", err)
		return s.settleImmediately(ctx, result, Outcome{Kind: constants.OutcomeRejected, Reason: invocationReason(err, ErrInvocationRejected)}, err)
	case errors.Is(err, ErrInvocationFailed):
		s.metrics.IncInvocation(intent.Flow, "failed")
		log.Warnw("payment_invocation_failed", "error", err)
		outcome := Outcome{Kind: constants.OutcomeExecutionFailed, Reason: invocationReason(err, ErrInvocationFailed)}
		if submission != nil {
			outcome.TransactionHash = submission.TransactionHash
		}
		return s.settleImmediately(ctx, result, outcome, err)
	default:
		// 结果不确定：保持 Pending，交由延迟核对与清扫处理
		s.metrics.IncInvocation(intent.Flow, "unknown")
		log.Warnw("payment_invocation_unknown", "error", err)
		s.enqueueStatusCheck(intent.ID, "", log)
		return result, nil
	}

	s.metrics.IncInvocation(intent.Flow, "accepted")
	var hash *string
	if submission.TransactionHash != "" {
		hash = &submission.TransactionHash
	}
	if _, err := s.intentRepo.MarkSubmitted(intent.ID, submission.RequestID, hash, s.now()); err != nil {
		log.Errorw("payment_mark_submitted_failed", "signer_request_id", submission.RequestID, "error", err)
		s.metrics.IncPersistenceFailure("mark_submitted")
	}
	log.Infow("payment_submitted", "signer_request_id", submission.RequestID)
	s.enqueueStatusCheck(intent.ID, submission.RequestID, log)

	result.Submitted = true
	if reloaded, err := s.intentRepo.GetByID(intent.ID); err == nil && reloaded != nil {
		result.Intent = reloaded
	}
	return result, nil
}

// ReportOutcome 操作员会话上报的外部调用结果
func (s *PaymentFlowService) ReportOutcome(ctx context.Context, session *Session, intentID string, outcome Outcome) (*ReconcileResult, error) {
	if err := session.RequireWalletMatch(); err != nil {
		return nil, err
	}
	intent, err := s.intentRepo.GetByBusinessAndID(session.BusinessID, intentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentFetchFailed, err)
	}
	if intent == nil {
		return nil, ErrIntentNotFound
	}
	logger.Infow("payment_outcome_reported",
		"intent_id", intent.ID,
		"operator_id", session.OperatorID,
		"outcome", outcome.Kind,
	)
	return s.reconciler.Reconcile(ctx, intent.ID, outcome)
}

// HandleSignerCallback 处理签名网关回调，非终态回调仅记录
func (s *PaymentFlowService) HandleSignerCallback(ctx context.Context, input SignerCallbackInput) (*ReconcileResult, error) {
	log := logger.SW("intent_id", input.IntentID, "signer_request_id", input.RequestID, "gateway_status", input.Status)
	log.Infow("signer_callback_received")

	intent, err := s.intentRepo.GetByID(input.IntentID)
	if err != nil {
		log.Errorw("signer_callback_intent_fetch_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrIntentFetchFailed, err)
	}
	if intent == nil {
		log.Warnw("signer_callback_intent_not_found")
		return &ReconcileResult{IntentID: input.IntentID}, nil
	}
	if intent.SignerRequestID != "" && input.RequestID != "" && intent.SignerRequestID != input.RequestID {
		log.Warnw("signer_callback_request_mismatch", "stored_request_id", intent.SignerRequestID)
		return nil, ErrCallbackPayloadInvalid
	}

	status := &GatewayStatus{
		State:           input.Status,
		RequestID:       input.RequestID,
		TransactionHash: input.TransactionHash,
		Reason:          input.Reason,
		Payload:         input.Payload,
	}
	outcome, terminal := status.Outcome()
	if !terminal {
		if intent.SignerRequestID == "" && input.RequestID != "" {
			if _, err := s.intentRepo.MarkSubmitted(intent.ID, input.RequestID, nil, s.now()); err != nil {
				log.Warnw("signer_callback_mark_submitted_failed", "error", err)
			}
		}
		return &ReconcileResult{IntentID: intent.ID, Found: true, Status: intent.Status}, nil
	}
	return s.reconciler.Reconcile(ctx, intent.ID, outcome)
}

func (s *PaymentFlowService) settleImmediately(ctx context.Context, result *InitiateResult, outcome Outcome, cause error) (*InitiateResult, error) {
	if _, err := s.reconciler.Reconcile(ctx, result.Intent.ID, outcome); err != nil {
		return result, err
	}
	if reloaded, err := s.intentRepo.GetByID(result.Intent.ID); err == nil && reloaded != nil {
		result.Intent = reloaded
	}
	return result, cause
}

func (s *PaymentFlowService) enqueueStatusCheck(intentID, requestID string, log *zap.SugaredLogger) {
	if s.queueClient == nil {
		return
	}
	err := s.queueClient.EnqueueIntentStatusCheck(queue.IntentStatusCheckPayload{
		IntentID:        intentID,
		SignerRequestID: requestID,
		Attempt:         1,
	}, s.checkDelay)
	if err != nil {
		log.Warnw("payment_enqueue_status_check_failed", "error", err)
	}
}

// invocationReason 去掉分类前缀，保留网关给出的原因
func invocationReason(err error, category error) string {
	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, category.Error())
	return strings.TrimSpace(strings.TrimPrefix(msg, ":"))
}
