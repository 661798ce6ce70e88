package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/metrics"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"

	"gorm.io/gorm"
)

// Outcome 外部调用的终态结果
type Outcome struct {
	Kind            string                 `json:"kind"`
	TransactionHash string                 `json:"transaction_hash"`
	Reason          string                 `json:"reason"`
	Payload         map[string]interface{} `json:"-"`
}

// ReconcileResult 结算结果
type ReconcileResult struct {
	IntentID       string `json:"intent_id"`
	Found          bool   `json:"found"`
	Applied        bool   `json:"applied"`
	Status         string `json:"status"`
	HistoryCreated bool   `json:"history_created"`
}

// Reconciler 将意图推进到唯一终态并写入派生记录
type Reconciler struct {
	intentRepo  repository.IntentRepository
	historyRepo repository.HistoryRepository
	strategies  map[string]FlowStrategy
	schema      *RecordSchema
	metrics     *metrics.PaymentMetrics
	now         func() time.Time
}

// NewReconciler 创建结算器
func NewReconciler(
	intentRepo repository.IntentRepository,
	historyRepo repository.HistoryRepository,
	strategies map[string]FlowStrategy,
	schema *RecordSchema,
	m *metrics.PaymentMetrics,
) *Reconciler {
	return &Reconciler{
		intentRepo:  intentRepo,
		historyRepo: historyRepo,
		strategies:  strategies,
		schema:      schema,
		metrics:     m,
		now:         time.Now,
	}
}

// Reconcile 根据外部结果结算意图
// 未知意图与已终态意图均为无操作；记录写入失败返回 ErrReconcilePersistence
func (r *Reconciler) Reconcile(ctx context.Context, intentID string, outcome Outcome) (*ReconcileResult, error) {
	intentID = strings.TrimSpace(intentID)
	outcome.Kind = strings.TrimSpace(outcome.Kind)
	outcome.TransactionHash = strings.TrimSpace(outcome.TransactionHash)
	if !isOutcomeKindValid(outcome.Kind) {
		return nil, ErrOutcomeInvalid
	}
	if outcome.Kind == constants.OutcomeRejected {
		// 拒绝签名时交易从未上链，不记录哈希
		outcome.TransactionHash = ""
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := &ReconcileResult{IntentID: intentID}
	log := logger.SW("intent_id", intentID, "outcome", outcome.Kind)

	intent, err := r.intentRepo.GetByID(intentID)
	if err != nil {
		log.Errorw("reconcile_intent_fetch_failed", "error", err)
		r.metrics.IncPersistenceFailure("reconcile")
		return nil, fmt.Errorf("%w: %v", ErrReconcilePersistence, err)
	}
	if intent == nil {
		log.Warnw("reconcile_intent_not_found")
		return result, nil
	}
	result.Found = true
	result.Status = intent.Status
	log = log.With("flow", intent.Flow)

	if err := r.schema.CheckIntent(intent); err != nil {
		log.Errorw("reconcile_intent_malformed", "error", err)
		return nil, err
	}

	if intent.IsTerminal() {
		log.Infow("reconcile_already_terminal", "status", intent.Status)
		if intent.Status == constants.IntentStatusSuccess && outcome.Kind == constants.OutcomeConfirmed {
			// 重复的成功回调补齐可能缺失的派生记录
			existing, err := r.historyRepo.GetByIntentID(intent.ID)
			if err == nil && existing != nil {
				return result, nil
			}
			created, err := r.writeDerived(intent, r.now())
			if err != nil {
				log.Errorw("reconcile_derived_repair_failed", "error", err)
				r.metrics.IncPersistenceFailure("reconcile_derived")
				return nil, fmt.Errorf("%w: %v", ErrReconcilePersistence, err)
			}
			result.HistoryCreated = created
		}
		return result, nil
	}

	now := r.now()
	settlement := repository.IntentSettlement{
		GatewayPayload: outcome.Payload,
		SettledAt:      now,
	}
	if outcome.TransactionHash != "" {
		hash := outcome.TransactionHash
		settlement.TransactionHash = &hash
	}
	if outcome.Kind == constants.OutcomeConfirmed {
		settlement.Status = constants.IntentStatusSuccess
	} else {
		settlement.Status = constants.IntentStatusFailed
		details := FormatErrorDetails(outcome.Kind, outcome.Reason)
		settlement.ErrorDetails = &details
	}

	applied, err := r.intentRepo.Settle(intent.ID, settlement)
	if err != nil {
		log.Errorw("reconcile_settle_failed", "target_status", settlement.Status, "error", err)
		r.metrics.IncPersistenceFailure("reconcile")
		return nil, fmt.Errorf("%w: %v", ErrReconcilePersistence, err)
	}
	if !applied {
		// 并发结算已先行写入终态
		current, err := r.intentRepo.GetByID(intent.ID)
		if err == nil && current != nil {
			result.Status = current.Status
		}
		log.Infow("reconcile_lost_race", "status", result.Status)
		return result, nil
	}
	result.Applied = true
	result.Status = settlement.Status
	r.metrics.IncReconciled(intent.Flow, settlement.Status)
	log.Infow("reconcile_applied", "status", settlement.Status, "transaction_hash", outcome.TransactionHash)

	if settlement.Status != constants.IntentStatusSuccess {
		return result, nil
	}

	if outcome.TransactionHash != "" {
		hash := outcome.TransactionHash
		intent.TransactionHash = &hash
	}
	intent.Status = constants.IntentStatusSuccess
	created, err := r.writeDerived(intent, now)
	if err != nil {
		log.Errorw("reconcile_derived_write_failed", "error", err)
		r.metrics.IncPersistenceFailure("reconcile_derived")
		return nil, fmt.Errorf("%w: %v", ErrReconcilePersistence, err)
	}
	result.HistoryCreated = created
	return result, nil
}

// writeDerived 在同一事务内写入历史记录并执行流程副作用
func (r *Reconciler) writeDerived(intent *models.PaymentIntent, at time.Time) (bool, error) {
	strategy := r.strategies[intent.Flow]
	created := false
	err := r.intentRepo.Transaction(func(tx *gorm.DB) error {
		history := buildHistory(intent, strategy, at)
		inserted, err := r.historyRepo.WithTx(tx).CreateOnce(history)
		if err != nil {
			return err
		}
		created = inserted
		if strategy == nil {
			return nil
		}
		return strategy.AfterSuccess(tx, intent, at)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func buildHistory(intent *models.PaymentIntent, strategy FlowStrategy, at time.Time) *models.PaymentHistory {
	direction := constants.DirectionOut
	if strategy != nil {
		direction = strategy.Direction()
	}
	hash := ""
	if intent.TransactionHash != nil {
		hash = *intent.TransactionHash
	}
	names := make([]string, 0, len(intent.Recipients))
	for _, recipient := range intent.Recipients {
		name := recipient.RecipientName
		if name == "" {
			name = recipient.RecipientID
		}
		names = append(names, name)
	}
	return &models.PaymentHistory{
		IntentID:         intent.ID,
		BusinessID:       intent.BusinessID,
		Flow:             intent.Flow,
		Category:         intent.Category,
		Direction:        direction,
		Amount:           intent.TotalAmount,
		Token:            intent.Token,
		RecipientCount:   len(intent.Recipients),
		RecipientSummary: strings.Join(names, ", "),
		TransactionHash:  hash,
		PeriodLabel:      intent.PeriodLabel,
		OccurredAt:       at,
	}
}

// FormatErrorDetails 生成带前缀的错误详情并截断至 150 字符
func FormatErrorDetails(kind, reason string) string {
	reason = strings.TrimSpace(reason)
	var details string
	switch kind {
	case constants.OutcomeRejected:
		if reason == "" {
			reason = "the signing request was declined"
		}
		details = "rejected: " + reason
	case constants.OutcomeAbandoned:
		if reason == "" {
			reason = "no signing request was found for this payment"
		}
		details = "abandoned: " + reason
	default:
		if reason == "" {
			reason = "the transaction did not complete"
		}
		details = "execution failed: " + reason
	}
	return truncateDetails(details, constants.ErrorDetailsMaxLen)
}

func truncateDetails(details string, limit int) string {
	runes := []rune(details)
	if len(runes) <= limit {
		return details
	}
	return string(runes[:limit-3]) + "..."
}

func isOutcomeKindValid(kind string) bool {
	switch kind {
	case constants.OutcomeConfirmed, constants.OutcomeRejected, constants.OutcomeExecutionFailed, constants.OutcomeAbandoned:
		return true
	default:
		return false
	}
}
