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
)

const (
	maxIntentIDAttempts     = 16
	maxIdempotencyKeyLength = 128
)

// IntentMetadata 意图元数据
type IntentMetadata struct {
	Flow           string
	Prefix         string
	Category       string
	PeriodLabel    string
	ContractMethod string
	GasLimit       uint64
	OperatorID     uint
	IdempotencyKey string
}

// IntentWriter 待处理支付记录写入器
type IntentWriter struct {
	intentRepo repository.IntentRepository
	metrics    *metrics.PaymentMetrics
	now        func() time.Time
}

// NewIntentWriter 创建待处理记录写入器
func NewIntentWriter(intentRepo repository.IntentRepository, m *metrics.PaymentMetrics) *IntentWriter {
	return &IntentWriter{
		intentRepo: intentRepo,
		metrics:    m,
		now:        time.Now,
	}
}

// CreatePendingPayment 写入 Pending 状态的支付意图并返回意图 ID
func (w *IntentWriter) CreatePendingPayment(ctx context.Context, payerID uint, recipients []models.IntentRecipient, totalAmount models.TokenAmount, token string, metadata IntentMetadata) (string, error) {
	intent, _, err := w.CreatePending(ctx, payerID, recipients, totalAmount, token, metadata)
	if err != nil {
		return "", err
	}
	return intent.ID, nil
}

// CreatePending 写入 Pending 意图，携带幂等键时返回已有意图（created=false）
func (w *IntentWriter) CreatePending(ctx context.Context, payerID uint, recipients []models.IntentRecipient, totalAmount models.TokenAmount, token string, metadata IntentMetadata) (*models.PaymentIntent, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if payerID == 0 {
		return nil, false, fmt.Errorf("%w: payer is required", ErrValidation)
	}
	if len(recipients) == 0 {
		return nil, false, ErrNoRecipients
	}
	token = strings.ToUpper(strings.TrimSpace(token))
	if token != constants.TokenUSDC {
		return nil, false, ErrTokenUnsupported
	}
	gasLimit := metadata.GasLimit
	if gasLimit == 0 {
		gasLimit = constants.DefaultGasLimit
	}
	if gasLimit <= constants.MinGasLimit {
		return nil, false, ErrGasLimitInvalid
	}
	prefix := strings.TrimSpace(metadata.Prefix)
	if prefix == "" {
		return nil, false, ErrFlowUnsupported
	}

	stored := make([]models.IntentRecipient, 0, len(recipients))
	for _, recipient := range recipients {
		if !recipient.Amount.IsPositive() {
			return nil, false, fmt.Errorf("%w (recipient %s)", ErrInvalidAmount, recipient.RecipientID)
		}
		if err := ValidateWalletAddress(recipient.WalletAddress); err != nil {
			return nil, false, err
		}
		recipient.MinorAmount = ToMinorUnits(recipient.Amount).String()
		stored = append(stored, recipient)
	}
	if !SumRecipientAmounts(stored).Equal(totalAmount.Decimal) {
		return nil, false, ErrTotalMismatch
	}

	idempotencyKey, err := scopedIdempotencyKey(payerID, metadata.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	log := logger.SW("business_id", payerID, "flow", metadata.Flow)
	if idempotencyKey != nil {
		existing, err := w.intentRepo.GetByIdempotencyKey(*idempotencyKey)
		if err != nil {
			log.Errorw("intent_idempotency_lookup_failed", "error", err)
			w.metrics.IncPersistenceFailure("pending_write")
			return nil, false, fmt.Errorf("%w: %v", ErrIntentPersistence, err)
		}
		if existing != nil {
			log.Infow("intent_idempotent_reuse", "intent_id", existing.ID, "status", existing.Status)
			return existing, false, nil
		}
	}

	now := w.now()
	intent := &models.PaymentIntent{
		BusinessID:     payerID,
		OperatorID:     metadata.OperatorID,
		Flow:           metadata.Flow,
		Status:         constants.IntentStatusPending,
		TotalAmount:    totalAmount,
		Token:          token,
		Recipients:     stored,
		Category:       metadata.Category,
		PeriodLabel:    metadata.PeriodLabel,
		ContractMethod: metadata.ContractMethod,
		GasLimit:       gasLimit,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	suffix := recipientSuffix(stored[0].RecipientID)
	millis := now.UnixMilli()
	for attempt := 0; attempt < maxIntentIDAttempts; attempt++ {
		id := BuildIntentID(prefix, millis+int64(attempt), suffix)
		taken, err := w.intentRepo.Exists(id)
		if err != nil {
			log.Errorw("intent_id_check_failed", "intent_id", id, "error", err)
			w.metrics.IncPersistenceFailure("pending_write")
			return nil, false, fmt.Errorf("%w: %v", ErrIntentPersistence, err)
		}
		if taken {
			continue
		}
		intent.ID = id
		if err := w.intentRepo.Create(intent); err != nil {
			// 并发写入同一幂等键时以先写入者为准
			if existing := w.findByIdempotencyKey(idempotencyKey); existing != nil {
				log.Infow("intent_idempotent_reuse", "intent_id", existing.ID, "status", existing.Status)
				return existing, false, nil
			}
			if taken, _ := w.intentRepo.Exists(id); taken {
				continue
			}
			log.Errorw("intent_create_failed", "intent_id", id, "error", err)
			w.metrics.IncPersistenceFailure("pending_write")
			return nil, false, fmt.Errorf("%w: %v", ErrIntentPersistence, err)
		}
		w.metrics.IncIntentCreated(metadata.Flow)
		log.Infow("intent_created",
			"intent_id", intent.ID,
			"total_amount", intent.TotalAmount.String(),
			"recipient_count", len(stored),
		)
		return intent, true, nil
	}
	w.metrics.IncPersistenceFailure("pending_write")
	return nil, false, fmt.Errorf("%w: could not allocate a unique intent id", ErrIntentPersistence)
}

func (w *IntentWriter) findByIdempotencyKey(key *string) *models.PaymentIntent {
	if key == nil {
		return nil
	}
	existing, err := w.intentRepo.GetByIdempotencyKey(*key)
	if err != nil {
		return nil
	}
	return existing
}

// BuildIntentID 生成意图 ID：<prefix>_<unixMillis>_<收款方 ID 末 4 位>
func BuildIntentID(prefix string, unixMillis int64, suffix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, unixMillis, suffix)
}

func recipientSuffix(recipientID string) string {
	id := strings.TrimSpace(recipientID)
	runes := []rune(id)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	if len(runes) == 0 {
		return "0000"
	}
	return string(runes)
}

func scopedIdempotencyKey(payerID uint, key string) (*string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	if len(key) > maxIdempotencyKeyLength {
		return nil, ErrIdempotencyKeyInvalid
	}
	scoped := fmt.Sprintf("%d:%s", payerID, key)
	return &scoped, nil
}
