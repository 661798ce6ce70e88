package service

import (
	"errors"
	"fmt"

	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"

	"github.com/go-playground/validator/v10"
)

// PaymentQueryService 支付意图、支付历史与钱包流水查询
type PaymentQueryService struct {
	intentRepo  repository.IntentRepository
	historyRepo repository.HistoryRepository
	schema      *RecordSchema
}

// NewPaymentQueryService 创建查询服务
func NewPaymentQueryService(intentRepo repository.IntentRepository, historyRepo repository.HistoryRepository, schema *RecordSchema) *PaymentQueryService {
	return &PaymentQueryService{intentRepo: intentRepo, historyRepo: historyRepo, schema: schema}
}

// GetIntent 获取企业名下的支付意图，不合规记录返回 ErrIntentMalformed
func (s *PaymentQueryService) GetIntent(businessID uint, intentID string) (*models.PaymentIntent, error) {
	intent, err := s.intentRepo.GetByBusinessAndID(businessID, intentID)
	if err != nil {
		return nil, ErrIntentFetchFailed
	}
	if intent == nil {
		return nil, ErrIntentNotFound
	}
	if err := s.schema.CheckIntent(intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// ListIntents 分页列出支付意图，跳过不合规记录
func (s *PaymentQueryService) ListIntents(filter repository.IntentListFilter) ([]models.PaymentIntent, int64, error) {
	intents, total, err := s.intentRepo.List(filter)
	if err != nil {
		return nil, 0, ErrIntentFetchFailed
	}
	valid := make([]models.PaymentIntent, 0, len(intents))
	for i := range intents {
		if err := s.schema.CheckIntent(&intents[i]); err != nil {
			total--
			continue
		}
		valid = append(valid, intents[i])
	}
	return valid, total, nil
}

// ListHistory 支付历史（payments 视图）
func (s *PaymentQueryService) ListHistory(filter repository.HistoryListFilter) ([]models.PaymentHistory, int64, error) {
	histories, total, err := s.historyRepo.List(filter)
	if err != nil {
		return nil, 0, ErrRecordFetchFailed
	}
	return histories, total, nil
}

// ListWalletTransactions 钱包流水（walletTransactions 视图）
func (s *PaymentQueryService) ListWalletTransactions(filter repository.HistoryListFilter) ([]models.PaymentHistory, int64, error) {
	return s.ListHistory(filter)
}

// wrapValidation 将结构校验错误归入 ErrValidation
func wrapValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: field %s failed %s", ErrValidation, verrs[0].Field(), verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
