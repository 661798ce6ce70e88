package service

import (
	"fmt"
	"strings"

	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/metrics"
	"github.com/employer-pool/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	quarantineKindWorker     = "worker"
	quarantineKindContractor = "contractor"
	quarantineKindIntent     = "intent"
)

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 0x 前缀 + 40 位十六进制
	v.RegisterAlias("wallet_address", "eth_addr")
	return v
}

// QuarantinedRecord 读取边界被隔离的记录
type QuarantinedRecord struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// RecordSchema 存储读取边界的结构校验
type RecordSchema struct {
	metrics *metrics.PaymentMetrics
}

// NewRecordSchema 创建读取边界校验器
func NewRecordSchema(m *metrics.PaymentMetrics) *RecordSchema {
	return &RecordSchema{metrics: m}
}

// IsWalletAddress 判断钱包地址格式
func IsWalletAddress(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}
	return recordValidator.Var(address, "wallet_address") == nil
}

// CheckWorker 校验员工记录
func (s *RecordSchema) CheckWorker(worker *models.Worker) error {
	if worker == nil {
		return fmt.Errorf("worker record is nil")
	}
	if err := recordValidator.Struct(worker); err != nil {
		return err
	}
	if worker.Salary.IsNegative() {
		return fmt.Errorf("salary is negative")
	}
	return nil
}

// CheckContractor 校验承包商记录
func (s *RecordSchema) CheckContractor(contractor *models.Contractor) error {
	if contractor == nil {
		return fmt.Errorf("contractor record is nil")
	}
	if err := recordValidator.Struct(contractor); err != nil {
		return err
	}
	if contractor.PaymentAmount.IsNegative() {
		return fmt.Errorf("payment amount is negative")
	}
	return nil
}

// CheckIntent 校验支付意图记录，失败时返回 ErrIntentMalformed
func (s *RecordSchema) CheckIntent(intent *models.PaymentIntent) error {
	if intent == nil {
		return ErrIntentMalformed
	}
	if err := recordValidator.Struct(intent); err != nil {
		s.quarantine(quarantineKindIntent, intent.ID, err)
		return fmt.Errorf("%w: %v", ErrIntentMalformed, err)
	}
	sum := decimal.Zero
	for _, recipient := range intent.Recipients {
		if !recipient.Amount.IsPositive() {
			err := fmt.Errorf("recipient %s amount is not positive", recipient.RecipientID)
			s.quarantine(quarantineKindIntent, intent.ID, err)
			return fmt.Errorf("%w: %v", ErrIntentMalformed, err)
		}
		sum = sum.Add(recipient.Amount.Decimal)
	}
	if !sum.Equal(intent.TotalAmount.Decimal) {
		err := fmt.Errorf("recipient sum %s differs from total %s", sum.StringFixed(6), intent.TotalAmount.String())
		s.quarantine(quarantineKindIntent, intent.ID, err)
		return fmt.Errorf("%w: %v", ErrIntentMalformed, err)
	}
	return nil
}

// FilterWorkers 过滤不合规的员工记录
func (s *RecordSchema) FilterWorkers(workers []models.Worker) ([]models.Worker, []QuarantinedRecord) {
	valid := make([]models.Worker, 0, len(workers))
	var skipped []QuarantinedRecord
	for i := range workers {
		if err := s.CheckWorker(&workers[i]); err != nil {
			skipped = append(skipped, s.quarantine(quarantineKindWorker, workers[i].UID, err))
			continue
		}
		valid = append(valid, workers[i])
	}
	return valid, skipped
}

// FilterContractors 过滤不合规的承包商记录
func (s *RecordSchema) FilterContractors(contractors []models.Contractor) ([]models.Contractor, []QuarantinedRecord) {
	valid := make([]models.Contractor, 0, len(contractors))
	var skipped []QuarantinedRecord
	for i := range contractors {
		if err := s.CheckContractor(&contractors[i]); err != nil {
			skipped = append(skipped, s.quarantine(quarantineKindContractor, contractors[i].UID, err))
			continue
		}
		valid = append(valid, contractors[i])
	}
	return valid, skipped
}

func (s *RecordSchema) quarantine(kind, id string, cause error) QuarantinedRecord {
	record := QuarantinedRecord{Kind: kind, ID: id, Reason: cause.Error()}
	logger.Warnw("record_quarantined", "kind", kind, "record_id", id, "reason", record.Reason)
	if s != nil {
		s.metrics.IncQuarantined(kind)
	}
	return record
}
