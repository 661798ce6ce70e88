package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"

	"gorm.io/gorm"
)

// FlowInput 发起支付的业务输入
type FlowInput struct {
	ContractorUID    string   `json:"contractor_uid"`
	WorkerUIDs       []string `json:"worker_uids"`
	Amount           string   `json:"amount"`
	PeriodLabel      string   `json:"period_label"`
	GasLimit         uint64   `json:"gas_limit"`
	Category         string   `json:"category"`
	RecipientAddress string   `json:"recipient_address"` // 提现目标地址，为空时使用企业注册钱包
	IdempotencyKey   string   `json:"-"`
}

// FlowScope 策略执行上下文
type FlowScope struct {
	Business *models.Business
	Session  *Session
}

// FlowStrategy 可插拔的支付流程策略
type FlowStrategy interface {
	Flow() string
	Prefix() string
	Mode() GateMode
	ContractMethod() string
	// Category 解析记账分类，操作员可选分类的流程会校验取值
	Category(input FlowInput) (string, error)
	Direction() string
	Candidates(ctx context.Context, scope FlowScope, input FlowInput) ([]RecipientCandidate, error)
	PeriodLabel(now time.Time, input FlowInput) string
	// AfterSuccess 成功结算后的收款方副作用，在派生记录同一事务内执行
	AfterSuccess(tx *gorm.DB, intent *models.PaymentIntent, at time.Time) error
}

// PeriodLabel 生成 "Month YYYY" 周期标签
func PeriodLabel(t time.Time) string {
	return t.Format("January 2006")
}

var (
	depositCategories = []string{
		constants.DepositCategoryRevenue,
		constants.DepositCategoryPayroll,
		constants.DepositCategoryLoan,
		constants.DepositCategoryInvestment,
		constants.DepositCategoryRefund,
		constants.DepositCategoryOther,
	}
	withdrawalCategories = []string{
		constants.WithdrawalCategoryVendor,
		constants.WithdrawalCategoryRefund,
		constants.WithdrawalCategoryInvestment,
		constants.WithdrawalCategoryOperational,
		constants.WithdrawalCategoryOther,
	}
)

// pickCategory 空值取默认分类，其余必须在允许列表内（大小写不敏感）
func pickCategory(raw, fallback string, allowed []string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	for _, category := range allowed {
		if strings.EqualFold(raw, category) {
			return category, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrCategoryUnsupported, raw)
}

// NewFlowStrategies 构建全部流程策略
func NewFlowStrategies(contractorRepo repository.ContractorRepository, workerRepo repository.WorkerRepository, schema *RecordSchema, poolAddress string) map[string]FlowStrategy {
	strategies := []FlowStrategy{
		&contractorPaymentStrategy{contractorRepo: contractorRepo, schema: schema},
		&payrollStrategy{workerRepo: workerRepo, schema: schema},
		&depositStrategy{poolAddress: strings.TrimSpace(poolAddress)},
		&withdrawalStrategy{},
	}
	registry := make(map[string]FlowStrategy, len(strategies))
	for _, strategy := range strategies {
		registry[strategy.Flow()] = strategy
	}
	return registry
}

type contractorPaymentStrategy struct {
	contractorRepo repository.ContractorRepository
	schema         *RecordSchema
}

func (s *contractorPaymentStrategy) Flow() string   { return constants.FlowContractorPayment }
func (s *contractorPaymentStrategy) Prefix() string { return constants.IntentPrefixContractor }
func (s *contractorPaymentStrategy) Mode() GateMode { return GateStrict }
func (s *contractorPaymentStrategy) ContractMethod() string {
	return constants.ContractMethodTransferByEmployer
}
func (s *contractorPaymentStrategy) Category(FlowInput) (string, error) {
	return constants.CategoryContractorPayment, nil
}
func (s *contractorPaymentStrategy) Direction() string { return constants.DirectionOut }

func (s *contractorPaymentStrategy) Candidates(_ context.Context, scope FlowScope, input FlowInput) ([]RecipientCandidate, error) {
	uid := strings.TrimSpace(input.ContractorUID)
	if uid == "" {
		return nil, fmt.Errorf("%w: contractor is required", ErrValidation)
	}
	contractor, err := s.contractorRepo.GetByUID(uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordFetchFailed, err)
	}
	if contractor == nil || contractor.BusinessID != scope.Business.ID {
		return nil, ErrContractorNotFound
	}
	if err := s.schema.CheckContractor(contractor); err != nil {
		s.schema.quarantine(quarantineKindContractor, contractor.UID, err)
		return nil, fmt.Errorf("%w: contractor record is malformed", ErrRecipientIneligible)
	}

	amount := strings.TrimSpace(input.Amount)
	if amount == "" {
		amount = contractor.PaymentAmount.String()
	}
	return []RecipientCandidate{{
		RecipientID:   contractor.UID,
		Name:          contractor.Name,
		Email:         contractor.Email,
		WalletAddress: contractor.WalletAddress,
		Amount:        amount,
		Ineligible:    contractorIneligibility(contractor),
	}}, nil
}

func (s *contractorPaymentStrategy) PeriodLabel(now time.Time, input FlowInput) string {
	if label := strings.TrimSpace(input.PeriodLabel); label != "" {
		return label
	}
	return PeriodLabel(now)
}

func (s *contractorPaymentStrategy) AfterSuccess(tx *gorm.DB, intent *models.PaymentIntent, at time.Time) error {
	primary := intent.PrimaryRecipient()
	if primary == nil {
		return ErrIntentMalformed
	}
	return s.contractorRepo.WithTx(tx).MarkPaid(primary.RecipientID, intent.ID, at)
}

// contractorIneligibility 钱包已绑定且状态不为 Paid / Invited 时可付款
func contractorIneligibility(contractor *models.Contractor) string {
	switch {
	case strings.TrimSpace(contractor.WalletAddress) == "":
		return "wallet not connected"
	case contractor.Status == constants.ContractorStatusPaid:
		return "contractor already paid"
	case contractor.Status == constants.ContractorStatusInvited:
		return "contractor has not accepted the invitation"
	case contractor.Status == constants.ContractorStatusInactive:
		return "contractor is inactive"
	default:
		return ""
	}
}

type payrollStrategy struct {
	workerRepo repository.WorkerRepository
	schema     *RecordSchema
}

func (s *payrollStrategy) Flow() string           { return constants.FlowPayroll }
func (s *payrollStrategy) Prefix() string         { return constants.IntentPrefixPayroll }
func (s *payrollStrategy) Mode() GateMode         { return GateFilter }
func (s *payrollStrategy) ContractMethod() string { return constants.ContractMethodPayWorkers }
func (s *payrollStrategy) Direction() string      { return constants.DirectionOut }

func (s *payrollStrategy) Category(FlowInput) (string, error) {
	return constants.CategoryPayroll, nil
}

func (s *payrollStrategy) Candidates(_ context.Context, scope FlowScope, input FlowInput) ([]RecipientCandidate, error) {
	workers, err := s.workerRepo.ListByStatus(scope.Business.ID, constants.WorkerStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordFetchFailed, err)
	}
	// 结构不合规的员工作为不可付款候选交给校验门，出现在跳过列表中
	_, quarantined := s.schema.FilterWorkers(workers)
	malformed := make(map[string]string, len(quarantined))
	for _, record := range quarantined {
		malformed[record.ID] = "malformed record: " + record.Reason
	}

	selected := map[string]bool{}
	for _, uid := range input.WorkerUIDs {
		if uid = strings.TrimSpace(uid); uid != "" {
			selected[uid] = true
		}
	}
	candidates := make([]RecipientCandidate, 0, len(workers))
	for _, worker := range workers {
		if len(selected) > 0 && !selected[worker.UID] {
			continue
		}
		candidates = append(candidates, RecipientCandidate{
			RecipientID:   worker.UID,
			Name:          worker.Name,
			Email:         worker.Email,
			WalletAddress: worker.WalletAddress,
			Amount:        worker.Salary.String(),
			Ineligible:    malformed[worker.UID],
		})
	}
	return candidates, nil
}

func (s *payrollStrategy) PeriodLabel(now time.Time, input FlowInput) string {
	if label := strings.TrimSpace(input.PeriodLabel); label != "" {
		return label
	}
	return PeriodLabel(now)
}

func (s *payrollStrategy) AfterSuccess(*gorm.DB, *models.PaymentIntent, time.Time) error {
	return nil
}

type depositStrategy struct {
	poolAddress string
}

func (s *depositStrategy) Flow() string           { return constants.FlowDeposit }
func (s *depositStrategy) Prefix() string         { return constants.IntentPrefixDeposit }
func (s *depositStrategy) Mode() GateMode         { return GateStrict }
func (s *depositStrategy) ContractMethod() string { return constants.ContractMethodDeposit }
func (s *depositStrategy) Direction() string      { return constants.DirectionIn }

func (s *depositStrategy) Category(input FlowInput) (string, error) {
	return pickCategory(input.Category, constants.DepositCategoryRevenue, depositCategories)
}

func (s *depositStrategy) Candidates(_ context.Context, scope FlowScope, input FlowInput) ([]RecipientCandidate, error) {
	if s.poolAddress == "" {
		return nil, ErrPoolAddressMissing
	}
	return []RecipientCandidate{{
		RecipientID:   s.poolAddress,
		Name:          "Employer pool",
		WalletAddress: s.poolAddress,
		Amount:        input.Amount,
	}}, nil
}

func (s *depositStrategy) PeriodLabel(time.Time, FlowInput) string { return "" }

func (s *depositStrategy) AfterSuccess(*gorm.DB, *models.PaymentIntent, time.Time) error {
	return nil
}

type withdrawalStrategy struct{}

func (s *withdrawalStrategy) Flow() string           { return constants.FlowWithdrawal }
func (s *withdrawalStrategy) Prefix() string         { return constants.IntentPrefixWithdrawal }
func (s *withdrawalStrategy) Mode() GateMode         { return GateStrict }
func (s *withdrawalStrategy) ContractMethod() string { return constants.ContractMethodWithdraw }
func (s *withdrawalStrategy) Direction() string      { return constants.DirectionOut }

func (s *withdrawalStrategy) Category(input FlowInput) (string, error) {
	return pickCategory(input.Category, constants.CategoryWithdrawal, withdrawalCategories)
}

func (s *withdrawalStrategy) Candidates(_ context.Context, scope FlowScope, input FlowInput) ([]RecipientCandidate, error) {
	registered := strings.TrimSpace(scope.Business.WalletAddress)
	wallet := strings.TrimSpace(input.RecipientAddress)
	if wallet == "" {
		wallet = registered
	}
	if err := ValidateWalletAddress(wallet); err != nil {
		return nil, err
	}
	candidate := RecipientCandidate{
		RecipientID:   wallet,
		Name:          "External wallet",
		WalletAddress: wallet,
		Amount:        input.Amount,
	}
	if strings.EqualFold(wallet, registered) {
		candidate.Name = scope.Business.Name
		candidate.Email = scope.Business.Email
	}
	return []RecipientCandidate{candidate}, nil
}

func (s *withdrawalStrategy) PeriodLabel(time.Time, FlowInput) string { return "" }

func (s *withdrawalStrategy) AfterSuccess(*gorm.DB, *models.PaymentIntent, time.Time) error {
	return nil
}
