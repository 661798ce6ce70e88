package service

import (
	"strings"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"

	"github.com/google/uuid"
)

// ContractorInviteInput 邀请承包商输入
type ContractorInviteInput struct {
	Name          string
	Email         string
	Role          string
	WalletAddress string
	PaymentAmount string
}

// ContractorService 承包商服务
type ContractorService struct {
	contractorRepo repository.ContractorRepository
	schema         *RecordSchema
}

// NewContractorService 创建承包商服务
func NewContractorService(contractorRepo repository.ContractorRepository, schema *RecordSchema) *ContractorService {
	return &ContractorService{contractorRepo: contractorRepo, schema: schema}
}

// Invite 邀请承包商，初始状态为 Invited
func (s *ContractorService) Invite(businessID uint, input ContractorInviteInput) (*models.Contractor, error) {
	amount, err := ParseAmount(input.PaymentAmount)
	if err != nil {
		return nil, err
	}
	wallet := strings.TrimSpace(input.WalletAddress)
	if wallet != "" {
		if err := ValidateWalletAddress(wallet); err != nil {
			return nil, err
		}
	}
	contractor := &models.Contractor{
		UID:           uuid.NewString(),
		BusinessID:    businessID,
		Name:          strings.TrimSpace(input.Name),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Role:          strings.TrimSpace(input.Role),
		WalletAddress: wallet,
		PaymentAmount: amount,
		Status:        constants.ContractorStatusInvited,
	}
	if err := s.schema.CheckContractor(contractor); err != nil {
		return nil, wrapValidation(err)
	}
	if err := s.contractorRepo.Create(contractor); err != nil {
		return nil, ErrRecordSaveFailed
	}
	logger.Infow("contractor_invited", "business_id", businessID, "contractor_uid", contractor.UID)
	return contractor, nil
}

// Activate 承包商接受邀请并绑定钱包
func (s *ContractorService) Activate(businessID, id uint, walletAddress string) (*models.Contractor, error) {
	if err := ValidateWalletAddress(walletAddress); err != nil {
		return nil, err
	}
	contractor, err := s.contractorRepo.GetByID(businessID, id)
	if err != nil {
		return nil, ErrRecordFetchFailed
	}
	if contractor == nil {
		return nil, ErrContractorNotFound
	}
	contractor.WalletAddress = strings.TrimSpace(walletAddress)
	if contractor.Status == constants.ContractorStatusInvited || contractor.Status == constants.ContractorStatusInactive {
		contractor.Status = constants.ContractorStatusActive
	}
	if err := s.contractorRepo.Update(contractor); err != nil {
		return nil, ErrRecordSaveFailed
	}
	return contractor, nil
}

// Get 获取承包商
func (s *ContractorService) Get(businessID, id uint) (*models.Contractor, error) {
	contractor, err := s.contractorRepo.GetByID(businessID, id)
	if err != nil {
		return nil, ErrRecordFetchFailed
	}
	if contractor == nil {
		return nil, ErrContractorNotFound
	}
	if err := s.schema.CheckContractor(contractor); err != nil {
		s.schema.quarantine(quarantineKindContractor, contractor.UID, err)
		return nil, ErrContractorNotFound
	}
	return contractor, nil
}

// List 分页列出承包商，跳过不合规记录
func (s *ContractorService) List(filter repository.ContractorListFilter) ([]models.Contractor, int64, error) {
	contractors, total, err := s.contractorRepo.List(filter)
	if err != nil {
		return nil, 0, ErrRecordFetchFailed
	}
	valid, skipped := s.schema.FilterContractors(contractors)
	return valid, total - int64(len(skipped)), nil
}
