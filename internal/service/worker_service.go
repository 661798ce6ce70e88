package service

import (
	"strings"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"

	"github.com/google/uuid"
)

// WorkerAddInput 添加员工输入
type WorkerAddInput struct {
	Name   string
	Email  string
	Salary string
}

// WorkerService 员工服务
type WorkerService struct {
	workerRepo repository.WorkerRepository
	schema     *RecordSchema
}

// NewWorkerService 创建员工服务
func NewWorkerService(workerRepo repository.WorkerRepository, schema *RecordSchema) *WorkerService {
	return &WorkerService{workerRepo: workerRepo, schema: schema}
}

// Add 添加员工，生成钱包绑定邀请码
func (s *WorkerService) Add(businessID uint, input WorkerAddInput) (*models.Worker, error) {
	salary, err := ParseAmount(input.Salary)
	if err != nil {
		return nil, err
	}
	worker := &models.Worker{
		UID:         uuid.NewString(),
		BusinessID:  businessID,
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Salary:      salary,
		Status:      constants.WorkerStatusInvited,
		ConnectCode: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	if err := s.schema.CheckWorker(worker); err != nil {
		return nil, wrapValidation(err)
	}
	if err := s.workerRepo.Create(worker); err != nil {
		return nil, ErrRecordSaveFailed
	}
	logger.Infow("worker_added", "business_id", businessID, "worker_uid", worker.UID)
	return worker, nil
}

// ConnectWallet 员工通过邀请码绑定钱包，状态变为 active
func (s *WorkerService) ConnectWallet(code, walletAddress string) (*models.Worker, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrConnectCodeInvalid
	}
	if err := ValidateWalletAddress(walletAddress); err != nil {
		return nil, err
	}
	worker, err := s.workerRepo.GetByConnectCode(code)
	if err != nil {
		return nil, ErrRecordFetchFailed
	}
	if worker == nil {
		return nil, ErrConnectCodeInvalid
	}
	if worker.ConnectedAt != nil {
		return nil, ErrWorkerConnected
	}
	now := time.Now()
	worker.WalletAddress = strings.TrimSpace(walletAddress)
	worker.Status = constants.WorkerStatusActive
	worker.ConnectedAt = &now
	if err := s.workerRepo.Update(worker); err != nil {
		return nil, ErrRecordSaveFailed
	}
	logger.Infow("worker_wallet_connected", "business_id", worker.BusinessID, "worker_uid", worker.UID)
	return worker, nil
}

// Get 获取员工
func (s *WorkerService) Get(businessID, id uint) (*models.Worker, error) {
	worker, err := s.workerRepo.GetByID(businessID, id)
	if err != nil {
		return nil, ErrRecordFetchFailed
	}
	if worker == nil {
		return nil, ErrWorkerNotFound
	}
	return worker, nil
}

// List 分页列出员工，跳过不合规记录
func (s *WorkerService) List(filter repository.WorkerListFilter) ([]models.Worker, int64, error) {
	workers, total, err := s.workerRepo.List(filter)
	if err != nil {
		return nil, 0, ErrRecordFetchFailed
	}
	valid, skipped := s.schema.FilterWorkers(workers)
	return valid, total - int64(len(skipped)), nil
}
