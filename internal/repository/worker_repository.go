package repository

import (
	"errors"
	"strings"

	"github.com/employer-pool/internal/models"

	"gorm.io/gorm"
)

// WorkerRepository 员工数据访问接口
type WorkerRepository interface {
	Create(worker *models.Worker) error
	Update(worker *models.Worker) error
	GetByID(businessID, id uint) (*models.Worker, error)
	GetByConnectCode(code string) (*models.Worker, error)
	List(filter WorkerListFilter) ([]models.Worker, int64, error)
	ListByStatus(businessID uint, status string) ([]models.Worker, error)
	WithTx(tx *gorm.DB) *GormWorkerRepository
}

// GormWorkerRepository GORM 实现
type GormWorkerRepository struct {
	db *gorm.DB
}

// NewWorkerRepository 创建员工仓库
func NewWorkerRepository(db *gorm.DB) *GormWorkerRepository {
	return &GormWorkerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWorkerRepository) WithTx(tx *gorm.DB) *GormWorkerRepository {
	if tx == nil {
		return r
	}
	return &GormWorkerRepository{db: tx}
}

// Create 创建员工
func (r *GormWorkerRepository) Create(worker *models.Worker) error {
	return r.db.Create(worker).Error
}

// Update 更新员工
func (r *GormWorkerRepository) Update(worker *models.Worker) error {
	return r.db.Save(worker).Error
}

// GetByID 获取企业下的员工
func (r *GormWorkerRepository) GetByID(businessID, id uint) (*models.Worker, error) {
	if businessID == 0 || id == 0 {
		return nil, nil
	}
	var worker models.Worker
	if err := r.db.Where("business_id = ? AND id = ?", businessID, id).First(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &worker, nil
}

// GetByConnectCode 根据邀请码获取员工
func (r *GormWorkerRepository) GetByConnectCode(code string) (*models.Worker, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var worker models.Worker
	if err := r.db.Where("connect_code = ?", code).First(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &worker, nil
}

// List 分页查询员工
func (r *GormWorkerRepository) List(filter WorkerListFilter) ([]models.Worker, int64, error) {
	query := r.db.Model(&models.Worker{}).Where("business_id = ?", filter.BusinessID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = applySearch(query, filter.Search, []string{"name", "email", "wallet_address"}, nil)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var workers []models.Worker
	if err := query.Order("id asc").Find(&workers).Error; err != nil {
		return nil, 0, err
	}
	return workers, total, nil
}

// ListByStatus 获取企业下指定状态的全部员工（发薪用，按 ID 排序）
func (r *GormWorkerRepository) ListByStatus(businessID uint, status string) ([]models.Worker, error) {
	var workers []models.Worker
	if err := r.db.Where("business_id = ? AND status = ?", businessID, status).
		Order("id asc").
		Find(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}
