package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/models"

	"gorm.io/gorm"
)

// ContractorRepository 承包商数据访问接口
type ContractorRepository interface {
	Create(contractor *models.Contractor) error
	Update(contractor *models.Contractor) error
	GetByID(businessID, id uint) (*models.Contractor, error)
	GetByUID(uid string) (*models.Contractor, error)
	List(filter ContractorListFilter) ([]models.Contractor, int64, error)
	MarkPaid(uid, intentID string, paidAt time.Time) error
	WithTx(tx *gorm.DB) *GormContractorRepository
}

// GormContractorRepository GORM 实现
type GormContractorRepository struct {
	db *gorm.DB
}

// NewContractorRepository 创建承包商仓库
func NewContractorRepository(db *gorm.DB) *GormContractorRepository {
	return &GormContractorRepository{db: db}
}

// WithTx 绑定事务
func (r *GormContractorRepository) WithTx(tx *gorm.DB) *GormContractorRepository {
	if tx == nil {
		return r
	}
	return &GormContractorRepository{db: tx}
}

// Create 创建承包商
func (r *GormContractorRepository) Create(contractor *models.Contractor) error {
	return r.db.Create(contractor).Error
}

// Update 更新承包商
func (r *GormContractorRepository) Update(contractor *models.Contractor) error {
	return r.db.Save(contractor).Error
}

// GetByID 获取企业下的承包商
func (r *GormContractorRepository) GetByID(businessID, id uint) (*models.Contractor, error) {
	if businessID == 0 || id == 0 {
		return nil, nil
	}
	var contractor models.Contractor
	if err := r.db.Where("business_id = ? AND id = ?", businessID, id).First(&contractor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contractor, nil
}

// GetByUID 根据对外标识获取承包商
func (r *GormContractorRepository) GetByUID(uid string) (*models.Contractor, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, nil
	}
	var contractor models.Contractor
	if err := r.db.Where("uid = ?", uid).First(&contractor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contractor, nil
}

// List 分页查询承包商
func (r *GormContractorRepository) List(filter ContractorListFilter) ([]models.Contractor, int64, error) {
	query := r.db.Model(&models.Contractor{}).Where("business_id = ?", filter.BusinessID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = applySearch(query, filter.Search, []string{"name", "email", "wallet_address"}, nil)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var contractors []models.Contractor
	if err := query.Order("id desc").Find(&contractors).Error; err != nil {
		return nil, 0, err
	}
	return contractors, total, nil
}

// MarkPaid 将承包商状态推进为 Paid
func (r *GormContractorRepository) MarkPaid(uid, intentID string, paidAt time.Time) error {
	result := r.db.Model(&models.Contractor{}).
		Where("uid = ?", strings.TrimSpace(uid)).
		Updates(map[string]interface{}{
			"status":         constants.ContractorStatusPaid,
			"last_intent_id": intentID,
			"paid_at":        paidAt,
			"updated_at":     paidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
