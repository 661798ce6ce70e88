package repository

import (
	"errors"

	"github.com/employer-pool/internal/models"

	"gorm.io/gorm"
)

// BusinessRepository 企业数据访问接口
type BusinessRepository interface {
	Create(business *models.Business) error
	Update(business *models.Business) error
	GetByID(id uint) (*models.Business, error)
}

// GormBusinessRepository GORM 实现
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository 创建企业仓库
func NewBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

// Create 创建企业
func (r *GormBusinessRepository) Create(business *models.Business) error {
	return r.db.Create(business).Error
}

// Update 更新企业
func (r *GormBusinessRepository) Update(business *models.Business) error {
	return r.db.Save(business).Error
}

// GetByID 根据 ID 获取企业
func (r *GormBusinessRepository) GetByID(id uint) (*models.Business, error) {
	if id == 0 {
		return nil, nil
	}
	var business models.Business
	if err := r.db.First(&business, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &business, nil
}
