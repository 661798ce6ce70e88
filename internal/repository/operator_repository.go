package repository

import (
	"errors"
	"strings"

	"github.com/employer-pool/internal/models"

	"gorm.io/gorm"
)

// OperatorRepository 操作员数据访问接口
type OperatorRepository interface {
	Create(operator *models.Operator) error
	Update(operator *models.Operator) error
	GetByID(id uint) (*models.Operator, error)
	GetByEmail(email string) (*models.Operator, error)
	ListByBusiness(businessID uint) ([]models.Operator, error)
}

// GormOperatorRepository GORM 实现
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository 创建操作员仓库
func NewOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// Create 创建操作员
func (r *GormOperatorRepository) Create(operator *models.Operator) error {
	return r.db.Create(operator).Error
}

// Update 更新操作员
func (r *GormOperatorRepository) Update(operator *models.Operator) error {
	return r.db.Save(operator).Error
}

// GetByID 根据 ID 获取操作员
func (r *GormOperatorRepository) GetByID(id uint) (*models.Operator, error) {
	if id == 0 {
		return nil, nil
	}
	var operator models.Operator
	if err := r.db.First(&operator, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// GetByEmail 根据邮箱获取操作员（大小写不敏感）
func (r *GormOperatorRepository) GetByEmail(email string) (*models.Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var operator models.Operator
	if err := r.db.Where("LOWER(email) = ?", email).First(&operator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// ListByBusiness 获取企业下的操作员
func (r *GormOperatorRepository) ListByBusiness(businessID uint) ([]models.Operator, error) {
	var operators []models.Operator
	if err := r.db.Where("business_id = ?", businessID).Order("id asc").Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}
