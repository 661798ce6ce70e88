package repository

import (
	"errors"

	"github.com/employer-pool/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository 支付历史数据访问接口
type HistoryRepository interface {
	CreateOnce(history *models.PaymentHistory) (bool, error)
	GetByIntentID(intentID string) (*models.PaymentHistory, error)
	List(filter HistoryListFilter) ([]models.PaymentHistory, int64, error)
	WithTx(tx *gorm.DB) *GormHistoryRepository
}

// GormHistoryRepository GORM 实现
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建支付历史仓库
func NewHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormHistoryRepository) WithTx(tx *gorm.DB) *GormHistoryRepository {
	if tx == nil {
		return r
	}
	return &GormHistoryRepository{db: tx}
}

// CreateOnce 按 intent_id 幂等写入，已存在时不重复创建
func (r *GormHistoryRepository) CreateOnce(history *models.PaymentHistory) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "intent_id"}},
		DoNothing: true,
	}).Create(history)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetByIntentID 根据意图 ID 获取历史记录
func (r *GormHistoryRepository) GetByIntentID(intentID string) (*models.PaymentHistory, error) {
	if intentID == "" {
		return nil, nil
	}
	var history models.PaymentHistory
	if err := r.db.Where("intent_id = ?", intentID).First(&history).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &history, nil
}

// List 分页查询支付历史
func (r *GormHistoryRepository) List(filter HistoryListFilter) ([]models.PaymentHistory, int64, error) {
	query := r.db.Model(&models.PaymentHistory{}).Where("business_id = ?", filter.BusinessID)
	if filter.Flow != "" {
		query = query.Where("flow = ?", filter.Flow)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var histories []models.PaymentHistory
	if err := query.Order("occurred_at desc, id desc").Find(&histories).Error; err != nil {
		return nil, 0, err
	}
	return histories, total, nil
}
