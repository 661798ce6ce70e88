package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/models"

	"gorm.io/gorm"
)

// IntentRepository 支付意图数据访问接口
type IntentRepository interface {
	Create(intent *models.PaymentIntent) error
	GetByID(id string) (*models.PaymentIntent, error)
	GetByBusinessAndID(businessID uint, id string) (*models.PaymentIntent, error)
	GetByIdempotencyKey(key string) (*models.PaymentIntent, error)
	Exists(id string) (bool, error)
	MarkSubmitted(id, signerRequestID string, transactionHash *string, submittedAt time.Time) (bool, error)
	Settle(id string, settlement IntentSettlement) (bool, error)
	ListStalePending(before time.Time, limit int) ([]models.PaymentIntent, error)
	TouchChecked(ids []string, checkedAt time.Time) error
	List(filter IntentListFilter) ([]models.PaymentIntent, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormIntentRepository
}

// GormIntentRepository GORM 实现
type GormIntentRepository struct {
	db *gorm.DB
}

// NewIntentRepository 创建支付意图仓库
func NewIntentRepository(db *gorm.DB) *GormIntentRepository {
	return &GormIntentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormIntentRepository) WithTx(tx *gorm.DB) *GormIntentRepository {
	if tx == nil {
		return r
	}
	return &GormIntentRepository{db: tx}
}

// Transaction 执行事务
func (r *GormIntentRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建支付意图
func (r *GormIntentRepository) Create(intent *models.PaymentIntent) error {
	return r.db.Create(intent).Error
}

// GetByID 根据 ID 获取支付意图
func (r *GormIntentRepository) GetByID(id string) (*models.PaymentIntent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.Where("id = ?", id).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// GetByBusinessAndID 获取企业名下的支付意图
func (r *GormIntentRepository) GetByBusinessAndID(businessID uint, id string) (*models.PaymentIntent, error) {
	intent, err := r.GetByID(id)
	if err != nil || intent == nil {
		return nil, err
	}
	if intent.BusinessID != businessID {
		return nil, nil
	}
	return intent, nil
}

// GetByIdempotencyKey 根据幂等键获取支付意图
func (r *GormIntentRepository) GetByIdempotencyKey(key string) (*models.PaymentIntent, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var intent models.PaymentIntent
	result := r.db.Where("idempotency_key = ?", key).Limit(1).Find(&intent)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &intent, nil
}

// Exists 判断 ID 是否已被占用
func (r *GormIntentRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.PaymentIntent{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkSubmitted 记录签名网关受理信息，仅对 Pending 生效
func (r *GormIntentRepository) MarkSubmitted(id, signerRequestID string, transactionHash *string, submittedAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"signer_request_id": strings.TrimSpace(signerRequestID),
		"submitted_at":      submittedAt,
		"updated_at":        submittedAt,
	}
	if transactionHash != nil && strings.TrimSpace(*transactionHash) != "" {
		updates["transaction_hash"] = strings.TrimSpace(*transactionHash)
	}
	result := r.db.Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, constants.IntentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Settle 以比较并交换方式写入终态，返回是否实际发生状态迁移
// 仅修改 status / transaction_hash / error_details / 时间戳，金额与收款方不可变
func (r *GormIntentRepository) Settle(id string, settlement IntentSettlement) (bool, error) {
	if settlement.Status != constants.IntentStatusSuccess && settlement.Status != constants.IntentStatusFailed {
		return false, errors.New("settlement status must be terminal")
	}
	settledAt := settlement.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now()
	}
	updates := map[string]interface{}{
		"status":     settlement.Status,
		"settled_at": settledAt,
		"updated_at": settledAt,
	}
	if settlement.TransactionHash != nil {
		updates["transaction_hash"] = *settlement.TransactionHash
	}
	if settlement.ErrorDetails != nil {
		updates["error_details"] = *settlement.ErrorDetails
	}
	if settlement.GatewayPayload != nil {
		updates["gateway_payload"] = models.JSON(settlement.GatewayPayload)
	}
	result := r.db.Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, constants.IntentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListStalePending 查询早于指定时间仍为 Pending 的意图，从未核对过的优先，其次按最近核对时间轮转
func (r *GormIntentRepository) ListStalePending(before time.Time, limit int) ([]models.PaymentIntent, error) {
	query := r.db.Where("status = ? AND created_at < ?", constants.IntentStatusPending, before).
		Order("CASE WHEN last_checked_at IS NULL THEN 0 ELSE 1 END").
		Order("last_checked_at asc").
		Order("created_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var intents []models.PaymentIntent
	if err := query.Find(&intents).Error; err != nil {
		return nil, err
	}
	return intents, nil
}

// TouchChecked 记录清扫核对时间，仅作用于仍为 Pending 的意图
func (r *GormIntentRepository) TouchChecked(ids []string, checkedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.PaymentIntent{}).
		Where("id IN ? AND status = ?", ids, constants.IntentStatusPending).
		UpdateColumn("last_checked_at", checkedAt).Error
}

// List 分页查询支付意图
func (r *GormIntentRepository) List(filter IntentListFilter) ([]models.PaymentIntent, int64, error) {
	query := r.db.Model(&models.PaymentIntent{})
	if filter.BusinessID != 0 {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.Flow != "" {
		query = query.Where("flow = ?", filter.Flow)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	query = applySearch(query, filter.Search, []string{"id", "transaction_hash"}, []string{"recipients"})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var intents []models.PaymentIntent
	if err := query.Order("created_at desc").Find(&intents).Error; err != nil {
		return nil, 0, err
	}
	return intents, total, nil
}
