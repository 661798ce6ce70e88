package models

import "time"

// Contractor 承包商（单笔付款对象）
type Contractor struct {
	ID            uint        `gorm:"primarykey" json:"id"`                                              // 主键
	UID           string      `gorm:"size:36;uniqueIndex;not null" json:"uid" validate:"required"`       // 对外标识
	BusinessID    uint        `gorm:"index;not null" json:"business_id" validate:"required"`             // 所属企业
	Name          string      `gorm:"size:128;not null" json:"name" validate:"required,max=128"`         // 名称
	Email         string      `gorm:"size:255;index" json:"email" validate:"omitempty,email"`            // 邮箱
	Role          string      `gorm:"size:128" json:"role"`                                              // 岗位描述
	WalletAddress string      `gorm:"size:42" json:"wallet_address" validate:"omitempty,wallet_address"` // 收款钱包
	PaymentAmount TokenAmount `gorm:"type:decimal(30,6);not null;default:0" json:"payment_amount"`       // 约定金额（USDC）
	Status        string      `gorm:"size:16;index;not null" json:"status" validate:"oneof=Invited Active Paid Inactive"`
	LastIntentID  string      `gorm:"size:64" json:"last_intent_id"` // 最近一次成功付款的意图
	PaidAt        *time.Time  `json:"paid_at"`                       // 付款完成时间
	CreatedAt     time.Time   `json:"created_at"`                    // 创建时间
	UpdatedAt     time.Time   `json:"updated_at"`                    // 更新时间
}

// TableName 指定表名
func (Contractor) TableName() string {
	return "contractors"
}
