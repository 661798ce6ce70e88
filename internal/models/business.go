package models

import "time"

// Business 付款企业
type Business struct {
	ID            uint      `gorm:"primarykey" json:"id"`                       // 主键
	Name          string    `gorm:"size:128;not null" json:"name"`              // 企业名称
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"` // 联系邮箱
	WalletAddress string    `gorm:"size:42;index" json:"wallet_address"`        // 注册的付款钱包地址
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (Business) TableName() string {
	return "businesses"
}
