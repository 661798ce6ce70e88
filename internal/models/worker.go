package models

import "time"

// Worker 企业员工（批量发薪对象）
type Worker struct {
	ID            uint        `gorm:"primarykey" json:"id"`                                              // 主键
	UID           string      `gorm:"size:36;uniqueIndex;not null" json:"uid" validate:"required"`       // 对外标识
	BusinessID    uint        `gorm:"index;not null" json:"business_id" validate:"required"`             // 所属企业
	Name          string      `gorm:"size:128;not null" json:"name" validate:"required,max=128"`         // 姓名
	Email         string      `gorm:"size:255;index" json:"email" validate:"omitempty,email"`            // 邮箱
	WalletAddress string      `gorm:"size:42" json:"wallet_address" validate:"omitempty,wallet_address"` // 收款钱包
	Salary        TokenAmount `gorm:"type:decimal(30,6);not null;default:0" json:"salary"`               // 月薪（USDC）
	Status        string      `gorm:"size:16;index;not null" json:"status" validate:"oneof=invited active inactive"`
	ConnectCode   string      `gorm:"size:64;index" json:"-"` // 员工绑定钱包的邀请码
	ConnectedAt   *time.Time  `json:"connected_at"`           // 钱包绑定时间
	CreatedAt     time.Time   `json:"created_at"`             // 创建时间
	UpdatedAt     time.Time   `json:"updated_at"`             // 更新时间
}

// TableName 指定表名
func (Worker) TableName() string {
	return "workers"
}
