package models

import "time"

// Operator 企业操作员（登录身份）
type Operator struct {
	ID                 uint       `gorm:"primarykey" json:"id"`
	BusinessID         uint       `gorm:"index;not null" json:"business_id"`
	Email              string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	DisplayName        string     `gorm:"size:128" json:"display_name"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	Role               string     `gorm:"size:32;not null" json:"role"` // owner / payroll_manager / viewer
	TokenVersion       uint64     `gorm:"not null;default:0" json:"-"`  // 令牌版本，修改密码后递增
	TokenInvalidBefore *time.Time `json:"-"`                            // 该时间前签发的令牌失效
	LastLoginAt        *time.Time `json:"last_login_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Business *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
}

// TableName 指定表名
func (Operator) TableName() string {
	return "operators"
}
