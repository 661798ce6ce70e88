package models

import "time"

// PaymentHistory 成功支付的派生记录，同时作为钱包流水视图
type PaymentHistory struct {
	ID               uint        `gorm:"primarykey" json:"id"`
	IntentID         string      `gorm:"size:64;uniqueIndex;not null" json:"intent_id"` // 每个意图最多一条
	BusinessID       uint        `gorm:"index;not null" json:"business_id"`
	Flow             string      `gorm:"size:32;index;not null" json:"flow"`
	Category         string      `gorm:"size:64;index" json:"category"`
	Direction        string      `gorm:"size:8;index;not null" json:"direction"` // in / out
	Amount           TokenAmount `gorm:"type:decimal(30,6);not null" json:"amount"`
	Token            string      `gorm:"size:16;not null" json:"token"`
	RecipientCount   int         `gorm:"not null" json:"recipient_count"`
	RecipientSummary string      `gorm:"type:text" json:"recipient_summary"`
	TransactionHash  string      `gorm:"size:128;index" json:"transaction_hash"`
	PeriodLabel      string      `gorm:"size:32" json:"period_label"`
	OccurredAt       time.Time   `gorm:"index" json:"occurred_at"`
	CreatedAt        time.Time   `json:"created_at"`
}

// TableName 指定表名
func (PaymentHistory) TableName() string {
	return "payment_histories"
}
