package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSON 通用 JSON 字段
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return nil
	}
}

// IntentRecipient 支付意图中的收款方（创建后不可变）
type IntentRecipient struct {
	RecipientID    string      `json:"recipient_id" validate:"required"`
	RecipientName  string      `json:"recipient_name"`
	RecipientEmail string      `json:"recipient_email" validate:"omitempty,email"`
	WalletAddress  string      `json:"wallet_address" validate:"required,wallet_address"`
	Amount         TokenAmount `json:"amount"`
	MinorAmount    string      `json:"minor_amount" validate:"required,numeric"` // 6 位精度最小单位
}

// PaymentIntent 支付意图（待处理 / 终态记录）
type PaymentIntent struct {
	ID              string            `gorm:"primaryKey;size:64" json:"id" validate:"required"`
	BusinessID      uint              `gorm:"index;not null" json:"business_id" validate:"required"`
	OperatorID      uint              `gorm:"index" json:"operator_id"`
	Flow            string            `gorm:"size:32;index;not null" json:"flow" validate:"oneof=contractor_payment payroll deposit withdrawal"`
	Status          string            `gorm:"size:16;index;not null" json:"status" validate:"oneof=Pending Success Failed"`
	TotalAmount     TokenAmount       `gorm:"type:decimal(30,6);not null" json:"total_amount"`
	Token           string            `gorm:"size:16;not null" json:"token" validate:"required"`
	Recipients      []IntentRecipient `gorm:"serializer:json;type:text;not null" json:"recipients" validate:"required,min=1,dive"`
	Category        string            `gorm:"size:64" json:"category"`
	PeriodLabel     string            `gorm:"size:32" json:"period_label"`
	ContractMethod  string            `gorm:"size:64" json:"contract_method"`
	GasLimit        uint64            `json:"gas_limit"`
	IdempotencyKey  *string           `gorm:"size:191;uniqueIndex" json:"-"`
	SignerRequestID string            `gorm:"size:128;index" json:"signer_request_id"`
	TransactionHash *string           `gorm:"size:128;index" json:"transaction_hash"`
	ErrorDetails    *string           `gorm:"type:text" json:"error_details"`
	GatewayPayload  JSON              `gorm:"type:json" json:"-"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	SubmittedAt     *time.Time        `json:"submitted_at"`
	SettledAt       *time.Time        `gorm:"index" json:"settled_at"`
	LastCheckedAt   *time.Time        `gorm:"index" json:"last_checked_at"` // 最近一次清扫核对时间
}

// TableName 指定表名
func (PaymentIntent) TableName() string {
	return "payment_intents"
}

// IsTerminal 是否已处于终态
func (p *PaymentIntent) IsTerminal() bool {
	return p != nil && (p.Status == "Success" || p.Status == "Failed")
}

// PrimaryRecipient 返回首个收款方
func (p *PaymentIntent) PrimaryRecipient() *IntentRecipient {
	if p == nil || len(p.Recipients) == 0 {
		return nil
	}
	return &p.Recipients[0]
}
