package repository

import "time"

// IntentListFilter 查询支付意图列表的过滤条件
type IntentListFilter struct {
	Page        int
	PageSize    int
	BusinessID  uint
	Flow        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Search      string // 意图 ID、交易哈希或收款人
}

// HistoryListFilter 查询支付历史 / 钱包流水的过滤条件
type HistoryListFilter struct {
	Page       int
	PageSize   int
	BusinessID uint
	Flow       string
	Category   string
	Direction  string
}

// WorkerListFilter 查询员工列表的过滤条件
type WorkerListFilter struct {
	Page       int
	PageSize   int
	BusinessID uint
	Status     string
	Search     string
}

// ContractorListFilter 查询承包商列表的过滤条件
type ContractorListFilter struct {
	Page       int
	PageSize   int
	BusinessID uint
	Status     string
	Search     string
}

// IntentSettlement 终态写入字段（仅允许修改状态、交易哈希、错误详情）
type IntentSettlement struct {
	Status          string
	TransactionHash *string
	ErrorDetails    *string
	GatewayPayload  map[string]interface{}
	SettledAt       time.Time
}
