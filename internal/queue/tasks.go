package queue

import (
	"encoding/json"
	"strings"

	"github.com/employer-pool/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskIntentStatusCheck 单个支付意图的延迟状态核对任务
	TaskIntentStatusCheck = constants.TaskIntentStatusCheck
	// TaskIntentSweep 过期 Pending 意图批量清扫任务
	TaskIntentSweep = constants.TaskIntentSweep
)

// IntentStatusCheckPayload 状态核对任务载荷
type IntentStatusCheckPayload struct {
	IntentID        string `json:"intent_id"`
	SignerRequestID string `json:"signer_request_id"`
	Attempt         int    `json:"attempt"`
}

// IntentSweepPayload 清扫任务载荷
type IntentSweepPayload struct {
	Reason string `json:"reason"`
}

// NewIntentStatusCheckTask 创建状态核对任务
func NewIntentStatusCheckTask(payload IntentStatusCheckPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntentStatusCheck, body), nil
}

// NewIntentSweepTask 创建清扫任务
func NewIntentSweepTask(payload IntentSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntentSweep, body), nil
}

// ParseIntentStatusCheckPayload 解析状态核对任务载荷
func ParseIntentStatusCheckPayload(body []byte) (IntentStatusCheckPayload, error) {
	var payload IntentStatusCheckPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, err
	}
	payload.IntentID = strings.TrimSpace(payload.IntentID)
	payload.SignerRequestID = strings.TrimSpace(payload.SignerRequestID)
	return payload, nil
}
