package business

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/http/handlers/shared"
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/i18n"
	"github.com/employer-pool/internal/queue"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// IdempotencyKeyHeader 客户端幂等键请求头
const IdempotencyKeyHeader = "Idempotency-Key"

// 同一窗口内重复的手动清扫只投递一次
const sweepEnqueueWindow = time.Minute

// ContractorPaymentRequest 承包商付款请求
type ContractorPaymentRequest struct {
	ContractorUID string `json:"contractor_uid" binding:"required"`
	Amount        string `json:"amount"`
	PeriodLabel   string `json:"period_label"`
	GasLimit      uint64 `json:"gas_limit"`
}

// PayrollRequest 批量发薪请求，worker_uids 为空时发放全部在职员工
type PayrollRequest struct {
	WorkerUIDs  []string `json:"worker_uids"`
	PeriodLabel string   `json:"period_label"`
	GasLimit    uint64   `json:"gas_limit"`
}

// PoolTransferRequest 资金池充值 / 提现请求，recipient_address 仅用于提现
type PoolTransferRequest struct {
	Amount           string `json:"amount" binding:"required"`
	Category         string `json:"category"`
	RecipientAddress string `json:"recipient_address"`
	GasLimit         uint64 `json:"gas_limit"`
}

// OutcomeRequest 前端上报的链上执行结果
type OutcomeRequest struct {
	Kind            string `json:"kind" binding:"required"`
	TransactionHash string `json:"transaction_hash"`
	Reason          string `json:"reason"`
}

// PayContractor 向单个承包商付款
func (h *Handler) PayContractor(c *gin.Context) {
	var req ContractorPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.initiate(c, constants.FlowContractorPayment, service.FlowInput{
		ContractorUID: req.ContractorUID,
		Amount:        req.Amount,
		PeriodLabel:   req.PeriodLabel,
		GasLimit:      req.GasLimit,
	})
}

// RunPayroll 批量发薪
func (h *Handler) RunPayroll(c *gin.Context) {
	var req PayrollRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.initiate(c, constants.FlowPayroll, service.FlowInput{
		WorkerUIDs:  req.WorkerUIDs,
		PeriodLabel: req.PeriodLabel,
		GasLimit:    req.GasLimit,
	})
}

// DepositToPool 向资金池充值
func (h *Handler) DepositToPool(c *gin.Context) {
	var req PoolTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.initiate(c, constants.FlowDeposit, service.FlowInput{
		Amount:   req.Amount,
		Category: req.Category,
		GasLimit: req.GasLimit,
	})
}

// WithdrawFromPool 从资金池提现，未指定地址时提到企业注册钱包
func (h *Handler) WithdrawFromPool(c *gin.Context) {
	var req PoolTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.initiate(c, constants.FlowWithdrawal, service.FlowInput{
		Amount:           req.Amount,
		Category:         req.Category,
		RecipientAddress: req.RecipientAddress,
		GasLimit:         req.GasLimit,
	})
}

// bindOptionalJSON 请求体可省略；分块传输时 ContentLength 为 -1，同样需要解析
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) initiate(c *gin.Context, flow string, input service.FlowInput) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	input.IdempotencyKey = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if input.GasLimit == 0 {
		input.GasLimit = h.Config.Signer.DefaultGasLimit
	}

	result, err := h.PaymentFlow.Initiate(c.Request.Context(), session, flow, input)
	if err != nil {
		if result != nil && result.Intent != nil {
			// 已写入意图但调用失败，返回结算后的意图供前端展示
			respondPaymentErrorWithData(c, err, result)
			return
		}
		shared.RespondPaymentError(c, err, "error.payment_initiate_failed")
		return
	}
	response.Success(c, result)
}

// ReportOutcome 上报链上执行结果
func (h *Handler) ReportOutcome(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.PaymentFlow.ReportOutcome(c.Request.Context(), session, c.Param("id"), service.Outcome{
		Kind:            strings.TrimSpace(req.Kind),
		TransactionHash: strings.TrimSpace(req.TransactionHash),
		Reason:          strings.TrimSpace(req.Reason),
	})
	if err != nil {
		shared.RespondPaymentError(c, err, "error.internal")
		return
	}
	response.Success(c, result)
}

// CheckIntent 主动向签名网关核对单个 Pending 意图
func (h *Handler) CheckIntent(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	intent, err := h.PaymentQuery.GetIntent(session.BusinessID, c.Param("id"))
	if err != nil {
		shared.RespondPaymentError(c, err, "error.intent_fetch_failed")
		return
	}
	result, err := h.SweepService.CheckIntent(c.Request.Context(), intent.ID)
	if err != nil {
		shared.RespondPaymentError(c, err, "error.invocation_unknown")
		return
	}
	response.Success(c, gin.H{
		"intent_id":     result.IntentID,
		"gateway_state": result.GatewayState,
		"status":        result.Status,
		"applied":       result.Applied,
	})
}

// SweepStale 立即执行一次滞留意图清扫；async=true 且队列可用时改为投递清扫任务
func (h *Handler) SweepStale(c *gin.Context) {
	if c.Query("async") == "true" && h.QueueClient != nil && h.QueueClient.Enabled() {
		h.enqueueSweep(c)
		return
	}
	report, err := h.SweepService.SweepStale(c.Request.Context())
	if report == nil || errors.Is(err, service.ErrIntentFetchFailed) {
		shared.RespondError(c, response.CodeInternal, "error.sweep_failed", err)
		return
	}
	if err != nil {
		shared.RequestLog(c).Warnw("business_sweep_partial_failure", "error", err)
	}
	response.Success(c, report)
}

func (h *Handler) enqueueSweep(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	payload := queue.IntentSweepPayload{Reason: fmt.Sprintf("manual:operator_%d", session.OperatorID)}
	err := h.QueueClient.EnqueueIntentSweep(payload, asynq.Unique(sweepEnqueueWindow))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		shared.RespondError(c, response.CodeInternal, "error.sweep_failed", err)
		return
	}
	response.Success(c, gin.H{"queued": true, "duplicate": err != nil})
}

func respondPaymentErrorWithData(c *gin.Context, err error, result *service.InitiateResult) {
	locale := i18n.ResolveLocale(c)
	for _, rule := range shared.ConcatMappedErrors(shared.PaymentErrorRules, shared.ValidationErrorRules) {
		if errors.Is(err, rule.Target) {
			shared.RequestLog(c).Warnw("business_payment_settled_with_error",
				"intent_id", result.Intent.ID,
				"status", result.Intent.Status,
				"error", err,
			)
			response.ErrorWithData(c, rule.Code, i18n.T(locale, rule.Key), gin.H{"result": result})
			return
		}
	}
	shared.RespondPaymentError(c, err, "error.payment_initiate_failed")
}
