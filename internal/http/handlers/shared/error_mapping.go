package shared

import (
	"errors"

	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/i18n"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 业务错误到接口错误响应的映射。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// SessionErrorRules 会话与钱包校验错误。
var SessionErrorRules = []MappedError{
	{Target: service.ErrSessionInvalid, Code: response.CodeUnauthorized, Key: "error.session_invalid"},
	{Target: service.ErrWalletNotConnected, Code: response.CodeForbidden, Key: "error.wallet_not_connected"},
	{Target: service.ErrWalletMismatch, Code: response.CodeForbidden, Key: "error.wallet_mismatch"},
	{Target: service.ErrForbidden, Code: response.CodeForbidden, Key: "error.forbidden"},
}

// ValidationErrorRules 输入校验错误，细分错误需排在 ErrValidation 之前。
var ValidationErrorRules = []MappedError{
	{Target: service.ErrInvalidWalletAddress, Code: response.CodeBadRequest, Key: "error.invalid_wallet_address"},
	{Target: service.ErrAmountPrecision, Code: response.CodeBadRequest, Key: "error.amount_precision"},
	{Target: service.ErrInvalidAmount, Code: response.CodeBadRequest, Key: "error.invalid_amount"},
	{Target: service.ErrNoEligibleRecipients, Code: response.CodeBadRequest, Key: "error.no_eligible_recipients"},
	{Target: service.ErrNoRecipients, Code: response.CodeBadRequest, Key: "error.no_recipients"},
	{Target: service.ErrTotalMismatch, Code: response.CodeBadRequest, Key: "error.total_mismatch"},
	{Target: service.ErrRecipientIneligible, Code: response.CodeBadRequest, Key: "error.recipient_ineligible"},
	{Target: service.ErrGasLimitInvalid, Code: response.CodeBadRequest, Key: "error.gas_limit_invalid"},
	{Target: service.ErrTokenUnsupported, Code: response.CodeBadRequest, Key: "error.token_unsupported"},
	{Target: service.ErrFlowUnsupported, Code: response.CodeBadRequest, Key: "error.flow_unsupported"},
	{Target: service.ErrOutcomeInvalid, Code: response.CodeBadRequest, Key: "error.outcome_invalid"},
	{Target: service.ErrIdempotencyKeyInvalid, Code: response.CodeBadRequest, Key: "error.idempotency_key_invalid"},
	{Target: service.ErrPoolAddressMissing, Code: response.CodeInternal, Key: "error.pool_address_missing"},
	{Target: service.ErrValidation, Code: response.CodeBadRequest, Key: "error.validation"},
}

// NotFoundErrorRules 资源不存在错误。
var NotFoundErrorRules = []MappedError{
	{Target: service.ErrIntentNotFound, Code: response.CodeNotFound, Key: "error.intent_not_found"},
	{Target: service.ErrContractorNotFound, Code: response.CodeNotFound, Key: "error.contractor_not_found"},
	{Target: service.ErrWorkerNotFound, Code: response.CodeNotFound, Key: "error.worker_not_found"},
	{Target: service.ErrBusinessNotFound, Code: response.CodeNotFound, Key: "error.business_not_found"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
}

// PaymentErrorRules 支付 saga 各阶段错误。
var PaymentErrorRules = []MappedError{
	{Target: service.ErrIntentPersistence, Code: response.CodeInternal, Key: "error.intent_persistence"},
	{Target: service.ErrReconcilePersistence, Code: response.CodeInternal, Key: "error.reconcile_persistence"},
	{Target: service.ErrInvocationRejected, Code: response.CodeUnprocessable, Key: "error.invocation_rejected"},
	{Target: service.ErrInvocationFailed, Code: response.CodeUnprocessable, Key: "error.invocation_failed"},
	{Target: service.ErrInvocationUnknown, Code: response.CodeBadGateway, Key: "error.invocation_unknown"},
	{Target: service.ErrIntentMalformed, Code: response.CodeConflict, Key: "error.intent_malformed"},
	{Target: service.ErrIntentFetchFailed, Code: response.CodeInternal, Key: "error.intent_fetch_failed"},
	{Target: service.ErrRecordFetchFailed, Code: response.CodeInternal, Key: "error.record_fetch_failed"},
	{Target: service.ErrRecordSaveFailed, Code: response.CodeInternal, Key: "error.record_save_failed"},
}

// ConcatMappedErrors 合并多组映射规则。
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// RespondMappedError 按规则映射业务错误，未命中时返回兜底错误并记录日志。
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	var policyErr service.PasswordPolicyError
	if errors.As(err, &policyErr) {
		locale := i18n.ResolveLocale(c)
		RespondErrorWithMsg(c, response.CodeBadRequest, i18n.Sprintf(locale, policyErr.Key(), policyErr.Args()...), nil)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// RespondPaymentError 支付相关接口的统一错误响应。
func RespondPaymentError(c *gin.Context, err error, fallbackKey string) {
	RespondMappedError(c, err, ConcatMappedErrors(SessionErrorRules, ValidationErrorRules, NotFoundErrorRules, PaymentErrorRules), response.CodeInternal, fallbackKey)
}
