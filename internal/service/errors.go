package service

import (
	"errors"
	"fmt"
)

// 分类错误，调用方使用 errors.Is 判断
var (
	ErrValidation           = errors.New("validation failed")
	ErrPersistence          = errors.New("persistence failed")
	ErrInvocationRejected   = errors.New("payment invocation rejected")
	ErrInvocationFailed     = errors.New("payment execution failed")
	ErrInvocationUnknown    = errors.New("payment invocation result unknown")
	ErrReconcilePersistence = errors.New("on-chain action succeeded/failed, but our records were not updated — contact support")
)

// 校验类错误
var (
	ErrInvalidWalletAddress  = fmt.Errorf("%w: invalid wallet address", ErrValidation)
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrAmountPrecision       = fmt.Errorf("%w: amount exceeds 6 decimal places", ErrValidation)
	ErrNoRecipients          = fmt.Errorf("%w: recipients must not be empty", ErrValidation)
	ErrNoEligibleRecipients  = fmt.Errorf("%w: no eligible recipients", ErrValidation)
	ErrTotalMismatch         = fmt.Errorf("%w: total amount does not equal the sum of recipient amounts", ErrValidation)
	ErrRecipientIneligible   = fmt.Errorf("%w: recipient is not eligible for payment", ErrValidation)
	ErrGasLimitInvalid       = fmt.Errorf("%w: gas limit must exceed 21000", ErrValidation)
	ErrTokenUnsupported      = fmt.Errorf("%w: token is not supported", ErrValidation)
	ErrFlowUnsupported       = fmt.Errorf("%w: payment flow is not supported", ErrValidation)
	ErrOutcomeInvalid        = fmt.Errorf("%w: outcome kind is invalid", ErrValidation)
	ErrIdempotencyKeyInvalid = fmt.Errorf("%w: idempotency key is too long", ErrValidation)
	ErrPoolAddressMissing    = fmt.Errorf("%w: pool contract address is not configured", ErrValidation)
	ErrCategoryUnsupported   = fmt.Errorf("%w: category is not supported", ErrValidation)
)

// 持久化类错误
var (
	ErrIntentPersistence = fmt.Errorf("%w: pending payment record could not be written", ErrPersistence)
	ErrIntentFetchFailed = fmt.Errorf("%w: payment record could not be read", ErrPersistence)
	ErrRecordFetchFailed = fmt.Errorf("%w: record could not be read", ErrPersistence)
	ErrRecordSaveFailed  = fmt.Errorf("%w: record could not be saved", ErrPersistence)
)

// 会话与资源错误
var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrWalletMismatch     = errors.New("connected wallet does not match the registered business wallet")
	ErrSessionInvalid     = errors.New("session is invalid")
	ErrForbidden          = errors.New("operation not permitted for this role")
	ErrNotFound           = errors.New("not found")
	ErrIntentNotFound     = fmt.Errorf("%w: payment intent", ErrNotFound)
	ErrContractorNotFound = fmt.Errorf("%w: contractor", ErrNotFound)
	ErrWorkerNotFound     = fmt.Errorf("%w: worker", ErrNotFound)
	ErrBusinessNotFound   = fmt.Errorf("%w: business", ErrNotFound)
	ErrIntentMalformed    = errors.New("stored payment intent is malformed")
)

// 认证相关错误
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrOperatorDisabled     = errors.New("operator is disabled")
	ErrTokenInvalid         = errors.New("token is invalid")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrWeakPassword         = errors.New("password does not satisfy the policy")
	ErrCaptchaRequired      = errors.New("captcha is required")
	ErrCaptchaInvalid       = errors.New("captcha is invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config is invalid")
	ErrConnectCodeInvalid   = errors.New("wallet connect code is invalid")
	ErrWorkerConnected      = errors.New("worker wallet already connected")
	ErrEmailExists          = errors.New("email already exists")
)

// 签名网关回调错误
var (
	ErrCallbackSignatureInvalid = errors.New("signer callback signature invalid")
	ErrCallbackPayloadInvalid   = errors.New("signer callback payload invalid")
)
