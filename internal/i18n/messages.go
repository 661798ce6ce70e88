package i18n

var enUS = map[string]string{
	"error.bad_request":              "Invalid request",
	"error.unauthorized":             "Please sign in again",
	"error.forbidden":                "You do not have permission to do this",
	"error.not_found":                "Resource not found",
	"error.internal":                 "Something went wrong, please try again later",
	"error.too_many_requests":        "Too many attempts, please try again later",
	"error.invalid_credentials":      "Incorrect email or password",
	"error.operator_disabled":        "This account has been disabled",
	"error.token_invalid":            "Your session is invalid, please sign in again",
	"error.token_revoked":            "Your session has expired, please sign in again",
	"error.password_min_length":      "Password must be at least %d characters",
	"error.password_require_upper":   "Password must contain an uppercase letter",
	"error.password_require_lower":   "Password must contain a lowercase letter",
	"error.password_require_number":  "Password must contain a number",
	"error.password_require_special": "Password must contain a special character",
	"error.email_exists":             "This email is already registered",
	"error.captcha_required":         "Please complete the captcha",
	"error.captcha_invalid":          "The captcha is incorrect",
	"error.captcha_config_invalid":   "Captcha is not configured",
	"error.captcha_verify_failed":    "Captcha verification failed",

	"error.session_invalid":      "Your session is invalid, please sign in again",
	"error.wallet_not_connected": "Connect your wallet to continue",
	"error.wallet_mismatch":      "The connected wallet does not match the wallet registered for this business",

	"error.validation":                 "Some of the submitted data is invalid",
	"error.invalid_wallet_address":     "Invalid wallet address",
	"error.invalid_amount":             "Amount must be a positive number",
	"error.amount_precision":           "Amount cannot have more than 6 decimal places",
	"error.no_recipients":              "No recipient was provided",
	"error.no_eligible_recipients":     "No eligible recipients to pay",
	"error.total_mismatch":             "The total does not match the recipient amounts",
	"error.recipient_ineligible":       "This recipient cannot be paid right now",
	"error.gas_limit_invalid":          "Gas limit is too low",
	"error.token_unsupported":          "This token is not supported",
	"error.flow_unsupported":           "This payment type is not supported",
	"error.outcome_invalid":            "Unknown payment outcome",
	"error.idempotency_key_invalid":    "Idempotency key is too long",
	"error.pool_address_missing":       "The payroll pool address is not configured",
	"error.intent_persistence":         "Could not record the payment. Nothing was sent",
	"error.intent_fetch_failed":        "Could not load the payment",
	"error.record_fetch_failed":        "Could not load records",
	"error.record_save_failed":         "Could not save the record",
	"error.invocation_rejected":        "The transaction was rejected",
	"error.invocation_failed":          "The transaction failed",
	"error.invocation_unknown":         "The transaction result is not known yet",
	"error.reconcile_persistence":      "The on-chain action finished, but our records were not updated. Please contact support",
	"error.intent_not_found":           "Payment not found",
	"error.intent_malformed":           "This payment record is damaged and cannot be shown",
	"error.contractor_not_found":       "Contractor not found",
	"error.worker_not_found":           "Worker not found",
	"error.business_not_found":         "Business not found",
	"error.connect_code_invalid":       "This invitation link is invalid",
	"error.worker_connected":           "A wallet is already connected for this invitation",
	"error.callback_signature_invalid": "Invalid callback signature",
	"error.callback_payload_invalid":   "Invalid callback payload",
	"error.payment_initiate_failed":    "Could not start the payment",
	"error.login_failed":               "Sign in failed",
	"error.auth_header_missing":        "Missing authorization header",
	"error.auth_header_invalid":        "Invalid authorization header",
	"error.jwt_secret_missing":         "Authentication is not configured",
	"error.sweep_failed":               "Reconciliation sweep failed",
	"error.rate_limited":               "Too many attempts, please retry in %d seconds",
	"error.rate_limit_unavailable":     "Rate limiting is temporarily unavailable",
}

var zhCN = map[string]string{
	"error.bad_request":              "请求参数错误",
	"error.unauthorized":             "请重新登录",
	"error.forbidden":                "无权执行该操作",
	"error.not_found":                "资源不存在",
	"error.internal":                 "服务异常，请稍后重试",
	"error.too_many_requests":        "尝试次数过多，请稍后再试",
	"error.invalid_credentials":      "邮箱或密码错误",
	"error.operator_disabled":        "账号已被停用",
	"error.token_invalid":            "登录状态无效，请重新登录",
	"error.token_revoked":            "登录已失效，请重新登录",
	"error.password_min_length":      "密码长度至少为 %d 位",
	"error.password_require_upper":   "密码需包含大写字母",
	"error.password_require_lower":   "密码需包含小写字母",
	"error.password_require_number":  "密码需包含数字",
	"error.password_require_special": "密码需包含特殊字符",
	"error.email_exists":             "该邮箱已注册",
	"error.captcha_required":         "请完成验证码",
	"error.captcha_invalid":          "验证码错误",
	"error.captcha_config_invalid":   "验证码未配置",
	"error.captcha_verify_failed":    "验证码校验失败",

	"error.session_invalid":      "登录状态无效，请重新登录",
	"error.wallet_not_connected": "请先连接钱包",
	"error.wallet_mismatch":      "当前连接的钱包与企业注册钱包不一致",

	"error.validation":                 "提交的数据不合法",
	"error.invalid_wallet_address":     "钱包地址无效",
	"error.invalid_amount":             "金额必须为正数",
	"error.amount_precision":           "金额最多保留 6 位小数",
	"error.no_recipients":              "未指定收款方",
	"error.no_eligible_recipients":     "没有可付款的收款方",
	"error.total_mismatch":             "总金额与收款方金额之和不一致",
	"error.recipient_ineligible":       "该收款方当前不可付款",
	"error.gas_limit_invalid":          "Gas 上限过低",
	"error.token_unsupported":          "不支持该代币",
	"error.flow_unsupported":           "不支持该付款类型",
	"error.outcome_invalid":            "未知的付款结果",
	"error.idempotency_key_invalid":    "幂等键过长",
	"error.pool_address_missing":       "未配置资金池地址",
	"error.intent_persistence":         "付款记录写入失败，未发起任何转账",
	"error.intent_fetch_failed":        "付款记录加载失败",
	"error.record_fetch_failed":        "记录加载失败",
	"error.record_save_failed":         "记录保存失败",
	"error.invocation_rejected":        "交易已被拒绝",
	"error.invocation_failed":          "交易执行失败",
	"error.invocation_unknown":         "交易结果暂未确认",
	"error.reconcile_persistence":      "链上操作已完成，但记录未能更新，请联系客服",
	"error.intent_not_found":           "付款记录不存在",
	"error.intent_malformed":           "该付款记录已损坏，无法展示",
	"error.contractor_not_found":       "承包商不存在",
	"error.worker_not_found":           "员工不存在",
	"error.business_not_found":         "企业不存在",
	"error.connect_code_invalid":       "邀请链接无效",
	"error.worker_connected":           "该邀请已绑定钱包",
	"error.callback_signature_invalid": "回调签名无效",
	"error.callback_payload_invalid":   "回调数据无效",
	"error.payment_initiate_failed":    "发起付款失败",
	"error.login_failed":               "登录失败",
	"error.auth_header_missing":        "缺少认证信息",
	"error.auth_header_invalid":        "认证信息格式错误",
	"error.jwt_secret_missing":         "认证未配置",
	"error.sweep_failed":               "对账清扫失败",
	"error.rate_limited":               "请求过于频繁，请在 %d 秒后重试",
	"error.rate_limit_unavailable":     "限流服务暂不可用",
}
