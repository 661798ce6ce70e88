package constants

// 支付意图状态常量（单调：Pending -> Success / Failed）
const (
	IntentStatusPending = "Pending"
	IntentStatusSuccess = "Success"
	IntentStatusFailed  = "Failed"
)

// 支付流程类型常量
const (
	FlowContractorPayment = "contractor_payment"
	FlowPayroll           = "payroll"
	FlowDeposit           = "deposit"
	FlowWithdrawal        = "withdrawal"
)

// 支付意图 ID 前缀
const (
	IntentPrefixContractor = "cp"
	IntentPrefixPayroll    = "payroll"
	IntentPrefixDeposit    = "deposit"
	IntentPrefixWithdrawal = "withdraw"
)

// 支付分类标签
const (
	CategoryContractorPayment = "Contractor Payment"
	CategoryPayroll           = "Payroll"
	CategoryWithdrawal        = "Withdrawal"
)

// 充值分类（操作员选择，默认 revenue）
const (
	DepositCategoryRevenue    = "revenue"
	DepositCategoryPayroll    = "payroll"
	DepositCategoryLoan       = "loan"
	DepositCategoryInvestment = "investment"
	DepositCategoryRefund     = "refund"
	DepositCategoryOther      = "other"
)

// 提现分类（可选，未选择时记为 Withdrawal）
const (
	WithdrawalCategoryVendor      = "vendor"
	WithdrawalCategoryRefund      = "refund"
	WithdrawalCategoryInvestment  = "investment"
	WithdrawalCategoryOperational = "operational"
	WithdrawalCategoryOther       = "other"
)

// 资金方向常量
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// 合约方法常量
const (
	ContractMethodTransferByEmployer = "transferByEmployer"
	ContractMethodPayWorkers         = "payWorkers"
	ContractMethodDeposit            = "deposit"
	ContractMethodWithdraw           = "withdraw"
)

// 外部调用结果类型
const (
	OutcomeConfirmed       = "confirmed"
	OutcomeRejected        = "rejected"
	OutcomeExecutionFailed = "execution_failed"
	OutcomeAbandoned       = "abandoned" // 清扫时网关无记录
)

// 签名网关请求状态
const (
	GatewayStatePending   = "pending"
	GatewayStateConfirmed = "confirmed"
	GatewayStateRejected  = "rejected"
	GatewayStateFailed    = "failed"
	GatewayStateUnknown   = "unknown"
)

// 承包商状态常量
const (
	ContractorStatusInvited  = "Invited"
	ContractorStatusActive   = "Active"
	ContractorStatusPaid     = "Paid"
	ContractorStatusInactive = "Inactive"
)

// 员工状态常量
const (
	WorkerStatusInvited  = "invited"
	WorkerStatusActive   = "active"
	WorkerStatusInactive = "inactive"
)

// 操作员角色常量
const (
	OperatorRoleOwner          = "owner"
	OperatorRolePayrollManager = "payroll_manager"
	OperatorRoleViewer         = "viewer"
)

// 结算资产常量
const (
	TokenUSDC          = "USDC"
	TokenDecimals      = 6
	MinGasLimit        = 21000
	DefaultGasLimit    = 200000
	ErrorDetailsMaxLen = 150
)

// 队列相关常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskIntentStatusCheck = "intent:status_check"
	TaskIntentSweep       = "intent:stale_sweep"
)

// 签名网关回调响应
const (
	SignerCallbackSuccess = "success"
	SignerCallbackFail    = "fail"
)
