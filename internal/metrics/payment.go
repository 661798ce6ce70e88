package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "employer_pool"

// PaymentMetrics 支付意图生命周期指标
type PaymentMetrics struct {
	created             *prometheus.CounterVec
	reconciled          *prometheus.CounterVec
	quarantined         *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	invocations         *prometheus.CounterVec
}

// NewPaymentMetrics 在给定注册器上注册支付指标，reg 为 nil 时返回空实现
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "intents_created_total",
		Help:      "Payment intents persisted in Pending state.",
	}, []string{"flow"})
	reconciled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "intents_reconciled_total",
		Help:      "Payment intents moved to a terminal status.",
	}, []string{"flow", "status"})
	quarantined := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_quarantined_total",
		Help:      "Stored records skipped because they failed schema validation.",
	}, []string{"kind"})
	persistenceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_failures_total",
		Help:      "Store writes that failed during the payment saga.",
	}, []string{"stage"})
	invocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signer_invocations_total",
		Help:      "Submissions to the signing gateway by result.",
	}, []string{"flow", "result"})
	reg.MustRegister(created, reconciled, quarantined, persistenceFailures, invocations)
	return &PaymentMetrics{
		created:             created,
		reconciled:          reconciled,
		quarantined:         quarantined,
		persistenceFailures: persistenceFailures,
		invocations:         invocations,
	}
}

// IncIntentCreated 记录新建意图
func (m *PaymentMetrics) IncIntentCreated(flow string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(flow)).Inc()
}

// IncReconciled 记录终态迁移
func (m *PaymentMetrics) IncReconciled(flow, status string) {
	if m == nil || m.reconciled == nil {
		return
	}
	m.reconciled.WithLabelValues(normalizeLabel(flow), normalizeLabel(status)).Inc()
}

// IncQuarantined 记录被隔离的记录
func (m *PaymentMetrics) IncQuarantined(kind string) {
	if m == nil || m.quarantined == nil {
		return
	}
	m.quarantined.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncPersistenceFailure 记录持久化失败
func (m *PaymentMetrics) IncPersistenceFailure(stage string) {
	if m == nil || m.persistenceFailures == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(normalizeLabel(stage)).Inc()
}

// IncInvocation 记录签名网关调用结果
func (m *PaymentMetrics) IncInvocation(flow, result string) {
	if m == nil || m.invocations == nil {
		return
	}
	m.invocations.WithLabelValues(normalizeLabel(flow), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
