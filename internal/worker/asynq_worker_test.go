package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/employer-pool/internal/config"
	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/metrics"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/provider"
	"github.com/employer-pool/internal/queue"
	"github.com/employer-pool/internal/repository"
	"github.com/employer-pool/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubInvoker struct {
	states map[string]*service.GatewayStatus
	err    error
}

func (s *stubInvoker) Submit(context.Context, service.InvocationRequest) (*service.Submission, error) {
	return nil, service.ErrInvocationRejected
}

func (s *stubInvoker) Query(_ context.Context, query service.InvocationQuery) (*service.GatewayStatus, error) {
	if s.err != nil {
		return nil, s.err
	}
	if status, ok := s.states[query.IntentID]; ok {
		return status, nil
	}
	return &service.GatewayStatus{State: constants.GatewayStateUnknown}, nil
}

type workerTestEnv struct {
	consumer   *Consumer
	intentRepo *repository.GormIntentRepository
	invoker    *stubInvoker
	registry   *prometheus.Registry
}

func setupWorkerTest(t *testing.T) *workerTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	intentRepo := repository.NewIntentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	schema := service.NewRecordSchema(nil)
	strategies := service.NewFlowStrategies(repository.NewContractorRepository(db), repository.NewWorkerRepository(db), schema, "0x9999999999999999999999999999999999999999")
	reconciler := service.NewReconciler(intentRepo, historyRepo, strategies, schema, nil)
	invoker := &stubInvoker{states: map[string]*service.GatewayStatus{}}
	registry := prometheus.NewRegistry()

	container := &provider.Container{
		Config:       &config.Config{},
		DB:           db,
		JobMetrics:   metrics.NewJobMetrics(registry),
		IntentRepo:   intentRepo,
		HistoryRepo:  historyRepo,
		Reconciler:   reconciler,
		SweepService: service.NewSweepService(intentRepo, invoker, reconciler, schema, time.Hour, 10),
	}
	return &workerTestEnv{
		consumer:   NewConsumer(container),
		intentRepo: intentRepo,
		invoker:    invoker,
		registry:   registry,
	}
}

func (e *workerTestEnv) seedPending(t *testing.T, id string, createdAt time.Time) {
	t.Helper()
	amount := models.NewTokenAmount(decimal.RequireFromString("12.5"))
	intent := &models.PaymentIntent{
		ID:          id,
		BusinessID:  1,
		Flow:        constants.FlowPayroll,
		Status:      constants.IntentStatusPending,
		Token:       constants.TokenUSDC,
		TotalAmount: amount,
		Category:    constants.CategoryPayroll,
		Recipients: []models.IntentRecipient{{
			RecipientID:   "w-1",
			WalletAddress: "0x2222222222222222222222222222222222222222",
			Amount:        amount,
			MinorAmount:   amount.MinorUnits().String(),
		}},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := e.intentRepo.Create(intent); err != nil {
		t.Fatalf("seed intent failed: %v", err)
	}
}

func (e *workerTestEnv) status(t *testing.T, id string) string {
	t.Helper()
	intent, err := e.intentRepo.GetByID(id)
	if err != nil || intent == nil {
		t.Fatalf("reload intent %s failed: %v", id, err)
	}
	return intent.Status
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics failed: %v", err)
	}
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func statusCheckTask(t *testing.T, payload queue.IntentStatusCheckPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskIntentStatusCheck, body)
}

func TestHandleIntentStatusCheckSettlesConfirmed(t *testing.T) {
	env := setupWorkerTest(t)
	env.seedPending(t, "payroll_1_0001", time.Now())
	env.invoker.states["payroll_1_0001"] = &service.GatewayStatus{State: constants.GatewayStateConfirmed, TransactionHash: "0xabc"}

	if err := env.consumer.handleIntentStatusCheck(context.Background(), statusCheckTask(t, queue.IntentStatusCheckPayload{IntentID: "payroll_1_0001"})); err != nil {
		t.Fatalf("status check failed: %v", err)
	}
	if got := env.status(t, "payroll_1_0001"); got != constants.IntentStatusSuccess {
		t.Fatalf("status want Success got %s", got)
	}
	if got := counterValue(t, env.registry, "employer_pool_job_success_total"); got != 1 {
		t.Fatalf("job success counter want 1 got %v", got)
	}
}

func TestHandleIntentStatusCheckKeepsFreshUnknownPending(t *testing.T) {
	env := setupWorkerTest(t)
	env.seedPending(t, "payroll_1_0002", time.Now())

	if err := env.consumer.handleIntentStatusCheck(context.Background(), statusCheckTask(t, queue.IntentStatusCheckPayload{IntentID: "payroll_1_0002", Attempt: 1})); err != nil {
		t.Fatalf("status check failed: %v", err)
	}
	if got := env.status(t, "payroll_1_0002"); got != constants.IntentStatusPending {
		t.Fatalf("fresh unknown intent must stay Pending, got %s", got)
	}
}

func TestHandleIntentStatusCheckGatewayOutageDoesNotSettle(t *testing.T) {
	env := setupWorkerTest(t)
	env.seedPending(t, "payroll_1_0003", time.Now().Add(-2*time.Hour))
	env.invoker.err = fmt.Errorf("%w: connection refused", service.ErrInvocationUnknown)

	if err := env.consumer.handleIntentStatusCheck(context.Background(), statusCheckTask(t, queue.IntentStatusCheckPayload{IntentID: "payroll_1_0003"})); err != nil {
		t.Fatalf("gateway outage without queue should not error, got %v", err)
	}
	if got := env.status(t, "payroll_1_0003"); got != constants.IntentStatusPending {
		t.Fatalf("outage must not settle, got %s", got)
	}
}

func TestHandleIntentStatusCheckSkipsEmptyPayload(t *testing.T) {
	env := setupWorkerTest(t)
	if err := env.consumer.handleIntentStatusCheck(context.Background(), statusCheckTask(t, queue.IntentStatusCheckPayload{})); err != nil {
		t.Fatalf("empty payload should be skipped, got %v", err)
	}
	if err := env.consumer.handleIntentStatusCheck(context.Background(), asynq.NewTask(queue.TaskIntentStatusCheck, []byte("{"))); err == nil {
		t.Fatalf("broken payload should return error")
	}
}

func TestRunSweepAbandonsStaleIntents(t *testing.T) {
	env := setupWorkerTest(t)
	env.seedPending(t, "payroll_1_0004", time.Now().Add(-2*time.Hour))
	env.seedPending(t, "payroll_1_0005", time.Now())

	report, err := env.consumer.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if report == nil || report.Scanned != 1 || report.Abandoned != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := env.status(t, "payroll_1_0004"); got != constants.IntentStatusFailed {
		t.Fatalf("stale intent want Failed got %s", got)
	}
	if got := env.status(t, "payroll_1_0005"); got != constants.IntentStatusPending {
		t.Fatalf("fresh intent want Pending got %s", got)
	}
}

func TestRunSweepSkipsWhenLocked(t *testing.T) {
	env := setupWorkerTest(t)
	env.seedPending(t, "payroll_1_0006", time.Now().Add(-2*time.Hour))

	token, held, err := env.consumer.lock.Acquire(context.Background())
	if err != nil || !held {
		t.Fatalf("acquire lock failed: held=%v err=%v", held, err)
	}
	report, err := env.consumer.RunSweep(context.Background())
	if err != nil || report != nil {
		t.Fatalf("locked sweep should be skipped, report=%+v err=%v", report, err)
	}
	if got := env.status(t, "payroll_1_0006"); got != constants.IntentStatusPending {
		t.Fatalf("skipped sweep must not settle, got %s", got)
	}

	if err := env.consumer.lock.Release(context.Background(), token); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := env.consumer.RunSweep(context.Background()); err != nil {
		t.Fatalf("sweep after release failed: %v", err)
	}
	if got := env.status(t, "payroll_1_0006"); got != constants.IntentStatusFailed {
		t.Fatalf("stale intent want Failed got %s", got)
	}
}

func TestSweepLoopStopsOnCancel(t *testing.T) {
	env := setupWorkerTest(t)
	loop, err := NewSweepLoop(env.consumer, time.Hour)
	if err != nil {
		t.Fatalf("new sweep loop failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("loop exit error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("sweep loop did not stop after cancel")
	}
}

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, &Consumer{}); err == nil {
		t.Fatalf("disabled queue should return error")
	}
	if _, err := NewSweepLoop(nil, time.Minute); err == nil {
		t.Fatalf("nil consumer should return error")
	}
}

func TestLocalSweepLockIgnoresStaleToken(t *testing.T) {
	lock := newLocalSweepLock()
	first, ok, err := lock.Acquire(context.Background())
	if err != nil || !ok || first == "" {
		t.Fatalf("first acquire failed: token=%q ok=%v err=%v", first, ok, err)
	}
	if _, ok, _ := lock.Acquire(context.Background()); ok {
		t.Fatalf("second acquire must fail while held")
	}
	if err := lock.Release(context.Background(), first); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	second, ok, err := lock.Acquire(context.Background())
	if err != nil || !ok || second == first {
		t.Fatalf("reacquire want a new token: token=%q ok=%v err=%v", second, ok, err)
	}
	// 旧持有者延迟释放不能解除新持有者的锁
	if err := lock.Release(context.Background(), first); err != nil {
		t.Fatalf("stale release failed: %v", err)
	}
	if _, ok, _ := lock.Acquire(context.Background()); ok {
		t.Fatalf("stale token must not release the current holder")
	}
	if err := lock.Release(context.Background(), second); err != nil {
		t.Fatalf("release failed: %v", err)
	}
}

func TestNewRedisSweepLockValidatesInput(t *testing.T) {
	if _, err := NewRedisSweepLock(nil, "employer_pool:sweep", time.Minute); err == nil {
		t.Fatalf("nil client should be rejected")
	}
}
