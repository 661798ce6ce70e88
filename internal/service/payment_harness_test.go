package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	testBusinessWallet = "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"
	testPoolAddress    = "0x9999999999999999999999999999999999999999"
	testContractAddr   = "0x8888888888888888888888888888888888888888"
)

type fakeInvoker struct {
	submission *Submission
	submitErr  error
	status     *GatewayStatus
	queryErr   error
	submitted  []InvocationRequest
	queries    []InvocationQuery
}

func (f *fakeInvoker) Submit(_ context.Context, req InvocationRequest) (*Submission, error) {
	f.submitted = append(f.submitted, req)
	return f.submission, f.submitErr
}

func (f *fakeInvoker) Query(_ context.Context, query InvocationQuery) (*GatewayStatus, error) {
	f.queries = append(f.queries, query)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.status, nil
}

type paymentHarness struct {
	db             *gorm.DB
	business       *models.Business
	intentRepo     *repository.GormIntentRepository
	historyRepo    *repository.GormHistoryRepository
	contractorRepo *repository.GormContractorRepository
	workerRepo     *repository.GormWorkerRepository
	schema         *RecordSchema
	writer         *IntentWriter
	reconciler     *Reconciler
	invoker        *fakeInvoker
	flow           *PaymentFlowService
}

func setupPaymentHarness(t *testing.T) *paymentHarness {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	h := &paymentHarness{
		db:             db,
		intentRepo:     repository.NewIntentRepository(db),
		historyRepo:    repository.NewHistoryRepository(db),
		contractorRepo: repository.NewContractorRepository(db),
		workerRepo:     repository.NewWorkerRepository(db),
		schema:         NewRecordSchema(nil),
		invoker:        &fakeInvoker{submission: &Submission{RequestID: "req-1"}},
	}
	businessRepo := repository.NewBusinessRepository(db)
	h.business = &models.Business{Name: "Acme", Email: "owner@acme.test", WalletAddress: testBusinessWallet}
	if err := businessRepo.Create(h.business); err != nil {
		t.Fatalf("create business failed: %v", err)
	}

	strategies := NewFlowStrategies(h.contractorRepo, h.workerRepo, h.schema, testPoolAddress)
	h.writer = NewIntentWriter(h.intentRepo, nil)
	h.reconciler = NewReconciler(h.intentRepo, h.historyRepo, strategies, h.schema, nil)
	h.flow = NewPaymentFlowService(PaymentFlowOptions{
		Writer:          h.writer,
		Reconciler:      h.reconciler,
		Invoker:         h.invoker,
		Strategies:      strategies,
		BusinessRepo:    businessRepo,
		IntentRepo:      h.intentRepo,
		ContractAddress: testContractAddr,
	})
	return h
}

func (h *paymentHarness) session() *Session {
	return &Session{
		OperatorID:       7,
		BusinessID:       h.business.ID,
		Role:             constants.OperatorRoleOwner,
		RegisteredWallet: testBusinessWallet,
		ConnectedWallet:  "0xabcdef0123456789abcdef0123456789abcdef01",
		RequestID:        "test-request",
	}
}

func (h *paymentHarness) createContractor(t *testing.T, uid, status, wallet, amount string) *models.Contractor {
	t.Helper()
	contractor := &models.Contractor{
		UID:           uid,
		BusinessID:    h.business.ID,
		Name:          "Contractor " + uid,
		Email:         uid + "@example.com",
		WalletAddress: wallet,
		PaymentAmount: models.NewTokenAmount(decimal.RequireFromString(amount)),
		Status:        status,
	}
	if err := h.contractorRepo.Create(contractor); err != nil {
		t.Fatalf("create contractor failed: %v", err)
	}
	return contractor
}

func (h *paymentHarness) createWorker(t *testing.T, uid, wallet, salary string) *models.Worker {
	t.Helper()
	worker := &models.Worker{
		UID:           uid,
		BusinessID:    h.business.ID,
		Name:          "Worker " + uid,
		Email:         uid + "@example.com",
		WalletAddress: wallet,
		Salary:        models.NewTokenAmount(decimal.RequireFromString(salary)),
		Status:        constants.WorkerStatusActive,
	}
	if err := h.workerRepo.Create(worker); err != nil {
		t.Fatalf("create worker failed: %v", err)
	}
	return worker
}

func (h *paymentHarness) seedPendingIntent(t *testing.T, id string, createdAt time.Time) *models.PaymentIntent {
	t.Helper()
	amount := models.NewTokenAmount(decimal.RequireFromString("25"))
	intent := &models.PaymentIntent{
		ID:          id,
		BusinessID:  h.business.ID,
		Flow:        constants.FlowPayroll,
		Status:      constants.IntentStatusPending,
		Token:       constants.TokenUSDC,
		TotalAmount: amount,
		Recipients: []models.IntentRecipient{{
			RecipientID:   "w-0001",
			RecipientName: "Grace",
			WalletAddress: "0x2222222222222222222222222222222222222222",
			Amount:        amount,
			MinorAmount:   amount.MinorUnits().String(),
		}},
		Category:  constants.CategoryPayroll,
		GasLimit:  constants.DefaultGasLimit,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := h.intentRepo.Create(intent); err != nil {
		t.Fatalf("seed intent failed: %v", err)
	}
	return intent
}

func (h *paymentHarness) reload(t *testing.T, id string) *models.PaymentIntent {
	t.Helper()
	intent, err := h.intentRepo.GetByID(id)
	if err != nil || intent == nil {
		t.Fatalf("reload intent %s failed: %v", id, err)
	}
	return intent
}

func (h *paymentHarness) historyCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := h.db.Model(&models.PaymentHistory{}).Count(&count).Error; err != nil {
		t.Fatalf("count history failed: %v", err)
	}
	return count
}
