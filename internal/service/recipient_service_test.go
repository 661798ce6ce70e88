package service

import (
	"errors"
	"testing"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/repository"
)

func TestContractorServiceInviteAndActivate(t *testing.T) {
	h := setupPaymentHarness(t)
	svc := NewContractorService(h.contractorRepo, h.schema)

	if _, err := svc.Invite(h.business.ID, ContractorInviteInput{Name: "Ada", PaymentAmount: "1.0000001"}); !errors.Is(err, ErrAmountPrecision) {
		t.Fatalf("want ErrAmountPrecision, got %v", err)
	}
	contractor, err := svc.Invite(h.business.ID, ContractorInviteInput{Name: "Ada", Email: "ADA@example.com", PaymentAmount: "750"})
	if err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	if contractor.Status != constants.ContractorStatusInvited || contractor.Email != "ada@example.com" || contractor.UID == "" {
		t.Fatalf("unexpected invited contractor: %+v", contractor)
	}

	if _, err := svc.Activate(h.business.ID, contractor.ID, "0x12"); !errors.Is(err, ErrInvalidWalletAddress) {
		t.Fatalf("want ErrInvalidWalletAddress, got %v", err)
	}
	activated, err := svc.Activate(h.business.ID, contractor.ID, walletA)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if activated.Status != constants.ContractorStatusActive || activated.WalletAddress != walletA {
		t.Fatalf("unexpected activated contractor: %+v", activated)
	}
	if _, err := svc.Get(h.business.ID+1, contractor.ID); !errors.Is(err, ErrContractorNotFound) {
		t.Fatalf("other business must not see contractor, got %v", err)
	}

	list, total, err := svc.List(repository.ContractorListFilter{BusinessID: h.business.ID})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("unexpected list: total=%d len=%d err=%v", total, len(list), err)
	}
}

func TestWorkerServiceConnectWallet(t *testing.T) {
	h := setupPaymentHarness(t)
	svc := NewWorkerService(h.workerRepo, h.schema)

	worker, err := svc.Add(h.business.ID, WorkerAddInput{Name: "Grace", Email: "grace@example.com", Salary: "3000"})
	if err != nil {
		t.Fatalf("add worker failed: %v", err)
	}
	if worker.Status != constants.WorkerStatusInvited || worker.ConnectCode == "" {
		t.Fatalf("unexpected worker: %+v", worker)
	}

	if _, err := svc.ConnectWallet("missing", walletA); !errors.Is(err, ErrConnectCodeInvalid) {
		t.Fatalf("want ErrConnectCodeInvalid, got %v", err)
	}
	connected, err := svc.ConnectWallet(worker.ConnectCode, walletB)
	if err != nil {
		t.Fatalf("connect wallet failed: %v", err)
	}
	if connected.Status != constants.WorkerStatusActive || connected.WalletAddress != walletB || connected.ConnectedAt == nil {
		t.Fatalf("unexpected connected worker: %+v", connected)
	}
	if _, err := svc.ConnectWallet(worker.ConnectCode, walletA); !errors.Is(err, ErrWorkerConnected) {
		t.Fatalf("second connect want ErrWorkerConnected, got %v", err)
	}

	active, err := h.workerRepo.ListByStatus(h.business.ID, constants.WorkerStatusActive)
	if err != nil || len(active) != 1 {
		t.Fatalf("connected worker should be payable: %v %d", err, len(active))
	}
}

func TestPaymentQueryServiceSkipsMalformedIntents(t *testing.T) {
	h := setupPaymentHarness(t)
	svc := NewPaymentQueryService(h.intentRepo, h.historyRepo, h.schema)
	good := h.seedPendingIntent(t, "payroll_1_2001", h.writer.now())
	bad := h.seedPendingIntent(t, "payroll_1_2002", h.writer.now())
	if err := h.db.Table("payment_intents").Where("id = ?", bad.ID).Update("status", "Lost").Error; err != nil {
		t.Fatalf("corrupt intent failed: %v", err)
	}

	list, total, err := svc.ListIntents(repository.IntentListFilter{BusinessID: h.business.ID})
	if err != nil {
		t.Fatalf("list intents failed: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != good.ID {
		t.Fatalf("want only %s, got total=%d %+v", good.ID, total, list)
	}
	if _, err := svc.GetIntent(h.business.ID, bad.ID); !errors.Is(err, ErrIntentMalformed) {
		t.Fatalf("want ErrIntentMalformed, got %v", err)
	}
	if _, err := svc.GetIntent(h.business.ID, "missing"); !errors.Is(err, ErrIntentNotFound) {
		t.Fatalf("want ErrIntentNotFound, got %v", err)
	}
}
