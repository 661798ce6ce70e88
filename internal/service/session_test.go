package service

import (
	"errors"
	"testing"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/models"

	"github.com/shopspring/decimal"
)

func TestSessionRequireWalletMatch(t *testing.T) {
	var nilSession *Session
	if err := nilSession.RequireWalletMatch(); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("nil session want ErrSessionInvalid, got %v", err)
	}
	session := &Session{OperatorID: 1, BusinessID: 2, RegisteredWallet: walletA}
	if err := session.RequireWalletMatch(); !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("want ErrWalletNotConnected, got %v", err)
	}
	session.ConnectedWallet = walletB
	if err := session.RequireWalletMatch(); !errors.Is(err, ErrWalletMismatch) {
		t.Fatalf("want ErrWalletMismatch, got %v", err)
	}
	session.ConnectedWallet = " " + walletA + " "
	if err := session.RequireWalletMatch(); err != nil {
		t.Fatalf("matching wallet should pass: %v", err)
	}
}

func TestRecordSchemaQuarantinesMalformedWorkers(t *testing.T) {
	schema := NewRecordSchema(nil)
	workers := []models.Worker{
		{UID: "w-1", BusinessID: 1, Name: "Ok", WalletAddress: walletA, Status: constants.WorkerStatusActive},
		{UID: "w-2", BusinessID: 1, Name: "Bad wallet", WalletAddress: "0xnope", Status: constants.WorkerStatusActive},
		{UID: "w-3", BusinessID: 1, Name: "Bad status", Status: "retired"},
		{UID: "w-4", BusinessID: 1, Name: "Negative", Status: constants.WorkerStatusActive, Salary: models.NewTokenAmount(decimal.RequireFromString("-1"))},
	}
	valid, skipped := schema.FilterWorkers(workers)
	if len(valid) != 1 || valid[0].UID != "w-1" {
		t.Fatalf("unexpected valid workers: %+v", valid)
	}
	if len(skipped) != 3 {
		t.Fatalf("want 3 quarantined, got %+v", skipped)
	}
	for _, record := range skipped {
		if record.Kind != "worker" || record.Reason == "" {
			t.Fatalf("unexpected quarantine record: %+v", record)
		}
	}
}

func TestIsWalletAddress(t *testing.T) {
	for _, address := range []string{walletA, testBusinessWallet, "0xABCDEF0123456789ABCDEF0123456789ABCDEF01"} {
		if !IsWalletAddress(address) {
			t.Fatalf("%s should be valid", address)
		}
	}
	for _, address := range []string{"", "0x123", "1111111111111111111111111111111111111111", "0xZZ11111111111111111111111111111111111111"} {
		if IsWalletAddress(address) {
			t.Fatalf("%q should be invalid", address)
		}
	}
}
