package service

import (
	"errors"
	"testing"

	"github.com/employer-pool/internal/models"
)

func TestValidateRecipientsStrict(t *testing.T) {
	result, err := ValidateRecipients(GateStrict, []RecipientCandidate{
		{RecipientID: "c-1", Name: "Ada", WalletAddress: walletA, Amount: "500.00"},
	})
	if err != nil {
		t.Fatalf("strict gate failed: %v", err)
	}
	if result.Total.String() != "500.000000" || result.Recipients[0].MinorAmount != "500000000" {
		t.Fatalf("unexpected gate result: total=%s minor=%s", result.Total.String(), result.Recipients[0].MinorAmount)
	}

	_, err = ValidateRecipients(GateStrict, []RecipientCandidate{
		{RecipientID: "c-1", WalletAddress: walletA, Amount: "1"},
		{RecipientID: "c-2", WalletAddress: "", Amount: "1"},
	})
	if !errors.Is(err, ErrInvalidWalletAddress) {
		t.Fatalf("strict gate want ErrInvalidWalletAddress, got %v", err)
	}
	if _, err := ValidateRecipients(GateStrict, nil); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("empty strict gate want ErrNoRecipients, got %v", err)
	}
}

func TestValidateRecipientsFilter(t *testing.T) {
	result, err := ValidateRecipients(GateFilter, []RecipientCandidate{
		{RecipientID: "w-1", WalletAddress: walletA, Amount: "100"},
		{RecipientID: "w-2", WalletAddress: "", Amount: "100"},
		{RecipientID: "w-3", WalletAddress: walletB, Amount: "1.0000001"},
		{RecipientID: "w-4", WalletAddress: walletB, Amount: "-5"},
		{RecipientID: "w-5", WalletAddress: walletB, Amount: "10", Ineligible: "on leave"},
	})
	if err != nil {
		t.Fatalf("filter gate failed: %v", err)
	}
	if len(result.Recipients) != 1 || result.Recipients[0].RecipientID != "w-1" {
		t.Fatalf("unexpected eligible recipients: %+v", result.Recipients)
	}
	want := map[string]string{
		"w-2": "wallet not connected",
		"w-3": "amount exceeds 6 decimal places",
		"w-4": "amount must be positive",
		"w-5": "on leave",
	}
	if len(result.Skipped) != len(want) {
		t.Fatalf("want %d skipped, got %+v", len(want), result.Skipped)
	}
	for _, skipped := range result.Skipped {
		if want[skipped.RecipientID] != skipped.Reason {
			t.Fatalf("skip reason for %s want %q got %q", skipped.RecipientID, want[skipped.RecipientID], skipped.Reason)
		}
	}

	if _, err := ValidateRecipients(GateFilter, []RecipientCandidate{{RecipientID: "w-2", Amount: "1"}}); !errors.Is(err, ErrNoEligibleRecipients) {
		t.Fatalf("want ErrNoEligibleRecipients, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	if _, err := ParseAmount("0.1234567"); !errors.Is(err, ErrAmountPrecision) {
		t.Fatalf("want ErrAmountPrecision, got %v", err)
	}
	for _, raw := range []string{"", "0", "-1", "abc"} {
		if _, err := ParseAmount(raw); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q) want ErrInvalidAmount, got %v", raw, err)
		}
	}
	amount, err := ParseAmount(" 0.000001 ")
	if err != nil || ToMinorUnits(amount).Int64() != 1 {
		t.Fatalf("smallest unit not parsed: %v", err)
	}
}

func TestBuildInvocationRequestChecksMinorAmounts(t *testing.T) {
	result, err := ValidateRecipients(GateStrict, []RecipientCandidate{
		{RecipientID: "c-1", Name: "Ada", WalletAddress: walletA, Amount: "12.5"},
	})
	if err != nil {
		t.Fatalf("gate failed: %v", err)
	}
	intent := &models.PaymentIntent{ID: "cp_1_0001", Recipients: result.Recipients}

	req, err := BuildInvocationRequest(intent, " 0xpool ")
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	if req.ContractAddress != "0xpool" || len(req.Amounts) != 1 || req.Amounts[0].Int64() != 12_500_000 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !FromMinorUnits(req.Amounts[0]).Equal(result.Recipients[0].Amount.Decimal) {
		t.Fatalf("minor units do not convert back to %s", result.Recipients[0].Amount.String())
	}

	intent.Recipients[0].MinorAmount = "12000000"
	if _, err := BuildInvocationRequest(intent, "0xpool"); !errors.Is(err, ErrIntentMalformed) {
		t.Fatalf("drifted minor amount want ErrIntentMalformed, got %v", err)
	}
}
