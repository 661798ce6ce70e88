package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupIntentRepositoryTest(t *testing.T) (*GormIntentRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:intent_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewIntentRepository(db), db
}

func newPendingIntent(id string, businessID uint, amount string) *models.PaymentIntent {
	total := models.NewTokenAmount(decimal.RequireFromString(amount))
	return &models.PaymentIntent{
		ID:          id,
		BusinessID:  businessID,
		Flow:        constants.FlowContractorPayment,
		Status:      constants.IntentStatusPending,
		Token:       constants.TokenUSDC,
		TotalAmount: total,
		Recipients: []models.IntentRecipient{
			{
				RecipientID:   "c-0001",
				RecipientName: "Ada",
				WalletAddress: "0x1111111111111111111111111111111111111111",
				Amount:        total,
				MinorAmount:   total.MinorUnits().String(),
			},
		},
	}
}

func TestIntentRepositorySettleIsCompareAndSwap(t *testing.T) {
	repo, _ := setupIntentRepositoryTest(t)
	intent := newPendingIntent("cp_1_0001", 1, "500.00")
	if err := repo.Create(intent); err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	hash := "0xabc"
	applied, err := repo.Settle(intent.ID, IntentSettlement{Status: constants.IntentStatusSuccess, TransactionHash: &hash})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if !applied {
		t.Fatalf("first settle should apply")
	}

	reason := "rejected: late duplicate"
	applied, err = repo.Settle(intent.ID, IntentSettlement{Status: constants.IntentStatusFailed, ErrorDetails: &reason})
	if err != nil {
		t.Fatalf("second settle failed: %v", err)
	}
	if applied {
		t.Fatalf("second settle must not apply on a terminal intent")
	}

	stored, err := repo.GetByID(intent.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload intent failed: %v", err)
	}
	if stored.Status != constants.IntentStatusSuccess {
		t.Fatalf("status want Success got %s", stored.Status)
	}
	if stored.TransactionHash == nil || *stored.TransactionHash != hash {
		t.Fatalf("transaction hash not persisted: %v", stored.TransactionHash)
	}
	if stored.ErrorDetails != nil {
		t.Fatalf("error details must stay empty on success, got %q", *stored.ErrorDetails)
	}
	if !stored.TotalAmount.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("total amount changed: %s", stored.TotalAmount.String())
	}
	if len(stored.Recipients) != 1 || stored.Recipients[0].MinorAmount != "500000000" {
		t.Fatalf("recipients not round-tripped: %+v", stored.Recipients)
	}
}

func TestIntentRepositorySettleRejectsNonTerminalStatus(t *testing.T) {
	repo, _ := setupIntentRepositoryTest(t)
	if _, err := repo.Settle("missing", IntentSettlement{Status: constants.IntentStatusPending}); err == nil {
		t.Fatalf("expected error for pending settlement")
	}
}

func TestIntentRepositoryListStalePending(t *testing.T) {
	repo, db := setupIntentRepositoryTest(t)
	now := time.Now().UTC()

	old := newPendingIntent("cp_old", 1, "10")
	fresh := newPendingIntent("cp_fresh", 1, "10")
	settled := newPendingIntent("cp_settled", 1, "10")
	for _, intent := range []*models.PaymentIntent{old, fresh, settled} {
		if err := repo.Create(intent); err != nil {
			t.Fatalf("create %s failed: %v", intent.ID, err)
		}
	}
	if err := db.Model(&models.PaymentIntent{}).Where("id IN ?", []string{"cp_old", "cp_settled"}).
		Update("created_at", now.Add(-2*time.Hour)).Error; err != nil {
		t.Fatalf("backdate failed: %v", err)
	}
	if _, err := repo.Settle("cp_settled", IntentSettlement{Status: constants.IntentStatusFailed}); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	stale, err := repo.ListStalePending(now.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("list stale failed: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "cp_old" {
		t.Fatalf("want only cp_old, got %+v", stale)
	}
}

func TestIntentRepositoryMarkSubmittedOnlyPending(t *testing.T) {
	repo, _ := setupIntentRepositoryTest(t)
	intent := newPendingIntent("payroll_1_0001", 2, "20")
	if err := repo.Create(intent); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	ok, err := repo.MarkSubmitted(intent.ID, "req-1", nil, time.Now())
	if err != nil || !ok {
		t.Fatalf("mark submitted want ok, got ok=%v err=%v", ok, err)
	}
	if _, err := repo.Settle(intent.ID, IntentSettlement{Status: constants.IntentStatusFailed}); err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	ok, err = repo.MarkSubmitted(intent.ID, "req-2", nil, time.Now())
	if err != nil {
		t.Fatalf("mark submitted failed: %v", err)
	}
	if ok {
		t.Fatalf("mark submitted must not touch terminal intent")
	}
}

func TestHistoryRepositoryCreateOnce(t *testing.T) {
	_, db := setupIntentRepositoryTest(t)
	repo := NewHistoryRepository(db)
	entry := func() *models.PaymentHistory {
		return &models.PaymentHistory{
			IntentID:   "cp_1_0001",
			BusinessID: 1,
			Flow:       constants.FlowContractorPayment,
			Direction:  constants.DirectionOut,
			Amount:     models.NewTokenAmount(decimal.RequireFromString("5")),
			Token:      constants.TokenUSDC,
			OccurredAt: time.Now(),
		}
	}
	created, err := repo.CreateOnce(entry())
	if err != nil || !created {
		t.Fatalf("first create want created, got created=%v err=%v", created, err)
	}
	created, err = repo.CreateOnce(entry())
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if created {
		t.Fatalf("second create must be a no-op")
	}
	list, total, err := repo.List(HistoryListFilter{BusinessID: 1, Direction: constants.DirectionOut})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("want exactly one history, got total=%d len=%d", total, len(list))
	}
}

func TestIntentRepositoryListSearchesRecipients(t *testing.T) {
	repo, _ := setupIntentRepositoryTest(t)
	if err := repo.Create(newPendingIntent("cp_1_0101", 1, "10")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	other := newPendingIntent("cp_1_0102", 1, "10")
	other.Recipients[0].RecipientName = "Grace"
	if err := repo.Create(other); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	list, total, err := repo.List(IntentListFilter{BusinessID: 1, Search: "Ada"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != "cp_1_0101" {
		t.Fatalf("want only cp_1_0101, got total=%d list=%+v", total, list)
	}
	if _, total, _ = repo.List(IntentListFilter{BusinessID: 1, Search: "cp_1_01"}); total != 2 {
		t.Fatalf("id search want 2 got %d", total)
	}
}

func TestIntentRepositoryListStalePendingPrefersUnchecked(t *testing.T) {
	repo, db := setupIntentRepositoryTest(t)
	now := time.Now().UTC()
	for _, id := range []string{"cp_a", "cp_b", "cp_c"} {
		if err := repo.Create(newPendingIntent(id, 1, "10")); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}
	for i, id := range []string{"cp_a", "cp_b", "cp_c"} {
		if err := db.Model(&models.PaymentIntent{}).Where("id = ?", id).
			Update("created_at", now.Add(-time.Duration(3-i)*time.Hour)).Error; err != nil {
			t.Fatalf("backdate failed: %v", err)
		}
	}
	if err := repo.TouchChecked([]string{"cp_a"}, now.Add(-time.Minute)); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	if err := repo.TouchChecked([]string{"cp_b"}, now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	stale, err := repo.ListStalePending(now.Add(-time.Minute), 3)
	if err != nil {
		t.Fatalf("list stale failed: %v", err)
	}
	got := make([]string, 0, len(stale))
	for _, intent := range stale {
		got = append(got, intent.ID)
	}
	if fmt.Sprint(got) != "[cp_c cp_b cp_a]" {
		t.Fatalf("want unchecked first then oldest check, got %v", got)
	}
}
