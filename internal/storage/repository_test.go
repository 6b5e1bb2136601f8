package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"contas/internal/core"
	"contas/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "contas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleTransaction(id string, key core.MonthKey) core.Transaction {
	return core.Transaction{
		ID:            id,
		Date:          core.NewDate(key.Year, int(key.Month), 10),
		Description:   "Mercado",
		Amount:        core.Money{Cents: 15000},
		Kind:          core.KindPurchase,
		Category:      "Alimentação",
		Responsible:   "Marília",
		PaymentMethod: core.PaymentCard,
		CardID:        "card-1",
		Status:        core.StatusUnpaid,
		Bucket:        key,
	}
}

func TestSQLiteRepository_TransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	key := core.MonthKey{Year: 2025, Month: time.March}

	want := sampleTransaction("tx-1", key)
	want.GroupID = "group-1"
	want.ReceiptDate = core.NewDate(2025, 3, 12)
	if err := repo.InsertTransaction(ctx, want); err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}

	got, err := repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Description != want.Description || got.Amount != want.Amount ||
		got.Bucket != want.Bucket || got.GroupID != want.GroupID ||
		got.Status != want.Status || got.Responsible != want.Responsible {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
	if !got.ReceiptDate.Equal(want.ReceiptDate.Time) {
		t.Errorf("receipt date = %v, want %v", got.ReceiptDate, want.ReceiptDate)
	}
}

func TestSQLiteRepository_UpdatePatchesOnlyGivenFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	key := core.MonthKey{Year: 2025, Month: time.March}

	if err := repo.InsertTransaction(ctx, sampleTransaction("tx-1", key)); err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}

	paid := core.StatusPaid
	april := key.AddMonths(1)
	if err := repo.UpdateTransaction(ctx, "tx-1", ledger.Patch{Status: &paid, Bucket: &april}); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}

	got, _ := repo.GetTransaction(ctx, "tx-1")
	if got.Status != core.StatusPaid || got.Bucket != april {
		t.Errorf("patched record = %+v", got)
	}
	if got.Description != "Mercado" || got.Amount.Cents != 15000 {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestSQLiteRepository_ListByBucketNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	key := core.MonthKey{Year: 2025, Month: time.March}

	for i, day := range []int{5, 20, 12} {
		tx := sampleTransaction("tx-"+string(rune('a'+i)), key)
		tx.Date = core.NewDate(2025, 3, day)
		if err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction() error = %v", err)
		}
	}

	records, err := repo.ListByBucket(ctx, key)
	if err != nil {
		t.Fatalf("ListByBucket() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Date.After(records[i-1].Date.Time) {
			t.Errorf("records out of order at %d", i)
		}
	}
}

func TestSQLiteRepository_GroupAndBucketListing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	march := core.MonthKey{Year: 2025, Month: time.March}
	april := march.AddMonths(1)

	a := sampleTransaction("tx-a", march)
	a.GroupID = "g1"
	b := sampleTransaction("tx-b", april)
	b.GroupID = "g1"
	c := sampleTransaction("tx-c", march)
	for _, tx := range []core.Transaction{a, b, c} {
		if err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction() error = %v", err)
		}
	}

	members, err := repo.ListByGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("ListByGroup() error = %v", err)
	}
	if len(members) != 2 || members[0].ID != "tx-a" || members[1].ID != "tx-b" {
		t.Errorf("ListByGroup() = %+v, want tx-a then tx-b", members)
	}

	keys, err := repo.ListBuckets(ctx)
	if err != nil {
		t.Fatalf("ListBuckets() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != april || keys[1] != march {
		t.Errorf("ListBuckets() = %v, want [April March]", keys)
	}
}

func TestSQLiteRepository_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction() error = %v, want ErrNotFound", err)
	}
	status := core.StatusPaid
	if err := repo.UpdateTransaction(ctx, "missing", ledger.Patch{Status: &status}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_CardsAndSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.InsertCard(ctx, core.Card{ID: "card-1", Name: "Nubank", DueDay: 10}); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}
	// UNIQUE COLLATE NOCASE on the name column.
	if err := repo.InsertCard(ctx, core.Card{ID: "card-2", Name: "nubank"}); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("duplicate card name error = %v, want store error", err)
	}

	key := core.MonthKey{Year: 2025, Month: time.March}
	if err := repo.InsertTransaction(ctx, sampleTransaction("tx-1", key)); err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}
	n, err := repo.CountTransactionsByCard(ctx, "card-1")
	if err != nil || n != 1 {
		t.Errorf("CountTransactionsByCard() = %d, %v, want 1", n, err)
	}

	s, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if s.MonthlyGoal.Cents != 0 {
		t.Errorf("initial goal = %d, want 0", s.MonthlyGoal.Cents)
	}
	s.MonthlyGoal = core.Money{Cents: 500000}
	if err := repo.UpdateSettings(ctx, s); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	s, _ = repo.GetSettings(ctx)
	if s.MonthlyGoal.Cents != 500000 {
		t.Errorf("goal after update = %d, want 500000", s.MonthlyGoal.Cents)
	}
}
