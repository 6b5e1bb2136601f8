package bucket

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/core"
)

type fakeLister struct {
	records map[core.MonthKey][]core.Transaction
	calls   int
	err     error
}

func (f *fakeLister) ListByBucket(_ context.Context, key core.MonthKey) ([]core.Transaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records[key], nil
}

func tx(desc string, kind core.Kind, cents int64, status core.Status, cardID string) core.Transaction {
	return core.Transaction{
		ID:          desc,
		Date:        core.NewDate(2025, 3, 10),
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Kind:        kind,
		Category:    "Outros",
		Responsible: "Liana",
		CardID:      cardID,
		Status:      status,
		Bucket:      core.MonthKey{Year: 2025, Month: time.March},
	}
}

func TestIndex_RecordsCaches(t *testing.T) {
	key := core.MonthKey{Year: 2025, Month: time.March}
	lister := &fakeLister{records: map[core.MonthKey][]core.Transaction{
		key: {tx("Mercado", core.KindPurchase, 10000, core.StatusUnpaid, "")},
	}}
	idx := NewIndex(lister, 0, 0)

	for range 3 {
		records, err := idx.Records(context.Background(), key)
		if err != nil {
			t.Fatalf("Records() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Records() returned %d records, want 1", len(records))
		}
	}
	if lister.calls != 1 {
		t.Errorf("backend called %d times, want 1 (cache miss only)", lister.calls)
	}
	if idx.CachedBuckets() != 1 {
		t.Errorf("CachedBuckets() = %d, want 1", idx.CachedBuckets())
	}

	idx.Invalidate(key)
	if _, err := idx.Records(context.Background(), key); err != nil {
		t.Fatalf("Records() after invalidate error = %v", err)
	}
	if lister.calls != 2 {
		t.Errorf("backend called %d times after invalidate, want 2", lister.calls)
	}
}

func TestIndex_RecordsRejectsZeroKey(t *testing.T) {
	idx := NewIndex(&fakeLister{}, 0, 0)
	if _, err := idx.Records(context.Background(), core.MonthKey{}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Records(zero key) error = %v, want ErrInvalidInput", err)
	}
}

func TestIndex_RecordsBackendError(t *testing.T) {
	lister := &fakeLister{err: core.ErrStoreUnavailable}
	idx := NewIndex(lister, 0, 0)
	key := core.MonthKey{Year: 2025, Month: time.March}

	if _, err := idx.Records(context.Background(), key); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Records() error = %v, want ErrStoreUnavailable", err)
	}
	// Errors must not be cached.
	lister.err = nil
	if _, err := idx.Records(context.Background(), key); err != nil {
		t.Errorf("Records() after backend recovery error = %v", err)
	}
}

func TestIndex_Filtered(t *testing.T) {
	key := core.MonthKey{Year: 2025, Month: time.March}
	lister := &fakeLister{records: map[core.MonthKey][]core.Transaction{
		key: {
			tx("Mercado", core.KindPurchase, 10000, core.StatusUnpaid, "card-a"),
			tx("Aluguel", core.KindFixedBill, 150000, core.StatusPaid, ""),
			tx("Farmácia", core.KindPurchase, 5000, core.StatusPaid, "card-a"),
		},
	}}
	idx := NewIndex(lister, 0, 0)

	got, err := idx.Filtered(context.Background(), key, Filter{Kind: core.KindPurchase, Status: core.StatusPaid})
	if err != nil {
		t.Fatalf("Filtered() error = %v", err)
	}
	if len(got) != 1 || got[0].Description != "Farmácia" {
		t.Errorf("Filtered() = %+v, want the paid purchase only", got)
	}

	all, _ := idx.Filtered(context.Background(), key, Filter{})
	if len(all) != 3 {
		t.Errorf("empty filter returned %d records, want all 3", len(all))
	}
}

func TestIndex_ByCard(t *testing.T) {
	key := core.MonthKey{Year: 2025, Month: time.March}
	lister := &fakeLister{records: map[core.MonthKey][]core.Transaction{
		key: {
			tx("Mercado", core.KindPurchase, 10000, core.StatusUnpaid, "card-a"),
			tx("Streaming", core.KindFixedBill, 4000, core.StatusPaid, "card-b"),
			tx("Farmácia", core.KindPurchase, 5000, core.StatusPaid, "card-a"),
			tx("Aluguel", core.KindFixedBill, 150000, core.StatusPaid, ""),
			tx("Salário", core.KindIncome, 500000, core.StatusReceived, ""),
		},
	}}
	idx := NewIndex(lister, 0, 0)

	groups, err := idx.ByCard(context.Background(), key)
	if err != nil {
		t.Fatalf("ByCard() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("ByCard() returned %d groups, want 2", len(groups))
	}

	a := groups[0]
	if a.CardID != "card-a" || a.Total.Cents != 15000 || a.AllPaid {
		t.Errorf("card-a group = %+v, want total 15000 and not all paid", a)
	}
	b := groups[1]
	if b.CardID != "card-b" || !b.AllPaid {
		t.Errorf("card-b group = %+v, want all paid", b)
	}
}

func TestIndex_Summary(t *testing.T) {
	key := core.MonthKey{Year: 2025, Month: time.March}
	lister := &fakeLister{records: map[core.MonthKey][]core.Transaction{
		key: {
			tx("Salário", core.KindIncome, 500000, core.StatusReceived, ""),
			tx("Aluguel", core.KindFixedBill, 150000, core.StatusPaid, ""),
		},
	}}
	idx := NewIndex(lister, 0, 0)

	s, err := idx.Summary(context.Background(), key)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Balance.Cents != 350000 {
		t.Errorf("Balance = %d, want 350000", s.Balance.Cents)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[int](2, time.Minute)
	k1 := core.MonthKey{Year: 2025, Month: time.January}
	k2 := core.MonthKey{Year: 2025, Month: time.February}
	k3 := core.MonthKey{Year: 2025, Month: time.March}

	c.Set(k1, 1)
	c.Set(k2, 2)
	c.Get(k1) // k1 becomes most recent
	c.Set(k3, 3)

	if _, ok := c.Get(k2); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get(k1); !ok {
		t.Error("recently used entry was evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c := newLRUCache[int](10, time.Nanosecond)
	k := core.MonthKey{Year: 2025, Month: time.January}
	c.Set(k, 1)
	time.Sleep(time.Millisecond)

	if _, ok := c.Get(k); ok {
		t.Error("expired entry returned")
	}
	c.Set(k, 1)
	time.Sleep(time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
}
