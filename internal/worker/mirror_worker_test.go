package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/storage/memory"
)

type fakeMirror struct {
	mirrored map[core.MonthKey]int
	err      error
}

func (f *fakeMirror) MirrorBucket(_ context.Context, key core.MonthKey, records []core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	if f.mirrored == nil {
		f.mirrored = make(map[core.MonthKey]int)
	}
	f.mirrored[key] = len(records)
	return nil
}

func seedBucket(t *testing.T, repo *memory.Repository, key core.MonthKey, n int) {
	t.Helper()
	svc := ledger.NewTransactionStore(repo, nil, nil)
	for i := 0; i < n; i++ {
		draft := core.Transaction{
			Date:        core.NewDate(key.Year, int(key.Month), i+1),
			Description: "item",
			Amount:      core.Money{Cents: 1000},
			Kind:        core.KindVariableExpense,
			Category:    "Outros",
			Responsible: "Liana",
			Status:      core.StatusUnpaid,
			Bucket:      key,
		}
		if _, err := svc.Create(context.Background(), draft); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestMirrorWorker_HandleBucketChanged(t *testing.T) {
	repo := memory.NewRepository()
	key := core.MonthKey{Year: 2025, Month: time.March}
	seedBucket(t, repo, key, 2)

	mirror := &fakeMirror{}
	w := NewMirrorWorker(repo, mirror)

	msg := amqp.NewBucketChangedMessage(key.Label(), ledger.EventCreated)
	if err := w.HandleBucketChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandleBucketChanged() error = %v", err)
	}
	if mirror.mirrored[key] != 2 {
		t.Errorf("mirrored %d rows, want 2", mirror.mirrored[key])
	}
}

func TestMirrorWorker_BadLabelDropped(t *testing.T) {
	w := NewMirrorWorker(memory.NewRepository(), &fakeMirror{})

	msg := amqp.NewBucketChangedMessage("not a month", ledger.EventCreated)
	if err := w.HandleBucketChanged(context.Background(), msg); err != nil {
		t.Errorf("bad label should be dropped without error, got %v", err)
	}
}

func TestMirrorWorker_MirrorFailurePropagates(t *testing.T) {
	repo := memory.NewRepository()
	key := core.MonthKey{Year: 2025, Month: time.March}
	seedBucket(t, repo, key, 1)

	wantErr := errors.New("sheets quota")
	w := NewMirrorWorker(repo, &fakeMirror{err: wantErr})

	msg := amqp.NewBucketChangedMessage(key.Label(), ledger.EventUpdated)
	if err := w.HandleBucketChanged(context.Background(), msg); !errors.Is(err, wantErr) {
		t.Errorf("HandleBucketChanged() error = %v, want wrapped mirror failure", err)
	}
}

func TestMirrorWorker_StartupSync(t *testing.T) {
	repo := memory.NewRepository()
	march := core.MonthKey{Year: 2025, Month: time.March}
	april := core.MonthKey{Year: 2025, Month: time.April}
	seedBucket(t, repo, march, 2)
	seedBucket(t, repo, april, 1)

	mirror := &fakeMirror{}
	w := NewMirrorWorker(repo, mirror)

	if err := w.StartupSync(context.Background()); err != nil {
		t.Fatalf("StartupSync() error = %v", err)
	}
	if mirror.mirrored[march] != 2 || mirror.mirrored[april] != 1 {
		t.Errorf("mirrored = %v, want both buckets exported", mirror.mirrored)
	}
}
