// Package worker keeps the spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/sheets"
)

// BucketLister is the read side of the store the worker exports from.
type BucketLister interface {
	ListByBucket(ctx context.Context, key core.MonthKey) ([]core.Transaction, error)
	ListBuckets(ctx context.Context) ([]core.MonthKey, error)
}

// MirrorWorker consumes bucket change messages and rewrites the affected
// month on the spreadsheet mirror. The database is the source of truth; the
// mirror is read-only output.
type MirrorWorker struct {
	store  BucketLister
	mirror sheets.BucketMirror
}

func NewMirrorWorker(store BucketLister, mirror sheets.BucketMirror) *MirrorWorker {
	return &MirrorWorker{store: store, mirror: mirror}
}

// HandleBucketChanged processes one change message. The message names the
// bucket; the worker reloads it in full so earlier lost messages are healed
// by any later one for the same month.
func (w *MirrorWorker) HandleBucketChanged(ctx context.Context, msg *amqp.BucketChangedMessage) error {
	key, err := core.ParseMonthLabel(msg.Bucket)
	if err != nil {
		// Unparseable bucket labels can never succeed on retry.
		slog.ErrorContext(ctx, "Dropping message with bad bucket label",
			"bucket", msg.Bucket, "error", err)
		return nil
	}

	if err := w.exportBucket(ctx, key); err != nil {
		return fmt.Errorf("export bucket %s: %w", key, err)
	}
	return nil
}

// StartupSync re-exports every known bucket. Run once at worker start to
// recover from messages missed while the worker was down.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	keys, err := w.store.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("list buckets for startup sync: %w", err)
	}
	if len(keys) == 0 {
		slog.InfoContext(ctx, "No buckets to sync on startup")
		return nil
	}

	slog.InfoContext(ctx, "Re-exporting buckets on startup", "count", len(keys))
	synced, failed := 0, 0
	for _, key := range keys {
		if err := w.exportBucket(ctx, key); err != nil {
			slog.ErrorContext(ctx, "Failed to export bucket during startup",
				"bucket", key.String(), "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(keys), "synced", synced, "errors", failed)
	if failed > 0 {
		return fmt.Errorf("startup sync: %d of %d buckets failed", failed, len(keys))
	}
	return nil
}

func (w *MirrorWorker) exportBucket(ctx context.Context, key core.MonthKey) error {
	records, err := w.store.ListByBucket(ctx, key)
	if err != nil {
		return fmt.Errorf("load bucket: %w", err)
	}
	if err := w.mirror.MirrorBucket(ctx, key, records); err != nil {
		return fmt.Errorf("mirror bucket: %w", err)
	}
	return nil
}
