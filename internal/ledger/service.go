package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"contas/internal/core"
)

// Event actions published when a bucket's rows change.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// BucketIndex is the cache the service invalidates after mutations. A nil
// index disables caching.
type BucketIndex interface {
	Invalidate(key core.MonthKey)
}

// TransactionStore orchestrates transaction operations: installment
// expansion on create, group routing on update and delete, card-wide status
// batches, plus cache invalidation and change notifications.
type TransactionStore struct {
	store  Store
	index  BucketIndex
	events EventPublisher
	newID  func() string
}

func NewTransactionStore(store Store, index BucketIndex, events EventPublisher) *TransactionStore {
	return &TransactionStore{
		store:  store,
		index:  index,
		events: events,
		newID:  uuid.NewString,
	}
}

// Create validates the draft, expands installments and persists the resulting
// records one by one. It returns the persisted records; on a mid-batch
// failure the error is a *BatchError naming the records that went through.
func (s *TransactionStore) Create(ctx context.Context, draft core.Transaction) ([]core.Transaction, error) {
	if draft.Bucket.IsZero() && !draft.Date.IsZero() {
		// Expenses entered today are paid next month, so file them there.
		// Installment drafts keep the entry month: expansion shifts each
		// installment itself, and shifting here too would skip a month.
		draft.Bucket = core.MonthKeyFor(draft.Date)
		if draft.Kind.IsExpense() && !(draft.PaymentMethod == core.PaymentInstallment && draft.Installments > 1) {
			draft.Bucket = draft.Bucket.AddMonths(1)
		}
	}
	if draft.Kind == core.KindIncome && draft.ReceiptDate.IsZero() {
		draft.ReceiptDate = draft.Date
	}

	records, err := core.ExpandInstallments(draft, s.newID)
	if err != nil {
		return nil, fmt.Errorf("expand installments: %w", err)
	}

	batch := &BatchError{Op: "create transactions"}
	var saved []core.Transaction
	for i := range records {
		records[i].ID = s.newID()
		err := s.store.InsertTransaction(ctx, records[i])
		batch.Outcomes = append(batch.Outcomes, BatchOutcome{ID: records[i].ID, Err: err})
		if err != nil {
			continue
		}
		saved = append(saved, records[i])
		s.bucketChanged(ctx, records[i].Bucket, EventCreated)
	}
	if len(batch.FailedIDs()) > 0 {
		return saved, batch
	}
	return saved, nil
}

// Get returns a single record by id.
func (s *TransactionStore) Get(ctx context.Context, id string) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

// ListBucket returns every record filed under the given month.
func (s *TransactionStore) ListBucket(ctx context.Context, key core.MonthKey) ([]core.Transaction, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	records, err := s.store.ListByBucket(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list bucket %s: %w", key, err)
	}
	return records, nil
}

// Update applies a partial update. The addressed record receives the full
// patch; when it belongs to an installment group the patch is also applied to
// every sibling with the group-local fields stripped, so shared fields stay
// consistent across the schedule while each installment keeps its own month,
// label and settlement state.
func (s *TransactionStore) Update(ctx context.Context, id string, p Patch) error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: empty update", core.ErrInvalidInput)
	}
	if err := s.validatePatch(p); err != nil {
		return err
	}

	rec, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}

	// Status values are per kind: income settles as Recebido/A Receber,
	// everything else as Pago/A Pagar.
	if p.Status != nil && !p.Status.ValidFor(rec.Kind) {
		return fmt.Errorf("status %q for kind %q: %w", *p.Status, rec.Kind, core.ErrInvalidStatus)
	}
	// The installment count is immutable, so the payment method cannot move
	// to or from Parcelado without leaving the pair inconsistent.
	if p.PaymentMethod != nil &&
		(*p.PaymentMethod == core.PaymentInstallment) != (rec.PaymentMethod == core.PaymentInstallment) {
		return fmt.Errorf("%w: payment method cannot change to or from %q", core.ErrInvalidInput, core.PaymentInstallment)
	}

	if rec.GroupID == "" {
		if err := s.store.UpdateTransaction(ctx, id, p); err != nil {
			return fmt.Errorf("update transaction %s: %w", id, err)
		}
		s.bucketChanged(ctx, rec.Bucket, EventUpdated)
		if p.Bucket != nil && *p.Bucket != rec.Bucket {
			s.bucketChanged(ctx, *p.Bucket, EventUpdated)
		}
		return nil
	}

	members, err := s.store.ListByGroup(ctx, rec.GroupID)
	if err != nil {
		return fmt.Errorf("list group %s: %w", rec.GroupID, err)
	}

	shared := p.WithoutGroupLocal()
	batch := &BatchError{Op: "update installment group"}
	for _, m := range members {
		mp := shared
		if m.ID == id {
			mp = p
		}
		if mp.IsEmpty() {
			continue
		}
		err := s.store.UpdateTransaction(ctx, m.ID, mp)
		batch.Outcomes = append(batch.Outcomes, BatchOutcome{ID: m.ID, Err: err})
		if err == nil {
			s.bucketChanged(ctx, m.Bucket, EventUpdated)
		}
	}
	if p.Bucket != nil {
		s.bucketChanged(ctx, *p.Bucket, EventUpdated)
	}
	if len(batch.FailedIDs()) > 0 {
		return batch
	}
	return nil
}

// Delete removes a record. Deleting any member of an installment group
// removes the whole group; the schedule only makes sense complete.
func (s *TransactionStore) Delete(ctx context.Context, id string) error {
	rec, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}

	if rec.GroupID == "" {
		if err := s.store.DeleteTransaction(ctx, id); err != nil {
			return fmt.Errorf("delete transaction %s: %w", id, err)
		}
		s.bucketChanged(ctx, rec.Bucket, EventDeleted)
		return nil
	}

	members, err := s.store.ListByGroup(ctx, rec.GroupID)
	if err != nil {
		return fmt.Errorf("list group %s: %w", rec.GroupID, err)
	}

	batch := &BatchError{Op: "delete installment group"}
	for _, m := range members {
		err := s.store.DeleteTransaction(ctx, m.ID)
		batch.Outcomes = append(batch.Outcomes, BatchOutcome{ID: m.ID, Err: err})
		if err == nil {
			s.bucketChanged(ctx, m.Bucket, EventDeleted)
		}
	}
	if len(batch.FailedIDs()) > 0 {
		return batch
	}
	return nil
}

// SetCardPaid flips every record of the given card in the given month to paid
// or unpaid. Records already at the target status are skipped, so repeating
// the call is a no-op rather than an error.
func (s *TransactionStore) SetCardPaid(ctx context.Context, cardID string, key core.MonthKey, paid bool) error {
	if cardID == "" {
		return fmt.Errorf("%w: missing card id", core.ErrInvalidInput)
	}
	if err := key.Validate(); err != nil {
		return err
	}

	records, err := s.store.ListByBucket(ctx, key)
	if err != nil {
		return fmt.Errorf("list bucket %s: %w", key, err)
	}

	batch := &BatchError{Op: "set card paid"}
	changed := false
	for _, rec := range records {
		if rec.CardID != cardID {
			continue
		}
		target := core.UnsettledFor(rec.Kind)
		if paid {
			target = core.SettledFor(rec.Kind)
		}
		if rec.Status == target {
			continue
		}
		status := target
		err := s.store.UpdateTransaction(ctx, rec.ID, Patch{Status: &status})
		batch.Outcomes = append(batch.Outcomes, BatchOutcome{ID: rec.ID, Err: err})
		if err == nil {
			changed = true
		}
	}
	if changed {
		s.bucketChanged(ctx, key, EventUpdated)
	}
	if len(batch.FailedIDs()) > 0 {
		return batch
	}
	return nil
}

func (s *TransactionStore) validatePatch(p Patch) error {
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Description != nil && *p.Description == "" {
		return core.ErrEmptyDescription
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Category != nil && *p.Category == "" {
		return core.ErrEmptyCategory
	}
	if p.Responsible != nil && !p.Responsible.Valid() {
		return core.ErrInvalidResponsible
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", core.ErrInvalidInput, *p.PaymentMethod)
	}
	if p.Bucket != nil {
		if err := p.Bucket.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// bucketChanged invalidates the cache and notifies consumers. Notification
// failures are logged, never surfaced: the record is already persisted.
func (s *TransactionStore) bucketChanged(ctx context.Context, key core.MonthKey, action string) {
	if s.index != nil {
		s.index.Invalidate(key)
	}
	if s.events == nil {
		return
	}
	if err := s.events.PublishBucketChanged(ctx, key, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish bucket change",
			"bucket", key.String(), "action", action, "error", err)
	}
}
