// Package ledger implements the transaction ledger: the store façade the API
// calls, the installment-group mutation routing and the card/category
// registries. Persistence is behind the Store interfaces so the SQLite and
// in-memory backends stay interchangeable.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"contas/internal/core"
)

// Store is the persistence contract for transaction rows. Every call maps to
// one backend statement; the ledger assumes each statement is atomic and
// durable once acknowledged, but never that a sequence of them is.
type Store interface {
	InsertTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, p Patch) error
	DeleteTransaction(ctx context.Context, id string) error
	ListByBucket(ctx context.Context, key core.MonthKey) ([]core.Transaction, error)
	ListByGroup(ctx context.Context, groupID string) ([]core.Transaction, error)
}

// CardStore persists cards.
type CardStore interface {
	InsertCard(ctx context.Context, c core.Card) error
	ListCards(ctx context.Context) ([]core.Card, error)
	DeleteCard(ctx context.Context, id string) error
	CountTransactionsByCard(ctx context.Context, cardID string) (int64, error)
}

// CategoryStore persists categories.
type CategoryStore interface {
	InsertCategory(ctx context.Context, c core.Category) error
	ListCategories(ctx context.Context) ([]core.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// SettingsStore persists the singleton configuration row.
type SettingsStore interface {
	GetSettings(ctx context.Context) (core.Settings, error)
	UpdateSettings(ctx context.Context, s core.Settings) error
}

// EventPublisher notifies downstream consumers that a bucket's rows changed.
// A nil publisher disables notifications.
type EventPublisher interface {
	PublishBucketChanged(ctx context.Context, bucket core.MonthKey, action string) error
}

// Patch is a partial transaction update; nil fields are left untouched.
// Kind, installment count and group id are immutable after creation.
type Patch struct {
	Date          *core.Date
	Description   *string
	Amount        *core.Money
	Category      *string
	Responsible   *core.Responsible
	PaymentMethod *core.PaymentMethod
	CardID        *string
	Status        *core.Status
	Bucket        *core.MonthKey
	ReceiptDate   *core.Date
}

// WithoutGroupLocal strips the fields that are per-installment by design.
// This is the single contract point for group-update propagation: bucket,
// description and status must never fan out to siblings, or the schedule
// would collapse into one month and paying one installment would pay all.
func (p Patch) WithoutGroupLocal() Patch {
	p.Bucket = nil
	p.Description = nil
	p.Status = nil
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// BatchOutcome records the result of one record's mutation within a batch.
type BatchOutcome struct {
	ID  string
	Err error
}

// BatchError reports a partially applied batch. Group and card-wide
// operations are sequences of independent single-record mutations; when one
// fails mid-way the caller needs to know which members went through so it can
// retry only the remainder.
type BatchError struct {
	Op       string
	Outcomes []BatchOutcome
}

func (e *BatchError) Error() string {
	failed := e.FailedIDs()
	return fmt.Sprintf("%s: %d of %d records failed (failed ids: %s)",
		e.Op, len(failed), len(e.Outcomes), strings.Join(failed, ", "))
}

// FailedIDs returns the ids whose mutation failed.
func (e *BatchError) FailedIDs() []string {
	var ids []string
	for _, o := range e.Outcomes {
		if o.Err != nil {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// SucceededIDs returns the ids whose mutation was applied.
func (e *BatchError) SucceededIDs() []string {
	var ids []string
	for _, o := range e.Outcomes {
		if o.Err == nil {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Unwrap exposes the first member error so errors.Is can classify the batch.
func (e *BatchError) Unwrap() error {
	for _, o := range e.Outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}
