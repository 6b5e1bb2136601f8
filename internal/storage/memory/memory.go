// Package memory provides an in-process backend used by tests and by the
// DATA_BACKEND=memory mode. It implements the same ports as the SQLite
// repository with a mutex-guarded map per entity.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"contas/internal/core"
	"contas/internal/ledger"
)

type Repository struct {
	mu           sync.RWMutex
	transactions map[string]core.Transaction
	cards        map[string]core.Card
	categories   map[string]core.Category
	settings     core.Settings
	seq          int // insertion order, breaks same-date ties
	order        map[string]int
}

func NewRepository() *Repository {
	return &Repository{
		transactions: make(map[string]core.Transaction),
		cards:        make(map[string]core.Card),
		categories:   make(map[string]core.Category),
		settings:     core.Settings{ID: "default"},
		order:        make(map[string]int),
	}
}

func (r *Repository) InsertTransaction(_ context.Context, t core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[t.ID]; ok {
		return fmt.Errorf("%w: duplicate transaction id %s", core.ErrInvalidInput, t.ID)
	}
	r.transactions[t.ID] = t
	r.seq++
	r.order[t.ID] = r.seq
	return nil
}

func (r *Repository) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(_ context.Context, id string, p ledger.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return core.ErrNotFound
	}
	applyPatch(&t, p)
	r.transactions[id] = t
	return nil
}

func (r *Repository) DeleteTransaction(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.transactions, id)
	delete(r.order, id)
	return nil
}

// ListByBucket returns the bucket's records newest first, matching the order
// the SQLite repository produces.
func (r *Repository) ListByBucket(_ context.Context, key core.MonthKey) ([]core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.Transaction
	for _, t := range r.transactions {
		if t.Bucket == key {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	return out, nil
}

// ListByGroup returns group members in schedule order, earliest bucket first.
func (r *Repository) ListByGroup(_ context.Context, groupID string) ([]core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.Transaction
	for _, t := range r.transactions {
		if t.GroupID != "" && t.GroupID == groupID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Bucket, out[j].Bucket
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out, nil
}

// ListBuckets returns every month that has at least one record, newest first.
func (r *Repository) ListBuckets(_ context.Context) ([]core.MonthKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[core.MonthKey]bool)
	var keys []core.MonthKey
	for _, t := range r.transactions {
		if !seen[t.Bucket] {
			seen[t.Bucket] = true
			keys = append(keys, t.Bucket)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year > keys[j].Year
		}
		return keys[i].Month > keys[j].Month
	})
	return keys, nil
}

func (r *Repository) InsertCard(_ context.Context, c core.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[c.ID]; ok {
		return fmt.Errorf("%w: duplicate card id %s", core.ErrInvalidInput, c.ID)
	}
	r.cards[c.ID] = c
	return nil
}

func (r *Repository) ListCards(_ context.Context) ([]core.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Card, 0, len(r.cards))
	for _, c := range r.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) DeleteCard(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.cards, id)
	return nil
}

func (r *Repository) CountTransactionsByCard(_ context.Context, cardID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, t := range r.transactions {
		if t.CardID == cardID {
			n++
		}
	}
	return n, nil
}

func (r *Repository) InsertCategory(_ context.Context, c core.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; ok {
		return fmt.Errorf("%w: duplicate category id %s", core.ErrInvalidInput, c.ID)
	}
	r.categories[c.ID] = c
	return nil
}

func (r *Repository) ListCategories(_ context.Context) ([]core.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) DeleteCategory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *Repository) GetSettings(_ context.Context) (core.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings, nil
}

func (r *Repository) UpdateSettings(_ context.Context, s core.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.settings.ID
	r.settings = s
	return nil
}

func (r *Repository) Close() error { return nil }

func applyPatch(t *core.Transaction, p ledger.Patch) {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Responsible != nil {
		t.Responsible = *p.Responsible
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
	if p.CardID != nil {
		t.CardID = *p.CardID
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Bucket != nil {
		t.Bucket = *p.Bucket
	}
	if p.ReceiptDate != nil {
		t.ReceiptDate = *p.ReceiptDate
	}
}
