// Package bucket serves month-bucket reads: the cached record lists behind
// the dashboard, filtered views and the per-card grouping used by the card
// payment toggle.
package bucket

import (
	"context"
	"fmt"
	"time"

	"contas/internal/core"
)

// Lister is the read side of the transaction store the index loads from.
type Lister interface {
	ListByBucket(ctx context.Context, key core.MonthKey) ([]core.Transaction, error)
}

// Index is a cache-aside view over one backend. Reads go through the LRU;
// the ledger invalidates the touched bucket after every mutation, so a hit
// is never staler than the last write through this process.
type Index struct {
	lister Lister
	cache  *lruCache[[]core.Transaction]
}

// DefaultMaxBuckets bounds the cache; DefaultTTL caps staleness against
// writes that bypass this process, such as a second instance on the same
// database file.
const (
	DefaultMaxBuckets = 24
	DefaultTTL        = 5 * time.Minute
)

func NewIndex(lister Lister, maxBuckets int, ttl time.Duration) *Index {
	if maxBuckets <= 0 {
		maxBuckets = DefaultMaxBuckets
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Index{
		lister: lister,
		cache:  newLRUCache[[]core.Transaction](maxBuckets, ttl),
	}
}

// Records returns the bucket's records newest first.
func (i *Index) Records(ctx context.Context, key core.MonthKey) ([]core.Transaction, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if cached, ok := i.cache.Get(key); ok {
		return cached, nil
	}
	records, err := i.lister.ListByBucket(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load bucket %s: %w", key, err)
	}
	i.cache.Set(key, records)
	return records, nil
}

// Summary computes the bucket's dashboard aggregates.
func (i *Index) Summary(ctx context.Context, key core.MonthKey) (core.MonthSummary, error) {
	records, err := i.Records(ctx, key)
	if err != nil {
		return core.MonthSummary{}, err
	}
	return core.Summarize(key, records), nil
}

// Filter narrows a bucket view. Zero fields match everything.
type Filter struct {
	Kind        core.Kind
	Status      core.Status
	CardID      string
	Responsible core.Responsible
	Category    string
}

func (f Filter) Match(t core.Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.CardID != "" && t.CardID != f.CardID {
		return false
	}
	if f.Responsible != "" && t.Responsible != f.Responsible {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// Filtered returns the bucket's records matching the filter, keeping the
// newest-first order.
func (i *Index) Filtered(ctx context.Context, key core.MonthKey, f Filter) ([]core.Transaction, error) {
	records, err := i.Records(ctx, key)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range records {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// CardGroup is one card's slice of a bucket, with the totals the payment
// toggle needs.
type CardGroup struct {
	CardID  string
	Records []core.Transaction
	Total   core.Money
	AllPaid bool
}

// ByCard groups the bucket's card-backed expenses per card, in order of each
// card's first appearance. Records without a card are left out.
func (i *Index) ByCard(ctx context.Context, key core.MonthKey) ([]CardGroup, error) {
	records, err := i.Records(ctx, key)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int)
	var groups []CardGroup
	for _, t := range records {
		if t.CardID == "" || !t.Kind.IsExpense() {
			continue
		}
		idx, ok := byID[t.CardID]
		if !ok {
			idx = len(groups)
			byID[t.CardID] = idx
			groups = append(groups, CardGroup{CardID: t.CardID, AllPaid: true})
		}
		g := &groups[idx]
		g.Records = append(g.Records, t)
		g.Total = g.Total.Add(t.Amount)
		if !t.Status.Settled() {
			g.AllPaid = false
		}
	}
	return groups, nil
}

// Invalidate drops the cached bucket so the next read reloads it.
func (i *Index) Invalidate(key core.MonthKey) {
	i.cache.Delete(key)
}

// CleanExpired drops expired cache entries; wired to the cache manager's
// periodic sweep.
func (i *Index) CleanExpired() int {
	return i.cache.CleanExpired()
}

// CachedBuckets reports how many buckets are currently cached.
func (i *Index) CachedBuckets() int {
	return i.cache.Size()
}
