// Package report builds multi-month views on top of the bucket index.
package report

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"contas/internal/bucket"
	"contas/internal/core"
)

// MonthComparison lines up consecutive month summaries ending at the
// requested bucket, oldest first.
type MonthComparison struct {
	Months []core.MonthSummary
}

// Deltas returns balance changes between consecutive months; entry i is the
// change from month i to month i+1.
func (c MonthComparison) Deltas() []core.Money {
	if len(c.Months) < 2 {
		return nil
	}
	deltas := make([]core.Money, len(c.Months)-1)
	for i := 1; i < len(c.Months); i++ {
		deltas[i-1] = c.Months[i].Balance.Sub(c.Months[i-1].Balance)
	}
	return deltas
}

type Builder struct {
	index *bucket.Index
}

func NewBuilder(index *bucket.Index) *Builder {
	return &Builder{index: index}
}

// Compare summarizes the months months ending at last, loading each bucket
// concurrently. Months must be at least 1.
func (b *Builder) Compare(ctx context.Context, last core.MonthKey, months int) (MonthComparison, error) {
	if months < 1 {
		return MonthComparison{}, fmt.Errorf("%w: months must be at least 1", core.ErrInvalidInput)
	}
	if err := last.Validate(); err != nil {
		return MonthComparison{}, err
	}

	summaries := make([]core.MonthSummary, months)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < months; i++ {
		key := last.AddMonths(i - months + 1)
		g.Go(func() error {
			s, err := b.index.Summary(gctx, key)
			if err != nil {
				return fmt.Errorf("summarize %s: %w", key, err)
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonthComparison{}, err
	}
	return MonthComparison{Months: summaries}, nil
}
