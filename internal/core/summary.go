package core

// AmountByKey is an aggregated amount under a breakdown key (category,
// responsible or card).
type AmountByKey struct {
	Key    string
	Amount Money
}

// MonthSummary is the full dashboard rollup for one bucket. It is recomputed
// from scratch on every bucket change; working sets are month-sized.
type MonthSummary struct {
	Bucket MonthKey

	TotalIncome  Money
	TotalExpense Money
	Balance      Money

	// Payment progress covers fixed bills and purchases only; variable
	// expenses and income are excluded from the ratio.
	PaidAmount      Money
	PendingAmount   Money
	PaymentProgress float64 // paid / (paid + pending), 0 when nothing due

	ReceivedAmount   Money
	ReceivableAmount Money

	ByCategory    []AmountByKey
	ByResponsible []AmountByKey
	ByCard        []AmountByKey

	// LargestExpense is nil when the bucket has no expense-like records.
	LargestExpense *Transaction

	Pending    []Transaction // unsettled non-income records
	Receivable []Transaction // unsettled income records
}

// Summarize computes the rollup for one bucket's records. The slice order is
// the bucket's natural order; ties for the largest expense keep the earlier
// record.
func Summarize(bucket MonthKey, records []Transaction) MonthSummary {
	s := MonthSummary{Bucket: bucket}

	byCategory := map[string]int64{}
	byResponsible := map[string]int64{}
	byCard := map[string]int64{}
	var catOrder, respOrder, cardOrder []string

	for i := range records {
		t := records[i]
		if t.Kind == KindIncome {
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
			if t.Status.Settled() {
				s.ReceivedAmount = s.ReceivedAmount.Add(t.Amount)
			} else {
				s.ReceivableAmount = s.ReceivableAmount.Add(t.Amount)
				s.Receivable = append(s.Receivable, t)
			}
			continue
		}

		s.TotalExpense = s.TotalExpense.Add(t.Amount)
		if !t.Status.Settled() {
			s.Pending = append(s.Pending, t)
		}

		if t.Kind == KindFixedBill || t.Kind == KindPurchase {
			if t.Status.Settled() {
				s.PaidAmount = s.PaidAmount.Add(t.Amount)
			} else {
				s.PendingAmount = s.PendingAmount.Add(t.Amount)
			}
		}

		if _, seen := byCategory[t.Category]; !seen {
			catOrder = append(catOrder, t.Category)
		}
		byCategory[t.Category] += t.Amount.Cents
		resp := string(t.Responsible)
		if _, seen := byResponsible[resp]; !seen {
			respOrder = append(respOrder, resp)
		}
		byResponsible[resp] += t.Amount.Cents
		if t.CardID != "" {
			if _, seen := byCard[t.CardID]; !seen {
				cardOrder = append(cardOrder, t.CardID)
			}
			byCard[t.CardID] += t.Amount.Cents
		}

		if s.LargestExpense == nil || t.Amount.Cents > s.LargestExpense.Amount.Cents {
			s.LargestExpense = &records[i]
		}
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	if due := s.PaidAmount.Cents + s.PendingAmount.Cents; due > 0 {
		s.PaymentProgress = float64(s.PaidAmount.Cents) / float64(due)
	}

	s.ByCategory = orderedAmounts(byCategory, catOrder)
	s.ByResponsible = orderedAmounts(byResponsible, respOrder)
	s.ByCard = orderedAmounts(byCard, cardOrder)
	return s
}

// GoalProgress returns spent/goal for the configured monthly goal, 0 when no
// goal is set.
func (s MonthSummary) GoalProgress(goal Money) float64 {
	if goal.Cents <= 0 {
		return 0
	}
	return float64(s.TotalExpense.Cents) / float64(goal.Cents)
}

func orderedAmounts(sums map[string]int64, order []string) []AmountByKey {
	if len(order) == 0 {
		return nil
	}
	out := make([]AmountByKey, len(order))
	for i, key := range order {
		out[i] = AmountByKey{Key: key, Amount: Money{Cents: sums[key]}}
	}
	return out
}
