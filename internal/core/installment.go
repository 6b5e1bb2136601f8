package core

import "fmt"

// ExpandInstallments turns a validated draft into the records to persist.
//
// A draft paid in N > 1 installments becomes N records sharing a fresh group
// id from newGroupID. Installment i (1-based) is filed i months after the
// draft's bucket for expense kinds, or i-1 months for income: bills land on
// the statement of the following month while income starts arriving in the
// month it was entered. The amount is split so the parts sum exactly to the
// draft's amount (remainder cents go to the last installment), the description
// gains an " - Installment i/N" suffix, and every record starts unsettled no
// matter what status the draft carried.
//
// Any other draft comes back unchanged as a single record.
func ExpandInstallments(draft Transaction, newGroupID func() string) ([]Transaction, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	n := draft.Installments
	if draft.PaymentMethod != PaymentInstallment || n <= 1 {
		return []Transaction{draft}, nil
	}

	groupID := newGroupID()
	parts := draft.Amount.SplitEven(n)
	offset := 1
	if draft.Kind == KindIncome {
		offset = 0
	}

	records := make([]Transaction, n)
	for i := 1; i <= n; i++ {
		rec := draft
		rec.ID = ""
		rec.GroupID = groupID
		rec.Amount = parts[i-1]
		rec.Bucket = draft.Bucket.AddMonths(offset + i - 1)
		rec.Description = fmt.Sprintf("%s - Installment %d/%d", draft.Description, i, n)
		rec.Status = UnsettledFor(draft.Kind)
		records[i-1] = rec
	}
	return records, nil
}
