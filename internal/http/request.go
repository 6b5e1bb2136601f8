package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contas/internal/core"
	"contas/internal/ledger"
)

const dateLayout = "2006-01-02"

// decodeJSON reads a JSON body with a size cap and strict field checking.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", core.ErrInvalidInput, err)
	}
	return nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", core.ErrInvalidInput, s)
	}
	return core.Date{Time: t}, nil
}

// sanitize trims whitespace and strips control characters from user text.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type transactionResponse struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	AmountCents   int64  `json:"amount_cents"`
	Kind          string `json:"kind"`
	Category      string `json:"category"`
	Responsible   string `json:"responsible"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Installments  int    `json:"installments,omitempty"`
	CardID        string `json:"card_id,omitempty"`
	Status        string `json:"status"`
	MonthBucket   string `json:"month_bucket"`
	GroupID       string `json:"group_id,omitempty"`
	ReceiptDate   string `json:"receipt_date,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:            t.ID,
		Date:          t.Date.Format(dateLayout),
		Description:   t.Description,
		AmountCents:   t.Amount.Cents,
		Kind:          string(t.Kind),
		Category:      t.Category,
		Responsible:   string(t.Responsible),
		PaymentMethod: string(t.PaymentMethod),
		Installments:  t.Installments,
		CardID:        t.CardID,
		Status:        string(t.Status),
		MonthBucket:   t.Bucket.Label(),
		GroupID:       t.GroupID,
	}
	if !t.ReceiptDate.IsZero() {
		resp.ReceiptDate = t.ReceiptDate.Format(dateLayout)
	}
	return resp
}

func toTransactionResponses(ts []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(ts))
	for i, t := range ts {
		out[i] = toTransactionResponse(t)
	}
	return out
}

type createTransactionRequest struct {
	Date          string `json:"date"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Kind          string `json:"kind"`
	Category      string `json:"category"`
	Responsible   string `json:"responsible"`
	PaymentMethod string `json:"payment_method"`
	Installments  int    `json:"installments"`
	CardID        string `json:"card_id"`
	Status        string `json:"status"`
	MonthBucket   string `json:"month_bucket"`
	ReceiptDate   string `json:"receipt_date"`
}

func (req createTransactionRequest) toDraft() (core.Transaction, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	draft := core.Transaction{
		Date:          date,
		Description:   sanitize(req.Description),
		Amount:        core.Money{Cents: cents},
		Kind:          core.Kind(req.Kind),
		Category:      sanitize(req.Category),
		Responsible:   core.Responsible(req.Responsible),
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		Installments:  req.Installments,
		CardID:        strings.TrimSpace(req.CardID),
	}

	// Status defaults to the kind's unsettled state when omitted.
	if req.Status == "" {
		draft.Status = core.UnsettledFor(draft.Kind)
	} else {
		draft.Status = core.Status(req.Status)
	}

	if req.MonthBucket != "" {
		draft.Bucket, err = core.ParseMonthLabel(req.MonthBucket)
		if err != nil {
			return core.Transaction{}, err
		}
	}
	if req.ReceiptDate != "" {
		draft.ReceiptDate, err = parseDate(req.ReceiptDate)
		if err != nil {
			return core.Transaction{}, err
		}
	}
	return draft, nil
}

type updateTransactionRequest struct {
	Date          *string `json:"date"`
	Description   *string `json:"description"`
	Amount        *string `json:"amount"`
	Category      *string `json:"category"`
	Responsible   *string `json:"responsible"`
	PaymentMethod *string `json:"payment_method"`
	CardID        *string `json:"card_id"`
	Status        *string `json:"status"`
	MonthBucket   *string `json:"month_bucket"`
	ReceiptDate   *string `json:"receipt_date"`
}

func (req updateTransactionRequest) toPatch() (ledger.Patch, error) {
	var p ledger.Patch

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return ledger.Patch{}, err
		}
		p.Date = &date
	}
	if req.Description != nil {
		desc := sanitize(*req.Description)
		p.Description = &desc
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			return ledger.Patch{}, err
		}
		p.Amount = &core.Money{Cents: cents}
	}
	if req.Category != nil {
		cat := sanitize(*req.Category)
		p.Category = &cat
	}
	if req.Responsible != nil {
		resp := core.Responsible(*req.Responsible)
		p.Responsible = &resp
	}
	if req.PaymentMethod != nil {
		method := core.PaymentMethod(*req.PaymentMethod)
		p.PaymentMethod = &method
	}
	if req.CardID != nil {
		id := strings.TrimSpace(*req.CardID)
		p.CardID = &id
	}
	if req.Status != nil {
		status := core.Status(*req.Status)
		p.Status = &status
	}
	if req.MonthBucket != nil {
		key, err := core.ParseMonthLabel(*req.MonthBucket)
		if err != nil {
			return ledger.Patch{}, err
		}
		p.Bucket = &key
	}
	if req.ReceiptDate != nil {
		date, err := parseDate(*req.ReceiptDate)
		if err != nil {
			return ledger.Patch{}, err
		}
		p.ReceiptDate = &date
	}
	return p, nil
}

// bucketFromQuery reads the bucket query parameter, defaulting to the month
// after the current one when absent. New expenses land on next month's
// statement, so that is the month the household usually looks at.
func bucketFromQuery(r *http.Request) (core.MonthKey, error) {
	label := strings.TrimSpace(r.URL.Query().Get("bucket"))
	if label == "" {
		return core.MonthKeyOf(time.Now()).AddMonths(1), nil
	}
	return core.ParseMonthLabel(label)
}
