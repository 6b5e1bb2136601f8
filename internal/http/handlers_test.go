package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contas/internal/bucket"
	"contas/internal/ledger"
	"contas/internal/report"
	"contas/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo := memory.NewRepository()
	idx := bucket.NewIndex(repo, 0, 0)
	transactions := ledger.NewTransactionStore(repo, idx, nil)
	return NewServer(":0",
		transactions,
		ledger.NewCardRegistry(repo),
		ledger.NewCategoryRegistry(repo),
		ledger.NewConfigStore(repo),
		idx,
		report.NewBuilder(idx))
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func createPurchase(t *testing.T, srv *Server, installments int) []transactionResponse {
	t.Helper()
	req := map[string]any{
		"date":         "2025-03-10",
		"description":  "Notebook",
		"amount":       "300,00",
		"kind":         "compra",
		"category":     "Eletrônicos",
		"responsible":  "Liana",
		"month_bucket": "março de 2025",
	}
	if installments > 1 {
		req["payment_method"] = "Parcelado"
		req["installments"] = installments
		req["card_id"] = "card-1"
	} else {
		req["payment_method"] = "PIX"
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Transactions []transactionResponse `json:"transactions"`
	}
	decodeBody(t, rec, &resp)
	return resp.Transactions
}

func TestCreateTransaction_Installments(t *testing.T) {
	srv := newTestServer(t)

	records := createPurchase(t, srv, 3)
	if len(records) != 3 {
		t.Fatalf("created %d records, want 3", len(records))
	}
	if records[0].MonthBucket != "abril de 2025" {
		t.Errorf("first installment bucket = %q, want abril de 2025", records[0].MonthBucket)
	}
	if records[0].Status != "A Pagar" {
		t.Errorf("installment status = %q, want A Pagar", records[0].Status)
	}
	var sum int64
	for _, rec := range records {
		sum += rec.AmountCents
	}
	if sum != 30000 {
		t.Errorf("amounts sum to %d cents, want 30000", sum)
	}
}

func TestCreateTransaction_Invalid(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"date":        "2025-03-10",
		"description": "Mercado",
		"amount":      "-5",
		"kind":        "compra",
		"category":    "Alimentação",
		"responsible": "Liana",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Kind != "invalid input" {
		t.Errorf("error kind = %q, want invalid input", resp.Kind)
	}
}

func TestListTransactions_FilterByStatus(t *testing.T) {
	srv := newTestServer(t)
	createPurchase(t, srv, 1)

	rec := doJSON(t, srv, http.MethodGet,
		"/api/transactions?bucket=mar%C3%A7o+de+2025&status=A+Pagar", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Bucket       string                `json:"bucket"`
		Transactions []transactionResponse `json:"transactions"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(resp.Transactions))
	}

	rec = doJSON(t, srv, http.MethodGet,
		"/api/transactions?bucket=mar%C3%A7o+de+2025&status=Pago", nil)
	decodeBody(t, rec, &resp)
	if len(resp.Transactions) != 0 {
		t.Errorf("paid filter matched %d records, want 0", len(resp.Transactions))
	}
}

func TestGetTransaction_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateTransaction_GroupPropagation(t *testing.T) {
	srv := newTestServer(t)
	records := createPurchase(t, srv, 3)

	rec := doJSON(t, srv, http.MethodPatch, "/api/transactions/"+records[1].ID,
		map[string]any{"category": "Trabalho"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}

	got := doJSON(t, srv, http.MethodGet, "/api/transactions/"+records[0].ID, nil)
	var sibling transactionResponse
	decodeBody(t, got, &sibling)
	if sibling.Category != "Trabalho" {
		t.Errorf("sibling category = %q, want propagated Trabalho", sibling.Category)
	}
	if sibling.Status != "A Pagar" {
		t.Errorf("sibling status = %q, want untouched", sibling.Status)
	}
}

func TestDeleteTransaction_RemovesGroup(t *testing.T) {
	srv := newTestServer(t)
	records := createPurchase(t, srv, 3)

	rec := doJSON(t, srv, http.MethodDelete, "/api/transactions/"+records[2].ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	for _, r := range records {
		if got := doJSON(t, srv, http.MethodGet, "/api/transactions/"+r.ID, nil); got.Code != http.StatusNotFound {
			t.Errorf("record %s still reachable after group delete", r.ID)
		}
	}
}

func TestSetCardPaid(t *testing.T) {
	srv := newTestServer(t)
	records := createPurchase(t, srv, 3)
	first := records[0]

	rec := doJSON(t, srv, http.MethodPost, "/api/cards/card-1/paid",
		map[string]any{"bucket": first.MonthBucket, "paid": true})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	got := doJSON(t, srv, http.MethodGet, "/api/transactions/"+first.ID, nil)
	var updated transactionResponse
	decodeBody(t, got, &updated)
	if updated.Status != "Pago" {
		t.Errorf("status after card paid = %q, want Pago", updated.Status)
	}

	// Installments in other buckets stay untouched.
	got = doJSON(t, srv, http.MethodGet, "/api/transactions/"+records[1].ID, nil)
	decodeBody(t, got, &updated)
	if updated.Status != "A Pagar" {
		t.Errorf("next month's installment = %q, want A Pagar", updated.Status)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)
	createPurchase(t, srv, 1)

	if rec := doJSON(t, srv, http.MethodPut, "/api/config",
		map[string]any{"monthly_goal": "600,00"}); rec.Code != http.StatusNoContent {
		t.Fatalf("set goal status = %d", rec.Code)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard?bucket=mar%C3%A7o+de+2025", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp dashboardResponse
	decodeBody(t, rec, &resp)
	if resp.TotalExpenseCents != 30000 {
		t.Errorf("total expense = %d, want 30000", resp.TotalExpenseCents)
	}
	if resp.GoalProgress != 0.5 {
		t.Errorf("goal progress = %v, want 0.5", resp.GoalProgress)
	}
	if len(resp.Pending) != 1 {
		t.Errorf("pending = %d records, want 1", len(resp.Pending))
	}
}

func TestCards_DuplicateRejected(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodPost, "/api/cards",
		map[string]any{"name": "Nubank", "due_day": 10}); rec.Code != http.StatusCreated {
		t.Fatalf("create card status = %d", rec.Code)
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/cards", map[string]any{"name": "nubank"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate card status = %d, want 422", rec.Code)
	}
}

func TestComparison(t *testing.T) {
	srv := newTestServer(t)
	createPurchase(t, srv, 3) // buckets April, May, June 2025

	rec := doJSON(t, srv, http.MethodGet,
		"/api/reports/comparison?bucket=junho+de+2025&months=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Months []struct {
			Bucket            string `json:"bucket"`
			TotalExpenseCents int64  `json:"total_expense_cents"`
		} `json:"months"`
		DeltasCents []int64 `json:"deltas_cents"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Months) != 3 {
		t.Fatalf("got %d months, want 3", len(resp.Months))
	}
	if resp.Months[0].Bucket != "abril de 2025" {
		t.Errorf("first month = %q, want abril de 2025", resp.Months[0].Bucket)
	}
	if resp.Months[0].TotalExpenseCents != 10000 {
		t.Errorf("April expense = %d, want 10000", resp.Months[0].TotalExpenseCents)
	}
	if len(resp.DeltasCents) != 2 {
		t.Errorf("got %d deltas, want 2", len(resp.DeltasCents))
	}
}

func TestByCard(t *testing.T) {
	srv := newTestServer(t)
	createPurchase(t, srv, 3)

	rec := doJSON(t, srv, http.MethodGet, "/api/buckets/by-card?bucket=abril+de+2025", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Cards []struct {
			CardID     string `json:"card_id"`
			TotalCents int64  `json:"total_cents"`
			AllPaid    bool   `json:"all_paid"`
		} `json:"cards"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Cards) != 1 || resp.Cards[0].CardID != "card-1" {
		t.Fatalf("cards = %+v, want card-1 only", resp.Cards)
	}
	if resp.Cards[0].AllPaid {
		t.Error("unpaid installment reported as all paid")
	}
}
