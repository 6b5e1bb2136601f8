package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"contas/internal/bucket"
	"contas/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	key, err := bucketFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := bucket.Filter{
		Kind:        core.Kind(q.Get("kind")),
		Status:      core.Status(q.Get("status")),
		CardID:      q.Get("card_id"),
		Responsible: core.Responsible(q.Get("responsible")),
		Category:    q.Get("category"),
	}

	records, err := s.index.Filtered(r.Context(), key, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Bucket       string                `json:"bucket"`
		Transactions []transactionResponse `json:"transactions"`
	}{key.Label(), toTransactionResponses(records)})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.transactions.Create(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Transactions []transactionResponse `json:"transactions"`
	}{toTransactionResponses(records)})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.transactions.Update(r.Context(), r.PathValue("id"), patch); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type amountByKeyResponse struct {
	Key         string `json:"key"`
	AmountCents int64  `json:"amount_cents"`
}

func toAmountByKey(entries []core.AmountByKey) []amountByKeyResponse {
	out := make([]amountByKeyResponse, len(entries))
	for i, e := range entries {
		out[i] = amountByKeyResponse{Key: e.Key, AmountCents: e.Amount.Cents}
	}
	return out
}

type dashboardResponse struct {
	Bucket            string                `json:"bucket"`
	TotalIncomeCents  int64                 `json:"total_income_cents"`
	TotalExpenseCents int64                 `json:"total_expense_cents"`
	BalanceCents      int64                 `json:"balance_cents"`
	PaidCents         int64                 `json:"paid_cents"`
	PendingCents      int64                 `json:"pending_cents"`
	PaymentProgress   float64               `json:"payment_progress"`
	ReceivedCents     int64                 `json:"received_cents"`
	ReceivableCents   int64                 `json:"receivable_cents"`
	GoalCents         int64                 `json:"goal_cents,omitempty"`
	GoalProgress      float64               `json:"goal_progress,omitempty"`
	ByCategory        []amountByKeyResponse `json:"by_category"`
	ByResponsible     []amountByKeyResponse `json:"by_responsible"`
	ByCard            []amountByKeyResponse `json:"by_card"`
	LargestExpense    *transactionResponse  `json:"largest_expense,omitempty"`
	Pending           []transactionResponse `json:"pending"`
	Receivable        []transactionResponse `json:"receivable"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	key, err := bucketFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.index.Summary(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := dashboardResponse{
		Bucket:            key.Label(),
		TotalIncomeCents:  summary.TotalIncome.Cents,
		TotalExpenseCents: summary.TotalExpense.Cents,
		BalanceCents:      summary.Balance.Cents,
		PaidCents:         summary.PaidAmount.Cents,
		PendingCents:      summary.PendingAmount.Cents,
		PaymentProgress:   summary.PaymentProgress,
		ReceivedCents:     summary.ReceivedAmount.Cents,
		ReceivableCents:   summary.ReceivableAmount.Cents,
		ByCategory:        toAmountByKey(summary.ByCategory),
		ByResponsible:     toAmountByKey(summary.ByResponsible),
		ByCard:            toAmountByKey(summary.ByCard),
		Pending:           toTransactionResponses(summary.Pending),
		Receivable:        toTransactionResponses(summary.Receivable),
	}
	if summary.LargestExpense != nil {
		largest := toTransactionResponse(*summary.LargestExpense)
		resp.LargestExpense = &largest
	}

	settings, err := s.config.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if settings.MonthlyGoal.Cents > 0 {
		resp.GoalCents = settings.MonthlyGoal.Cents
		resp.GoalProgress = summary.GoalProgress(settings.MonthlyGoal)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	key, err := bucketFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	months := 3
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		months, err = strconv.Atoi(v)
		if err != nil || months < 1 || months > 24 {
			writeError(w, r, fmt.Errorf("%w: months must be between 1 and 24", core.ErrInvalidInput))
			return
		}
	}

	comparison, err := s.reports.Compare(r.Context(), key, months)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type monthRow struct {
		Bucket            string `json:"bucket"`
		TotalIncomeCents  int64  `json:"total_income_cents"`
		TotalExpenseCents int64  `json:"total_expense_cents"`
		BalanceCents      int64  `json:"balance_cents"`
	}
	rows := make([]monthRow, len(comparison.Months))
	for i, m := range comparison.Months {
		rows[i] = monthRow{
			Bucket:            m.Bucket.Label(),
			TotalIncomeCents:  m.TotalIncome.Cents,
			TotalExpenseCents: m.TotalExpense.Cents,
			BalanceCents:      m.Balance.Cents,
		}
	}
	deltas := make([]int64, 0)
	for _, d := range comparison.Deltas() {
		deltas = append(deltas, d.Cents)
	}

	writeJSON(w, http.StatusOK, struct {
		Months      []monthRow `json:"months"`
		DeltasCents []int64    `json:"deltas_cents"`
	}{rows, deltas})
}

func (s *Server) handleByCard(w http.ResponseWriter, r *http.Request) {
	key, err := bucketFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	groups, err := s.index.ByCard(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type groupResponse struct {
		CardID       string                `json:"card_id"`
		TotalCents   int64                 `json:"total_cents"`
		AllPaid      bool                  `json:"all_paid"`
		Transactions []transactionResponse `json:"transactions"`
	}
	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = groupResponse{
			CardID:       g.CardID,
			TotalCents:   g.Total.Cents,
			AllPaid:      g.AllPaid,
			Transactions: toTransactionResponses(g.Records),
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Bucket string          `json:"bucket"`
		Cards  []groupResponse `json:"cards"`
	}{key.Label(), out})
}

type cardResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	DueDay int    `json:"due_day,omitempty"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]cardResponse, len(cards))
	for i, c := range cards {
		out[i] = cardResponse{ID: c.ID, Name: c.Name, DueDay: c.DueDay}
	}
	writeJSON(w, http.StatusOK, struct {
		Cards []cardResponse `json:"cards"`
	}{out})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		DueDay int    `json:"due_day"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	card, err := s.cards.Add(r.Context(), req.Name, req.DueDay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cardResponse{ID: card.ID, Name: card.Name, DueDay: card.DueDay})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.cards.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCardPaid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bucket string `json:"bucket"`
		Paid   bool   `json:"paid"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	key, err := core.ParseMonthLabel(req.Bucket)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.transactions.SetCardPaid(r.Context(), r.PathValue("id"), key, req.Paid); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, len(cats))
	for i, c := range cats {
		out[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, struct {
		Categories []categoryResponse `json:"categories"`
	}{out})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := s.categories.Add(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{ID: cat.ID, Name: cat.Name})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.categories.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	settings, err := s.config.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		MonthlyGoalCents int64 `json:"monthly_goal_cents"`
	}{settings.MonthlyGoal.Cents})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonthlyGoal string `json:"monthly_goal"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var goal core.Money
	if strings.TrimSpace(req.MonthlyGoal) != "" {
		cents, err := core.ParseDecimalToCents(req.MonthlyGoal)
		if err != nil {
			writeError(w, r, err)
			return
		}
		goal = core.Money{Cents: cents}
	}

	if err := s.config.SetMonthlyGoal(r.Context(), goal); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
