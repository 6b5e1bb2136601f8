package core

import (
	"errors"
	"testing"
	"time"
)

func validPurchase() Transaction {
	return Transaction{
		Date:          NewDate(2025, 3, 10),
		Description:   "Mercado",
		Amount:        Money{Cents: 15000},
		Kind:          KindPurchase,
		Category:      "Alimentação",
		Responsible:   "Stefany",
		PaymentMethod: PaymentCard,
		CardID:        "card-1",
		Status:        StatusUnpaid,
		Bucket:        MonthKey{Year: 2025, Month: time.March},
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(tr *Transaction) {}, nil},
		{"zero date", func(tr *Transaction) { tr.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(tr *Transaction) { tr.Description = "   " }, ErrEmptyDescription},
		{"zero amount", func(tr *Transaction) { tr.Amount = Money{} }, ErrInvalidAmount},
		{"bad kind", func(tr *Transaction) { tr.Kind = "loan" }, ErrInvalidKind},
		{"blank category", func(tr *Transaction) { tr.Category = "" }, ErrEmptyCategory},
		{"unknown responsible", func(tr *Transaction) { tr.Responsible = "Alguém" }, ErrInvalidResponsible},
		{"card payment without card", func(tr *Transaction) { tr.CardID = "" }, ErrMissingCard},
		{"income status on expense", func(tr *Transaction) { tr.Status = StatusReceived }, ErrInvalidStatus},
		{"expense status on income", func(tr *Transaction) {
			tr.Kind = KindIncome
			tr.Category = "Receita"
			tr.PaymentMethod = ""
			tr.CardID = ""
			tr.Status = StatusPaid
		}, ErrInvalidStatus},
		{"installments without installment payment", func(tr *Transaction) { tr.Installments = 3 }, ErrInvalidInput},
		{"missing bucket", func(tr *Transaction) { tr.Bucket = MonthKey{} }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validPurchase()
			tt.mutate(&tr)
			err := tr.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	if UnsettledFor(KindIncome) != StatusReceivable {
		t.Error("UnsettledFor(income) != A Receber")
	}
	if UnsettledFor(KindPurchase) != StatusUnpaid {
		t.Error("UnsettledFor(purchase) != A Pagar")
	}
	if SettledFor(KindIncome) != StatusReceived {
		t.Error("SettledFor(income) != Recebido")
	}
	if SettledFor(KindFixedBill) != StatusPaid {
		t.Error("SettledFor(bill) != Pago")
	}
	if !StatusPaid.Settled() || !StatusReceived.Settled() {
		t.Error("Pago/Recebido should be settled")
	}
	if StatusUnpaid.Settled() || StatusReceivable.Settled() {
		t.Error("A Pagar/A Receber should be unsettled")
	}
}

func TestCard_Validate(t *testing.T) {
	if err := (Card{Name: "Nubank", DueDay: 10}).Validate(); err != nil {
		t.Errorf("valid card rejected: %v", err)
	}
	if err := (Card{Name: "Nubank"}).Validate(); err != nil {
		t.Errorf("card without due day rejected: %v", err)
	}
	if err := (Card{Name: ""}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name error = %v", err)
	}
	if err := (Card{Name: "Visa", DueDay: 32}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("due day 32 error = %v", err)
	}
}
