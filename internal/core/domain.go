package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds callers are expected to branch on. Validation problems wrap
// ErrInvalidInput; backend failures are wrapped with ErrStoreUnavailable by the
// storage layer so both kinds survive errors.Is across layers.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = errors.New("not found")

	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrEmptyDescription    = fmt.Errorf("%w: empty description", ErrInvalidInput)
	ErrInvalidDate         = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidKind         = fmt.Errorf("%w: invalid transaction kind", ErrInvalidInput)
	ErrInvalidStatus       = fmt.Errorf("%w: invalid status", ErrInvalidInput)
	ErrInvalidResponsible  = fmt.Errorf("%w: unknown responsible", ErrInvalidInput)
	ErrInvalidInstallments = fmt.Errorf("%w: installment count must be a positive integer", ErrInvalidInput)
	ErrMissingCard         = fmt.Errorf("%w: card required for card or installment payment", ErrInvalidInput)
	ErrEmptyCategory       = fmt.Errorf("%w: empty category", ErrInvalidInput)
	ErrDuplicateName       = fmt.Errorf("%w: name already exists", ErrInvalidInput)
	ErrCardInUse           = fmt.Errorf("%w: card is referenced by transactions", ErrInvalidInput)
)

const (
	KindIncome          Kind = "receita"
	KindVariableExpense Kind = "despesa"
	KindFixedBill       Kind = "conta"
	KindPurchase        Kind = "compra"
)

const (
	StatusPaid       Status = "Pago"
	StatusUnpaid     Status = "A Pagar"
	StatusReceived   Status = "Recebido"
	StatusReceivable Status = "A Receber"
)

const (
	PaymentPix         PaymentMethod = "PIX"
	PaymentCard        PaymentMethod = "Cartão"
	PaymentInstallment PaymentMethod = "Parcelado"
	PaymentCash        PaymentMethod = "Dinheiro"
	PaymentOther       PaymentMethod = "Outros"
)

type (
	Kind          string
	Status        string
	PaymentMethod string
	Responsible   string

	Date struct {
		time.Time
	}

	// Transaction is a single ledger record. One user-entered draft may expand
	// into several of these when paid in installments; siblings share GroupID.
	Transaction struct {
		ID            string
		Date          Date
		Description   string
		Amount        Money
		Kind          Kind
		Category      string
		Responsible   Responsible
		PaymentMethod PaymentMethod // optional
		Installments  int           // optional, >1 only with PaymentInstallment
		CardID        string        // optional
		Status        Status
		Bucket        MonthKey // filing month, independent of Date
		GroupID       string   // optional installment group
		ReceiptDate   Date     // income only, optional
	}

	Card struct {
		ID     string
		Name   string
		DueDay int // optional, 1-31
	}

	Category struct {
		ID   string
		Name string
	}

	// Settings is the singleton configuration row.
	Settings struct {
		ID          string
		MonthlyGoal Money
	}
)

// Responsibles is the closed set of household members. Validated at the
// boundary so free-form strings never reach storage.
var Responsibles = []Responsible{"Liana", "Stefany", "Marília", "Nosso ❤️"}

func (r Responsible) Valid() bool {
	for _, known := range Responsibles {
		if r == known {
			return true
		}
	}
	return false
}

func (k Kind) Valid() bool {
	switch k {
	case KindIncome, KindVariableExpense, KindFixedBill, KindPurchase:
		return true
	}
	return false
}

// IsExpense reports whether the kind counts toward spending totals.
func (k Kind) IsExpense() bool {
	return k != KindIncome && k.Valid()
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case "", PaymentPix, PaymentCard, PaymentInstallment, PaymentCash, PaymentOther:
		return true
	}
	return false
}

// ValidFor reports whether the status belongs to the given kind: income uses
// Recebido/A Receber, everything else Pago/A Pagar.
func (s Status) ValidFor(k Kind) bool {
	if k == KindIncome {
		return s == StatusReceived || s == StatusReceivable
	}
	return s == StatusPaid || s == StatusUnpaid
}

// Settled reports whether the record has been paid or received.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusReceived
}

// UnsettledFor returns the "not yet settled" status for a kind.
func UnsettledFor(k Kind) Status {
	if k == KindIncome {
		return StatusReceivable
	}
	return StatusUnpaid
}

// SettledFor returns the settled status for a kind.
func SettledFor(k Kind) Status {
	if k == KindIncome {
		return StatusReceived
	}
	return StatusPaid
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) Year() int  { return d.Time.Year() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Day() int   { return d.Time.Day() }

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidInput)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Responsible.Valid() {
		return ErrInvalidResponsible
	}
	if !t.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, t.PaymentMethod)
	}
	if t.PaymentMethod == PaymentInstallment {
		if t.Installments < 1 {
			return ErrInvalidInstallments
		}
	} else if t.Installments > 1 {
		return fmt.Errorf("%w: installment count set without installment payment", ErrInvalidInput)
	}
	if t.PaymentMethod == PaymentCard || t.PaymentMethod == PaymentInstallment {
		if t.CardID == "" {
			return ErrMissingCard
		}
	}
	if !t.Status.ValidFor(t.Kind) {
		return ErrInvalidStatus
	}
	if t.Bucket.IsZero() {
		return fmt.Errorf("%w: missing month bucket", ErrInvalidInput)
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty card name", ErrInvalidInput)
	}
	if c.DueDay != 0 && (c.DueDay < 1 || c.DueDay > 31) {
		return fmt.Errorf("%w: due day must be between 1 and 31", ErrInvalidInput)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty category name", ErrInvalidInput)
	}
	return nil
}
