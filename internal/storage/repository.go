// Package storage is the SQLite backend. Rows keep the Portuguese column
// names and the "janeiro de 2025" month labels of the original spreadsheet
// export, so an existing database file stays readable.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contas/internal/core"
	"contas/internal/ledger"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// storeErr classifies a driver failure so errors.Is works across layers.
func storeErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, core.ErrStoreUnavailable, err)
}

const transactionColumns = `id, data, descricao, valor_cents, tipo, categoria, responsavel,
	forma_pagamento, parcelas, cartao_id, status, mes_referencia, grupo_parcelas, data_recebimento`

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	receipt := ""
	if !t.ReceiptDate.IsZero() {
		receipt = t.ReceiptDate.Format(dateLayout)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transacoes (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.Format(dateLayout), t.Description, t.Amount.Cents,
		string(t.Kind), t.Category, string(t.Responsible), string(t.PaymentMethod),
		t.Installments, t.CardID, string(t.Status), t.Bucket.Label(), t.GroupID, receipt)
	if err != nil {
		return storeErr("insert transaction", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transacoes WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, storeErr("get transaction", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, p ledger.Patch) error {
	var sets []string
	var args []any
	set := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if p.Date != nil {
		set("data", p.Date.Format(dateLayout))
	}
	if p.Description != nil {
		set("descricao", *p.Description)
	}
	if p.Amount != nil {
		set("valor_cents", p.Amount.Cents)
	}
	if p.Category != nil {
		set("categoria", *p.Category)
	}
	if p.Responsible != nil {
		set("responsavel", string(*p.Responsible))
	}
	if p.PaymentMethod != nil {
		set("forma_pagamento", string(*p.PaymentMethod))
	}
	if p.CardID != nil {
		set("cartao_id", *p.CardID)
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	if p.Bucket != nil {
		set("mes_referencia", p.Bucket.Label())
	}
	if p.ReceiptDate != nil {
		receipt := ""
		if !p.ReceiptDate.IsZero() {
			receipt = p.ReceiptDate.Format(dateLayout)
		}
		set("data_recebimento", receipt)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE transacoes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return storeErr("update transaction", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transacoes WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete transaction", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListByBucket(ctx context.Context, key core.MonthKey) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transacoes
		WHERE mes_referencia = ?
		ORDER BY data DESC, created_at DESC`, key.Label())
	if err != nil {
		return nil, storeErr("list bucket", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListByGroup(ctx context.Context, groupID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transacoes
		WHERE grupo_parcelas = ? AND grupo_parcelas != ''
		ORDER BY rowid ASC`, groupID)
	if err != nil {
		return nil, storeErr("list group", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListBuckets returns every month that has at least one record, newest first.
func (r *SQLiteRepository) ListBuckets(ctx context.Context) ([]core.MonthKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT mes_referencia FROM transacoes`)
	if err != nil {
		return nil, storeErr("list buckets", err)
	}
	defer rows.Close()

	var keys []core.MonthKey
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, storeErr("scan bucket label", err)
		}
		key, err := core.ParseMonthLabel(label)
		if err != nil {
			return nil, fmt.Errorf("stored bucket label %q: %w", label, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list buckets", err)
	}
	// DISTINCT gives no useful order; sort newest first here.
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j].Year > keys[i].Year ||
				(keys[j].Year == keys[i].Year && keys[j].Month > keys[i].Month) {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys, nil
}

func (r *SQLiteRepository) CountTransactionsByCard(ctx context.Context, cardID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transacoes WHERE cartao_id = ?`, cardID).Scan(&n)
	if err != nil {
		return 0, storeErr("count card transactions", err)
	}
	return n, nil
}

func (r *SQLiteRepository) InsertCard(ctx context.Context, c core.Card) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cartoes (id, nome, dia_vencimento) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.DueDay)
	if err != nil {
		return storeErr("insert card", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nome, dia_vencimento FROM cartoes ORDER BY nome ASC`)
	if err != nil {
		return nil, storeErr("list cards", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		var c core.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.DueDay); err != nil {
			return nil, storeErr("scan card", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list cards", err)
	}
	return cards, nil
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cartoes WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete card", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete card %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categorias (id, nome) VALUES (?, ?)`, c.ID, c.Name)
	if err != nil {
		return storeErr("insert category", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nome FROM categorias ORDER BY nome ASC`)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storeErr("scan category", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list categories", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categorias WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete category", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete category %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	err := r.db.QueryRowContext(ctx,
		`SELECT id, meta_mensal_cents FROM configuracoes WHERE id = 'default'`).
		Scan(&s.ID, &s.MonthlyGoal.Cents)
	if err != nil {
		return core.Settings{}, storeErr("get settings", err)
	}
	return s, nil
}

func (r *SQLiteRepository) UpdateSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE configuracoes SET meta_mensal_cents = ?, updated_at = ?
		WHERE id = 'default'`, s.MonthlyGoal.Cents, time.Now().UTC())
	if err != nil {
		return storeErr("update settings", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                          core.Transaction
		dateStr, receiptStr        string
		kind, resp, method, status string
		bucketLabel                string
	)
	err := row.Scan(&t.ID, &dateStr, &t.Description, &t.Amount.Cents, &kind,
		&t.Category, &resp, &method, &t.Installments, &t.CardID, &status,
		&bucketLabel, &t.GroupID, &receiptStr)
	if err != nil {
		return core.Transaction{}, err
	}

	day, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	t.Date = core.Date{Time: day}
	if receiptStr != "" {
		rd, err := time.Parse(dateLayout, receiptStr)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("stored receipt date %q: %w", receiptStr, err)
		}
		t.ReceiptDate = core.Date{Time: rd}
	}
	t.Bucket, err = core.ParseMonthLabel(bucketLabel)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored bucket label %q: %w", bucketLabel, err)
	}
	t.Kind = core.Kind(kind)
	t.Responsible = core.Responsible(resp)
	t.PaymentMethod = core.PaymentMethod(method)
	t.Status = core.Status(status)
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, storeErr("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate transactions", err)
	}
	return out, nil
}
