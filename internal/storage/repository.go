// Package storage persists the books in SQLite. Amounts are stored as
// integer cents and dates as ISO text, so every aggregate below stays in
// integer arithmetic end to end.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finlogs/internal/core"

	_ "modernc.org/sqlite"
)

// Settings keys.
const (
	SettingOpeningCashSeed = "opening_cash_seed"
)

// Fields the admin edit operation may touch. Anything else on a
// transaction row is immutable once written.
var editableFields = map[string]string{
	"txn_date":     "txn_date",
	"bill_no":      "bill_no",
	"txn_type":     "txn_type",
	"payment_mode": "payment_mode",
	"amount":       "amount_cents",
}

// Payment modes that settle through the bank account. Mirrors
// core.IsBankMode for SQL-side grouping.
const bankModePredicate = "lower(trim(payment_mode)) IN ('bank','upi','gpay','google pay','googlepay')"

// Transaction types that sit on the credit side of a ledger. Mirrors
// core.Classify, including the legacy misspelling; anything else counts
// as debit, same as the Go fold.
const creditTypePredicate = "lower(trim(txn_type)) IN ('receipt','reciept','sale return')"

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

	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const selectTransaction = `
SELECT t.id, t.txn_date, t.bill_no, COALESCE(p.name, ''), t.txn_type, t.payment_mode, t.amount_cents
FROM transactions t
LEFT JOIN parties p ON p.id = t.party_id`

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var items []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			rawDate string
		)
		if err := rows.Scan(&t.ID, &rawDate, &t.BillNo, &t.Party, &t.Type, &t.Mode, &t.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("transaction %d has bad date %q: %w", t.ID, rawDate, err)
		}
		t.Date = d
		items = append(items, t)
	}
	return items, rows.Err()
}

// ListTransactions returns one page of the log, newest first. Implements
// the fetcher source.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, page, limit int) (core.TransactionPage, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return core.TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	rows, err := r.db.QueryContext(ctx,
		selectTransaction+` ORDER BY t.txn_date DESC, t.id DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return core.TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	items, err := scanTransactions(rows)
	if err != nil {
		return core.TransactionPage{}, err
	}
	return core.TransactionPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// ListTransactionsByDate returns all entries dated on date in entry
// order. Implements the fetcher source.
func (r *SQLiteRepository) ListTransactionsByDate(ctx context.Context, date core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransaction+` WHERE t.txn_date = ? ORDER BY t.id ASC`, date.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions by date: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransaction+` WHERE t.id = ?`, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	defer rows.Close()

	items, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(items) == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return items[0], nil
}

// CreateTransaction stores txn, resolving the party name to its row.
// An empty party leaves the reference NULL; an unknown party is an
// error so typos never silently detach an entry from its ledger.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, txn core.Transaction) (int64, error) {
	var partyID any
	if strings.TrimSpace(txn.Party) != "" {
		p, err := r.GetParty(ctx, txn.Party)
		if err != nil {
			return 0, fmt.Errorf("resolve party %q: %w", txn.Party, err)
		}
		partyID = p.ID
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO transactions (txn_date, bill_no, party_id, txn_type, payment_mode, amount_cents)
VALUES (?, ?, ?, ?, ?, ?)`,
		txn.Date.String(), txn.BillNo, partyID, txn.Type, txn.Mode, txn.Amount.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", txn.Date.String(),
		"type", txn.Type,
		"mode", txn.Mode,
		"amount_cents", txn.Amount.Cents)

	return id, nil
}

// UpdateTransactionField changes one editable column of a stored
// transaction. The caller validates and converts value; amounts arrive
// as int64 cents, dates as ISO strings.
func (r *SQLiteRepository) UpdateTransactionField(ctx context.Context, id int64, field string, value any) error {
	column, ok := editableFields[field]
	if !ok {
		return fmt.Errorf("field %q is not editable", field)
	}

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE transactions SET %s = ? WHERE id = ?`, column), value, id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// TransactionsBetween returns all entries in [from, to] in entry order,
// the order the daily and ledger folds require.
func (r *SQLiteRepository) TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransaction+` WHERE t.txn_date >= ? AND t.txn_date <= ? ORDER BY t.txn_date ASC, t.id ASC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("transactions between: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// TransactionsByParty returns a party's entries in entry order.
func (r *SQLiteRepository) TransactionsByParty(ctx context.Context, partyName string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransaction+` WHERE p.normalized_name = ? ORDER BY t.txn_date ASC, t.id ASC`,
		core.NormalizeName(partyName))
	if err != nil {
		return nil, fmt.Errorf("transactions by party: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// TransactionsByMode returns entries settled in mode, in entry order.
// Bank-channel modes are grouped into one statement.
func (r *SQLiteRepository) TransactionsByMode(ctx context.Context, mode string) ([]core.Transaction, error) {
	where := `lower(trim(t.payment_mode)) = lower(trim(?))`
	args := []any{mode}
	if core.IsBankMode(mode) {
		where = strings.Replace(bankModePredicate, "payment_mode", "t.payment_mode", 1)
		args = nil
	}

	rows, err := r.db.QueryContext(ctx,
		selectTransaction+` WHERE `+where+` ORDER BY t.txn_date ASC, t.id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("transactions by mode: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// TransactionsByType returns entries of one transaction type, in entry
// order.
func (r *SQLiteRepository) TransactionsByType(ctx context.Context, txnType string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransaction+` WHERE lower(trim(t.txn_type)) = lower(trim(?)) ORDER BY t.txn_date ASC, t.id ASC`,
		txnType)
	if err != nil {
		return nil, fmt.Errorf("transactions by type: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// CreateParty registers a party. Names are unique after normalization,
// and at most one party may be the bank account.
func (r *SQLiteRepository) CreateParty(ctx context.Context, p core.Party) (int64, error) {
	if p.Type == core.PartyBank {
		var n int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM parties WHERE party_type = ?`, string(core.PartyBank)).Scan(&n); err != nil {
			return 0, fmt.Errorf("count bank parties: %w", err)
		}
		if n > 0 {
			return 0, core.ErrBankPartyExists
		}
	}

	normalized := core.NormalizeName(p.Name)
	var existing int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parties WHERE normalized_name = ?`, normalized).Scan(&existing); err != nil {
		return 0, fmt.Errorf("check party name: %w", err)
	}
	if existing > 0 {
		return 0, core.ErrDuplicateParty
	}

	credit := 0
	if p.CreditAllowed || p.Type == core.PartyCreditCustomer {
		credit = 1
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO parties (name, normalized_name, party_type, credit_allowed)
VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(p.Name), normalized, string(p.Type), credit)
	if err != nil {
		return 0, fmt.Errorf("insert party: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("party id: %w", err)
	}

	slog.InfoContext(ctx, "Party registered", "id", id, "name", p.Name, "type", string(p.Type))
	return id, nil
}

func (r *SQLiteRepository) GetParty(ctx context.Context, name string) (core.Party, error) {
	var (
		p       core.Party
		rawType string
		credit  int
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, name, party_type, credit_allowed FROM parties WHERE normalized_name = ?`,
		core.NormalizeName(name)).Scan(&p.ID, &p.Name, &rawType, &credit)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Party{}, core.ErrNotFound
	}
	if err != nil {
		return core.Party{}, fmt.Errorf("get party: %w", err)
	}
	p.Type = core.PartyType(rawType)
	p.CreditAllowed = credit != 0
	return p, nil
}

func (r *SQLiteRepository) ListParties(ctx context.Context) ([]core.Party, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, party_type, credit_allowed FROM parties ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	var parties []core.Party
	for rows.Next() {
		var (
			p       core.Party
			rawType string
			credit  int
		)
		if err := rows.Scan(&p.ID, &p.Name, &rawType, &credit); err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		p.Type = core.PartyType(rawType)
		p.CreditAllowed = credit != 0
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

// RenameParty changes a party's display name. Transactions reference
// the party row by id, so history follows the rename with no cascade.
func (r *SQLiteRepository) RenameParty(ctx context.Context, oldName, newName string) error {
	newNormalized := core.NormalizeName(newName)
	oldNormalized := core.NormalizeName(oldName)

	if newNormalized != oldNormalized {
		var n int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM parties WHERE normalized_name = ?`, newNormalized).Scan(&n); err != nil {
			return fmt.Errorf("check new party name: %w", err)
		}
		if n > 0 {
			return core.ErrDuplicateParty
		}
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE parties SET name = ?, normalized_name = ? WHERE normalized_name = ?`,
		strings.TrimSpace(newName), newNormalized, oldNormalized)
	if err != nil {
		return fmt.Errorf("rename party: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Party renamed", "from", oldName, "to", newName)
	return nil
}

// SaveCashInHand records the counted drawer figure for a day,
// overwriting any earlier count for the same day.
func (r *SQLiteRepository) SaveCashInHand(ctx context.Context, date core.Date, cents int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO daily_cash (txn_date, cash_in_hand_cents, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(txn_date) DO UPDATE SET cash_in_hand_cents = excluded.cash_in_hand_cents, updated_at = CURRENT_TIMESTAMP`,
		date.String(), cents)
	if err != nil {
		return fmt.Errorf("save cash in hand: %w", err)
	}

	slog.InfoContext(ctx, "Cash in hand recorded", "date", date.String(), "cents", cents)
	return nil
}

// CashInHandBetween returns the counted figures in [from, to] keyed by
// ISO date.
func (r *SQLiteRepository) CashInHandBetween(ctx context.Context, from, to core.Date) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT txn_date, cash_in_hand_cents FROM daily_cash WHERE txn_date >= ? AND txn_date <= ?`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("cash in hand between: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			date  string
			cents int64
		)
		if err := rows.Scan(&date, &cents); err != nil {
			return nil, fmt.Errorf("scan cash in hand: %w", err)
		}
		counts[date] = cents
	}
	return counts, rows.Err()
}

// LatestCashInHandBefore returns the most recent counted figure dated
// strictly before date, or nil when no count exists.
func (r *SQLiteRepository) LatestCashInHandBefore(ctx context.Context, date core.Date) (*int64, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
SELECT cash_in_hand_cents FROM daily_cash WHERE txn_date < ? ORDER BY txn_date DESC LIMIT 1`,
		date.String()).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest cash in hand: %w", err)
	}
	return &cents, nil
}

// CashTotalsBefore sums the cash received and cash spent strictly
// before date, for reconstructing an opening balance mid-history.
func (r *SQLiteRepository) CashTotalsBefore(ctx context.Context, date core.Date) (cashIn, cashExpense int64, err error) {
	err = r.db.QueryRowContext(ctx, `
SELECT
  COALESCE(SUM(CASE WHEN lower(trim(txn_type)) IN ('receipt','reciept') THEN amount_cents ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN lower(trim(txn_type)) = 'expense' THEN amount_cents ELSE 0 END), 0)
FROM transactions
WHERE txn_date < ? AND lower(trim(payment_mode)) = 'cash'`,
		date.String()).Scan(&cashIn, &cashExpense)
	if err != nil {
		return 0, 0, fmt.Errorf("cash totals before %s: %w", date.String(), err)
	}
	return cashIn, cashExpense, nil
}

// ActiveDatesBetween returns every date in [from, to] that has either a
// transaction or a cash count, ascending. Days with only a count still
// get a reconciliation row.
func (r *SQLiteRepository) ActiveDatesBetween(ctx context.Context, from, to core.Date) ([]core.Date, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT txn_date FROM transactions WHERE txn_date >= ? AND txn_date <= ?
UNION
SELECT txn_date FROM daily_cash WHERE txn_date >= ? AND txn_date <= ?
ORDER BY txn_date ASC`,
		from.String(), to.String(), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("active dates: %w", err)
	}
	defer rows.Close()

	var dates []core.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		d, err := core.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO app_settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// OpeningCashSeed returns the configured opening balance in cents,
// zero when never set.
func (r *SQLiteRepository) OpeningCashSeed(ctx context.Context) (int64, error) {
	raw, err := r.GetSetting(ctx, SettingOpeningCashSeed)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("opening cash seed %q: %w", raw, err)
	}
	return cents, nil
}

func (r *SQLiteRepository) SetOpeningCashSeed(ctx context.Context, cents int64) error {
	return r.SetSetting(ctx, SettingOpeningCashSeed, strconv.FormatInt(cents, 10))
}

// AuditEntry is one persisted audit row.
type AuditEntry struct {
	ID        int64
	Action    string
	TxnID     int64
	User      string
	Details   string
	CreatedAt time.Time
}

func (r *SQLiteRepository) AppendAuditLog(ctx context.Context, action string, txnID int64, user, details string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (action, txn_id, user, details) VALUES (?, ?, ?, ?)`,
		action, txnID, user, details)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAuditLogs(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, action, COALESCE(txn_id, 0), user, details, created_at
FROM audit_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			e   AuditEntry
			raw string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.TxnID, &e.User, &e.Details, &raw); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
