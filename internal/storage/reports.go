package storage

import (
	"context"
	"fmt"

	"finlogs/internal/core"
)

// PartyTotal is one trial-balance row: a party's debit and credit sums.
type PartyTotal struct {
	Party     string
	PartyType string
	Debit     int64
	Credit    int64
}

// Outstanding is a credit customer's unpaid balance.
type Outstanding struct {
	Party   string
	Balance int64
}

// DashboardTotals are the headline sums for a date range.
type DashboardTotals struct {
	TotalSales     int64
	TotalReceipts  int64
	TotalExpenses  int64
	TotalPurchases int64
	CashIn         int64
	BankIn         int64
}

// SumAmountByType sums entry amounts of one transaction type in
// [from, to].
func (r *SQLiteRepository) SumAmountByType(ctx context.Context, txnType string, from, to core.Date) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
WHERE lower(trim(txn_type)) = lower(trim(?)) AND txn_date >= ? AND txn_date <= ?`,
		txnType, from.String(), to.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum by type %s: %w", txnType, err)
	}
	return total, nil
}

// TrialBalanceRows returns per-party debit and credit sums over all
// history. The side split matches the Go classification, legacy
// misspelling included, with unknown types falling to debit.
func (r *SQLiteRepository) TrialBalanceRows(ctx context.Context) ([]PartyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT p.name, p.party_type,
  COALESCE(SUM(CASE WHEN `+creditTypePredicate+` THEN 0 ELSE t.amount_cents END), 0) AS debit,
  COALESCE(SUM(CASE WHEN `+creditTypePredicate+` THEN t.amount_cents ELSE 0 END), 0) AS credit
FROM transactions t
JOIN parties p ON p.id = t.party_id
GROUP BY p.id
ORDER BY p.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("trial balance: %w", err)
	}
	defer rows.Close()

	var totals []PartyTotal
	for rows.Next() {
		var pt PartyTotal
		if err := rows.Scan(&pt.Party, &pt.PartyType, &pt.Debit, &pt.Credit); err != nil {
			return nil, fmt.Errorf("scan trial balance row: %w", err)
		}
		totals = append(totals, pt)
	}
	return totals, rows.Err()
}

// OutstandingBalances returns credit customers still owing money:
// debits exceed credits on their ledger. Settled and overpaid parties
// are omitted.
func (r *SQLiteRepository) OutstandingBalances(ctx context.Context) ([]Outstanding, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT p.name,
  COALESCE(SUM(CASE WHEN `+creditTypePredicate+` THEN -t.amount_cents ELSE t.amount_cents END), 0) AS balance
FROM transactions t
JOIN parties p ON p.id = t.party_id
WHERE p.party_type = ?
GROUP BY p.id
HAVING balance > 0
ORDER BY balance DESC`, string(core.PartyCreditCustomer))
	if err != nil {
		return nil, fmt.Errorf("outstanding balances: %w", err)
	}
	defer rows.Close()

	var out []Outstanding
	for rows.Next() {
		var o Outstanding
		if err := rows.Scan(&o.Party, &o.Balance); err != nil {
			return nil, fmt.Errorf("scan outstanding row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Dashboard returns the headline totals for [from, to] in one query.
func (r *SQLiteRepository) Dashboard(ctx context.Context, from, to core.Date) (DashboardTotals, error) {
	var d DashboardTotals
	err := r.db.QueryRowContext(ctx, `
SELECT
  COALESCE(SUM(CASE WHEN lower(trim(txn_type)) = 'sale' THEN amount_cents ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN lower(trim(txn_type)) IN ('receipt','reciept') THEN amount_cents ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN lower(trim(txn_type)) = 'expense' THEN amount_cents ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN lower(trim(txn_type)) = 'purchase' THEN amount_cents ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN lower(trim(txn_type)) IN ('receipt','reciept') AND lower(trim(payment_mode)) = 'cash' THEN amount_cents ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN lower(trim(txn_type)) IN ('sale','receipt','reciept') AND `+bankModePredicate+` THEN amount_cents ELSE 0 END), 0)
FROM transactions
WHERE txn_date >= ? AND txn_date <= ?`,
		from.String(), to.String()).Scan(
		&d.TotalSales, &d.TotalReceipts, &d.TotalExpenses, &d.TotalPurchases, &d.CashIn, &d.BankIn)
	if err != nil {
		return DashboardTotals{}, fmt.Errorf("dashboard totals: %w", err)
	}
	return d, nil
}
