package services

import (
	"context"
	"fmt"
	"strings"

	"finlogs/internal/cache"
	"finlogs/internal/core"
	"finlogs/internal/storage"
)

// ReportStore is the read surface the report service computes from.
type ReportStore interface {
	TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
	TransactionsByParty(ctx context.Context, partyName string) ([]core.Transaction, error)
	TransactionsByMode(ctx context.Context, mode string) ([]core.Transaction, error)
	TransactionsByType(ctx context.Context, txnType string) ([]core.Transaction, error)
	ActiveDatesBetween(ctx context.Context, from, to core.Date) ([]core.Date, error)
	CashInHandBetween(ctx context.Context, from, to core.Date) (map[string]int64, error)
	LatestCashInHandBefore(ctx context.Context, date core.Date) (*int64, error)
	CashTotalsBefore(ctx context.Context, date core.Date) (cashIn, cashExpense int64, err error)
	OpeningCashSeed(ctx context.Context) (int64, error)
	ListParties(ctx context.Context) ([]core.Party, error)

	SumAmountByType(ctx context.Context, txnType string, from, to core.Date) (int64, error)
	TrialBalanceRows(ctx context.Context) ([]storage.PartyTotal, error)
	OutstandingBalances(ctx context.Context) ([]storage.Outstanding, error)
	Dashboard(ctx context.Context, from, to core.Date) (storage.DashboardTotals, error)
}

// ShortExcessRow is one counted day on the short/excess report.
type ShortExcessRow struct {
	Date        string
	CashNeeded  int64
	CashInHand  int64
	ShortExcess int64
}

// ModeStatementRow is one entry on a payment-mode statement. Sales and
// receipts land in the debit column (money arriving through the mode),
// everything else in credit.
type ModeStatementRow struct {
	core.Transaction
	Debit   int64
	Credit  int64
	Balance int64
}

// TrialBalance is the per-party debit/credit summary with grand totals.
type TrialBalance struct {
	Rows        []storage.PartyTotal
	TotalDebit  int64
	TotalCredit int64
}

// ProfitAndLoss summarizes trading results for a range. All cents.
type ProfitAndLoss struct {
	Sales       int64
	SaleReturns int64
	Purchases   int64
	Expenses    int64
	GrossProfit int64
	NetProfit   int64
}

// ReportService computes the read-side reports. The daily summary is
// the expensive one; it is cached per range and invalidated on every
// write.
type ReportService struct {
	store ReportStore
	daily *cache.LRUCache[[]core.DailyCashRecord]
}

func NewReportService(store ReportStore, daily *cache.LRUCache[[]core.DailyCashRecord]) *ReportService {
	return &ReportService{store: store, daily: daily}
}

// Purge drops every cached report. The transaction service calls this
// after each write.
func (s *ReportService) Purge() {
	if s.daily != nil {
		s.daily.Purge()
	}
}

// DailySummary reconciles every active day in [from, to], newest first.
// A day with only a cash count still gets a row so the short/excess
// shows up.
func (s *ReportService) DailySummary(ctx context.Context, from, to core.Date) ([]core.DailyCashRecord, error) {
	key := fmt.Sprintf("daily:%s:%s", from.String(), to.String())
	if s.daily != nil {
		if cached, ok := s.daily.Get(key); ok {
			return cached, nil
		}
	}

	records, err := s.reconcileRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	// Display order: most recent day first.
	out := make([]core.DailyCashRecord, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	if s.daily != nil {
		s.daily.Set(key, out)
	}
	return out, nil
}

// reconcileRange computes the day-over-day chain in ascending order.
func (s *ReportService) reconcileRange(ctx context.Context, from, to core.Date) ([]core.DailyCashRecord, error) {
	dates, err := s.store.ActiveDatesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}

	txns, err := s.store.TransactionsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string][]core.Transaction)
	for _, t := range txns {
		k := t.Date.String()
		byDate[k] = append(byDate[k], t)
	}
	days := make([]core.DayBook, 0, len(dates))
	for _, d := range dates {
		days = append(days, core.DayBook{Date: d, Transactions: byDate[d.String()]})
	}

	counts, err := s.store.CashInHandBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	opening, err := s.openingCash(ctx, dates[0])
	if err != nil {
		return nil, err
	}

	creditParties, err := s.creditParties(ctx)
	if err != nil {
		return nil, err
	}

	return core.ReconcileDays(days, counts, creditParties, opening), nil
}

// openingCash derives the chain's starting balance for a window that
// may begin mid-history.
func (s *ReportService) openingCash(ctx context.Context, first core.Date) (int64, error) {
	latest, err := s.store.LatestCashInHandBefore(ctx, first)
	if err != nil {
		return 0, err
	}
	seed, err := s.store.OpeningCashSeed(ctx)
	if err != nil {
		return 0, err
	}
	cashIn, cashExpense, err := s.store.CashTotalsBefore(ctx, first)
	if err != nil {
		return 0, err
	}
	return core.OpeningCashForWindow(latest, seed, cashIn, cashExpense), nil
}

func (s *ReportService) creditParties(ctx context.Context) (map[string]bool, error) {
	parties, err := s.store.ListParties(ctx)
	if err != nil {
		return nil, err
	}
	credit := make(map[string]bool)
	for _, p := range parties {
		if p.Type == core.PartyCreditCustomer || p.CreditAllowed {
			credit[core.NormalizeName(p.Name)] = true
		}
	}
	return credit, nil
}

// ShortExcess lists the counted days in [from, to] with their
// shortfall or excess, newest first.
func (s *ReportService) ShortExcess(ctx context.Context, from, to core.Date) ([]ShortExcessRow, error) {
	records, err := s.DailySummary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var rows []ShortExcessRow
	for _, r := range records {
		if r.CashShortExcess == nil {
			continue
		}
		rows = append(rows, ShortExcessRow{
			Date:        r.Date.String(),
			CashNeeded:  r.CashNeeded,
			CashInHand:  *r.CashInHand,
			ShortExcess: *r.CashShortExcess,
		})
	}
	return rows, nil
}

// MonthlyShortExcess aggregates counted days into month buckets,
// newest month first.
func (s *ReportService) MonthlyShortExcess(ctx context.Context, from, to core.Date) ([]core.MonthShortExcess, error) {
	records, err := s.reconcileRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return core.MonthlyShortExcess(records), nil
}

// PartyLedger returns a party's entries with the running Dr/Cr balance.
// An unknown party yields an empty ledger, not an error.
func (s *ReportService) PartyLedger(ctx context.Context, partyName string) ([]core.LedgerEntry, error) {
	txns, err := s.store.TransactionsByParty(ctx, partyName)
	if err != nil {
		return nil, err
	}
	return core.RunningBalance(txns), nil
}

// ModeStatement returns the entries settled through one payment mode
// with a running balance of money held in that mode.
func (s *ReportService) ModeStatement(ctx context.Context, mode string) ([]ModeStatementRow, error) {
	txns, err := s.store.TransactionsByMode(ctx, mode)
	if err != nil {
		return nil, err
	}

	rows := make([]ModeStatementRow, 0, len(txns))
	var balance int64
	for _, t := range txns {
		row := ModeStatementRow{Transaction: t}
		lower := strings.ToLower(strings.TrimSpace(t.Type))
		if lower == "sale" || lower == "receipt" || lower == "reciept" {
			row.Debit = t.Amount.Cents
			balance += t.Amount.Cents
		} else {
			row.Credit = t.Amount.Cents
			balance -= t.Amount.Cents
		}
		row.Balance = balance
		rows = append(rows, row)
	}
	return rows, nil
}

// TypeReport returns entries of one transaction type in [from, to]
// with their sum.
func (s *ReportService) TypeReport(ctx context.Context, txnType string, from, to core.Date) ([]core.Transaction, int64, error) {
	txns, err := s.store.TransactionsByType(ctx, txnType)
	if err != nil {
		return nil, 0, err
	}

	var (
		filtered []core.Transaction
		total    int64
	)
	for _, t := range txns {
		if t.Date.Before(from.Time) || t.Date.After(to.Time) {
			continue
		}
		filtered = append(filtered, t)
		total += t.Amount.Cents
	}
	return filtered, total, nil
}

// TrialBalance returns the per-party debit/credit sums with totals.
func (s *ReportService) TrialBalance(ctx context.Context) (TrialBalance, error) {
	rows, err := s.store.TrialBalanceRows(ctx)
	if err != nil {
		return TrialBalance{}, err
	}
	tb := TrialBalance{Rows: rows}
	for _, r := range rows {
		tb.TotalDebit += r.Debit
		tb.TotalCredit += r.Credit
	}
	return tb, nil
}

// ProfitAndLoss computes trading results for [from, to].
func (s *ReportService) ProfitAndLoss(ctx context.Context, from, to core.Date) (ProfitAndLoss, error) {
	var (
		pnl ProfitAndLoss
		err error
	)
	if pnl.Sales, err = s.store.SumAmountByType(ctx, core.TypeSale, from, to); err != nil {
		return ProfitAndLoss{}, err
	}
	if pnl.SaleReturns, err = s.store.SumAmountByType(ctx, core.TypeSaleReturn, from, to); err != nil {
		return ProfitAndLoss{}, err
	}
	if pnl.Purchases, err = s.store.SumAmountByType(ctx, core.TypePurchase, from, to); err != nil {
		return ProfitAndLoss{}, err
	}
	if pnl.Expenses, err = s.store.SumAmountByType(ctx, core.TypeExpense, from, to); err != nil {
		return ProfitAndLoss{}, err
	}
	pnl.GrossProfit = pnl.Sales - pnl.SaleReturns - pnl.Purchases
	pnl.NetProfit = pnl.GrossProfit - pnl.Expenses
	return pnl, nil
}

// Outstanding lists credit customers with unpaid balances, largest
// first.
func (s *ReportService) Outstanding(ctx context.Context) ([]storage.Outstanding, error) {
	return s.store.OutstandingBalances(ctx)
}

// Dashboard returns the headline totals for [from, to].
func (s *ReportService) Dashboard(ctx context.Context, from, to core.Date) (storage.DashboardTotals, error) {
	return s.store.Dashboard(ctx, from, to)
}
