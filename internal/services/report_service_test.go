package services

import (
	"context"
	"testing"
	"time"

	"finlogs/internal/cache"
	"finlogs/internal/core"
)

func txn(date core.Date, party, txnType, mode string, cents int64) core.Transaction {
	return core.Transaction{Date: date, Party: party, Type: txnType, Mode: mode, Amount: core.Money{Cents: cents}}
}

func newReportService(store *fakeStore) *ReportService {
	return NewReportService(store, cache.NewLRUCache[[]core.DailyCashRecord](16, 5*time.Minute))
}

func TestDailySummaryChainsAndCaches(t *testing.T) {
	store := newFakeStore()
	store.seed = 100000
	day1 := core.NewDate(2025, 4, 10)
	day2 := core.NewDate(2025, 4, 11)
	store.txns = []core.Transaction{
		txn(day1, "ACME", core.TypeReceipt, core.ModeCash, 50000),
		txn(day1, "Rent", core.TypeExpense, core.ModeCash, 20000),
		txn(day2, "Walk-in", core.TypeSale, core.ModeCash, 10000),
	}
	store.counts[day1.String()] = 125000

	svc := newReportService(store)
	records, err := svc.DailySummary(context.Background(), day1, day2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 days, got %d", len(records))
	}

	// Newest first.
	if records[0].Date.String() != day2.String() {
		t.Fatalf("first row = %s, want %s", records[0].Date.String(), day2.String())
	}

	first := records[1]
	if first.CashNeeded != 130000 {
		t.Fatalf("day 1 cash needed = %d, want 130000", first.CashNeeded)
	}
	if first.CashShortExcess == nil || *first.CashShortExcess != -5000 {
		t.Fatalf("day 1 short/excess = %v, want -5000", first.CashShortExcess)
	}

	second := records[0]
	if second.OpeningCash != 125000 {
		t.Fatalf("day 2 opening = %d, want counted 125000", second.OpeningCash)
	}
	// A cash sale is not a receipt, so it never enters cash_in.
	if second.CashIn != 0 {
		t.Fatalf("day 2 cash in = %d, want 0", second.CashIn)
	}
	if second.CashShortExcess != nil {
		t.Fatal("day 2 was never counted, short/excess must be nil")
	}

	// Second call is served from cache.
	if _, err := svc.DailySummary(context.Background(), day1, day2); err != nil {
		t.Fatalf("cached call failed: %v", err)
	}
	if store.betweenCalls != 1 {
		t.Fatalf("store queried %d times, want 1", store.betweenCalls)
	}

	// A write purges the cache; the next call recomputes.
	svc.Purge()
	if _, err := svc.DailySummary(context.Background(), day1, day2); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if store.betweenCalls != 2 {
		t.Fatalf("store queried %d times after purge, want 2", store.betweenCalls)
	}
}

func TestDailySummaryEmptyRange(t *testing.T) {
	svc := newReportService(newFakeStore())
	records, err := svc.DailySummary(context.Background(), core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no rows, got %d", len(records))
	}
}

func TestShortExcessListsCountedDaysOnly(t *testing.T) {
	store := newFakeStore()
	day1 := core.NewDate(2025, 4, 10)
	day2 := core.NewDate(2025, 4, 11)
	store.txns = []core.Transaction{
		txn(day1, "ACME", core.TypeReceipt, core.ModeCash, 50000),
		txn(day2, "ACME", core.TypeReceipt, core.ModeCash, 30000),
	}
	store.counts[day1.String()] = 52000

	svc := newReportService(store)
	rows, err := svc.ShortExcess(context.Background(), day1, day2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 counted day, got %d", len(rows))
	}
	if rows[0].Date != day1.String() || rows[0].ShortExcess != 2000 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestMonthlyShortExcessViaService(t *testing.T) {
	store := newFakeStore()
	april := core.NewDate(2025, 4, 10)
	may := core.NewDate(2025, 5, 5)
	store.txns = []core.Transaction{
		txn(april, "ACME", core.TypeReceipt, core.ModeCash, 10000),
		txn(may, "ACME", core.TypeReceipt, core.ModeCash, 10000),
	}
	store.counts[april.String()] = 9000 // 10.00 short, closes april at 90.00
	store.counts[may.String()] = 19500 // 5.00 over the 190.00 needed

	svc := newReportService(store)
	months, err := svc.MonthlyShortExcess(context.Background(), april, may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("expected 2 months, got %d", len(months))
	}
	if months[0].Month != "2025-05" || months[1].Month != "2025-04" {
		t.Fatalf("months out of order: %+v", months)
	}
	if months[1].Shortfall != -1000 {
		t.Fatalf("april shortfall = %d, want -1000", months[1].Shortfall)
	}
	if months[0].Excess != 500 {
		t.Fatalf("may excess = %d, want 500", months[0].Excess)
	}
}

func TestPartyLedgerRunningBalance(t *testing.T) {
	store := newFakeStore()
	d := core.NewDate(2025, 4, 10)
	store.txns = []core.Transaction{
		txn(d, "Ravi Traders", core.TypeSale, core.ModeCredit, 10000),
		txn(d, "Ravi Traders", core.TypeReceipt, core.ModeCash, 6000),
	}

	svc := newReportService(store)
	entries, err := svc.PartyLedger(context.Background(), "Ravi Traders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Balance != 4000 || entries[1].BalanceLabel() != "40.00 Dr" {
		t.Fatalf("final balance = %d (%s)", entries[1].Balance, entries[1].BalanceLabel())
	}

	// Unknown party: empty ledger, no error.
	empty, err := svc.PartyLedger(context.Background(), "Nobody")
	if err != nil {
		t.Fatalf("unknown party must not error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(empty))
	}
}

func TestModeStatementColumns(t *testing.T) {
	store := newFakeStore()
	d := core.NewDate(2025, 4, 10)
	store.txns = []core.Transaction{
		txn(d, "Walk-in", core.TypeSale, "UPI", 30000),
		txn(d, "Supplies Co", core.TypePurchase, "Bank", 12000),
		txn(d, "Walk-in", core.TypeSale, core.ModeCash, 5000), // not a bank entry
	}

	svc := newReportService(store)
	rows, err := svc.ModeStatement(context.Background(), "Bank")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 bank entries, got %d", len(rows))
	}
	if rows[0].Debit != 30000 || rows[0].Credit != 0 {
		t.Fatalf("sale row: debit %d credit %d", rows[0].Debit, rows[0].Credit)
	}
	if rows[1].Debit != 0 || rows[1].Credit != 12000 {
		t.Fatalf("purchase row: debit %d credit %d", rows[1].Debit, rows[1].Credit)
	}
	if rows[1].Balance != 18000 {
		t.Fatalf("running balance = %d, want 18000", rows[1].Balance)
	}
}

func TestProfitAndLoss(t *testing.T) {
	store := newFakeStore()
	d := core.NewDate(2025, 4, 10)
	store.txns = []core.Transaction{
		txn(d, "", core.TypeSale, core.ModeCash, 100000),
		txn(d, "", core.TypeSaleReturn, core.ModeCash, 5000),
		txn(d, "", core.TypePurchase, core.ModeBank, 40000),
		txn(d, "", core.TypeExpense, core.ModeCash, 15000),
	}

	svc := newReportService(store)
	pnl, err := svc.ProfitAndLoss(context.Background(), d, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pnl.GrossProfit != 55000 {
		t.Fatalf("gross profit = %d, want 55000", pnl.GrossProfit)
	}
	if pnl.NetProfit != 40000 {
		t.Fatalf("net profit = %d, want 40000", pnl.NetProfit)
	}
}

func TestTypeReportFiltersRange(t *testing.T) {
	store := newFakeStore()
	in := core.NewDate(2025, 4, 10)
	out := core.NewDate(2025, 6, 1)
	store.txns = []core.Transaction{
		txn(in, "", core.TypeExpense, core.ModeCash, 7000),
		txn(out, "", core.TypeExpense, core.ModeCash, 9000),
	}

	svc := newReportService(store)
	items, total, err := svc.TypeReport(context.Background(), "Expense", core.NewDate(2025, 4, 1), core.NewDate(2025, 4, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || total != 7000 {
		t.Fatalf("got %d items, total %d", len(items), total)
	}
}

func TestTrialBalanceTotals(t *testing.T) {
	store := newFakeStore()
	d := core.NewDate(2025, 4, 10)
	store.txns = []core.Transaction{
		txn(d, "Ravi Traders", core.TypeSale, core.ModeCredit, 10000),
		txn(d, "Ravi Traders", core.TypeReceipt, core.ModeCash, 6000),
		txn(d, "Supplies Co", core.TypePurchase, core.ModeBank, 12000),
	}

	svc := newReportService(store)
	tb, err := svc.TrialBalance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tb.TotalDebit != 22000 {
		t.Fatalf("total debit = %d, want 22000", tb.TotalDebit)
	}
	if tb.TotalCredit != 6000 {
		t.Fatalf("total credit = %d, want 6000", tb.TotalCredit)
	}
}
