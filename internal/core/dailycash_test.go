package core

import "testing"

func cashTxn(date Date, typ, mode string, cents int64) Transaction {
	return Transaction{Date: date, Type: typ, Mode: mode, Party: "Walk-in", Amount: Money{Cents: cents}}
}

func TestReconcileDaysShortfall(t *testing.T) {
	d := NewDate(2025, 4, 10)
	days := []DayBook{{
		Date: d,
		Transactions: []Transaction{
			cashTxn(d, "Receipt", "Cash", 50000),
			cashTxn(d, "Expense", "Cash", 20000),
		},
	}}
	counted := map[string]int64{d.String(): 125000}

	records := ReconcileDays(days, counted, nil, 100000)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.CashNeeded != 130000 {
		t.Fatalf("cash needed = %d, want 130000", rec.CashNeeded)
	}
	if rec.CashShortExcess == nil || *rec.CashShortExcess != -5000 {
		t.Fatalf("short/excess = %v, want -5000", rec.CashShortExcess)
	}
	if rec.ClosingCash != 125000 {
		t.Fatalf("closing = %d, want counted figure 125000", rec.ClosingCash)
	}
}

func TestReconcileDaysNoCountLeavesShortExcessAbsent(t *testing.T) {
	d := NewDate(2025, 4, 10)
	days := []DayBook{{Date: d, Transactions: []Transaction{cashTxn(d, "Receipt", "Cash", 100)}}}

	rec := ReconcileDays(days, nil, nil, 0)[0]
	if rec.CashInHand != nil {
		t.Fatal("cash in hand should be absent")
	}
	if rec.CashShortExcess != nil {
		t.Fatal("short/excess must stay absent until a count exists")
	}
	if rec.ClosingCash != rec.CashNeeded {
		t.Fatalf("closing = %d, want cash needed %d", rec.ClosingCash, rec.CashNeeded)
	}
}

func TestReconcileDaysChainsClosingToNextOpening(t *testing.T) {
	d1 := NewDate(2025, 4, 10)
	d2 := NewDate(2025, 4, 11)
	d3 := NewDate(2025, 4, 12)
	days := []DayBook{
		{Date: d1, Transactions: []Transaction{cashTxn(d1, "Receipt", "Cash", 1000)}},
		{Date: d2}, // no activity, carries forward
		{Date: d3, Transactions: []Transaction{cashTxn(d3, "Expense", "Cash", 300)}},
	}
	counted := map[string]int64{d1.String(): 900} // counted short on day one

	records := ReconcileDays(days, counted, nil, 0)
	if records[0].ClosingCash != 900 {
		t.Fatalf("day1 closing = %d, want 900", records[0].ClosingCash)
	}
	if records[1].OpeningCash != 900 {
		t.Fatalf("day2 opening = %d, want day1 closing 900", records[1].OpeningCash)
	}
	if records[1].CashNeeded != 900 {
		t.Fatalf("empty day cash needed = %d, want opening 900", records[1].CashNeeded)
	}
	if records[2].OpeningCash != 900 || records[2].CashNeeded != 600 {
		t.Fatalf("day3 opening/needed = %d/%d, want 900/600", records[2].OpeningCash, records[2].CashNeeded)
	}
}

func TestReconcileDaysCashInCountsReceiptsOnly(t *testing.T) {
	d := NewDate(2025, 4, 10)
	days := []DayBook{{
		Date: d,
		Transactions: []Transaction{
			cashTxn(d, "Receipt", "Cash", 500),
			cashTxn(d, "Reciept", "Cash", 250), // legacy spelling still counts
			cashTxn(d, "Receipt", "Bank", 9999),
			cashTxn(d, "Sale", "Cash", 7777),
			cashTxn(d, "Expense", "Bank", 8888),
		},
	}}

	rec := ReconcileDays(days, nil, nil, 0)[0]
	if rec.CashIn != 750 {
		t.Fatalf("cash in = %d, want 750", rec.CashIn)
	}
	if rec.CashExpense != 0 {
		t.Fatalf("cash expense = %d, want 0", rec.CashExpense)
	}
	if rec.BankIn != 9999 {
		t.Fatalf("bank in = %d, want 9999", rec.BankIn)
	}
}

func TestReconcileDaysCreditSaleColumn(t *testing.T) {
	d := NewDate(2025, 4, 10)
	creditParties := map[string]bool{"ravi_traders": true}
	days := []DayBook{{
		Date: d,
		Transactions: []Transaction{
			{Date: d, Type: "Sale", Mode: "Credit", Party: "Ravi Traders", Amount: Money{Cents: 5000}},
			{Date: d, Type: "Receipt", Mode: "Cash", Party: "Ravi Traders", Amount: Money{Cents: 2000}},
			{Date: d, Type: "Sale", Mode: "Cash", Party: "Walk-in", Amount: Money{Cents: 1000}},
		},
	}}

	rec := ReconcileDays(days, nil, creditParties, 0)[0]
	if rec.CreditSale != 3000 {
		t.Fatalf("credit sale = %d, want 3000", rec.CreditSale)
	}
	if rec.TotalSales != 6000 {
		t.Fatalf("total sales = %d, want 6000", rec.TotalSales)
	}
}

func TestOpeningCashForWindow(t *testing.T) {
	counted := int64(4200)
	if got := OpeningCashForWindow(&counted, 100, 999, 999); got != 4200 {
		t.Fatalf("counted figure should win, got %d", got)
	}
	if got := OpeningCashForWindow(nil, 1000, 500, 200); got != 1300 {
		t.Fatalf("seeded opening = %d, want 1300", got)
	}
}
