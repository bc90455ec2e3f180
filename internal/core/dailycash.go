package core

// DayBook is the set of all transactions dated on one calendar day.
type DayBook struct {
	Date         Date
	Transactions []Transaction
}

// DailyCashRecord is the reconciliation of one business day. All
// amounts are cents. CashInHand is the manually counted figure and is
// nil until an admin saves one. CashShortExcess stays nil with it;
// the difference is undefined until a count exists.
type DailyCashRecord struct {
	Date            Date
	OpeningCash     int64
	CashIn          int64
	CashExpense     int64
	CashNeeded      int64
	ClosingCash     int64
	CashInHand      *int64
	CashShortExcess *int64

	// Supplementary columns carried on the daily summary report.
	BankIn     int64
	CreditSale int64
	TotalSales int64
}

// ReconcileDays chains daily cash records day over day. days must be
// ordered by date ascending; cashInHand is keyed by ISO date string;
// creditParties holds normalized names of registered credit customers
// (used only for the credit-sale column); openingCash seeds the first
// day.
//
// Per day: cash_in sums Cash-mode receipts, cash_expense sums
// Cash-mode expenses, cash_needed = opening + cash_in - cash_expense.
// When a counted cash-in-hand exists, short/excess = counted - needed
// (negative is a shortfall) and the counted figure becomes the closing
// cash; otherwise the closing mirrors cash_needed. Day N's closing is
// day N+1's opening. A day with no transactions still carries the
// chain forward: cash_needed equals its opening cash.
func ReconcileDays(days []DayBook, cashInHand map[string]int64, creditParties map[string]bool, openingCash int64) []DailyCashRecord {
	records := make([]DailyCashRecord, 0, len(days))
	opening := openingCash

	for _, day := range days {
		rec := DailyCashRecord{
			Date:        day.Date,
			OpeningCash: opening,
		}

		for _, t := range day.Transactions {
			amt := t.Amount.Cents
			switch {
			case IsCashMode(t.Mode) && isReceipt(t.Type):
				rec.CashIn += amt
			case IsCashMode(t.Mode) && isType(t.Type, TypeExpense):
				rec.CashExpense += amt
			}
			if IsBankMode(t.Mode) && (isType(t.Type, TypeSale) || isReceipt(t.Type)) {
				rec.BankIn += amt
			}
			if isType(t.Type, TypeSale) {
				rec.TotalSales += amt
				if isType(t.Mode, ModeCredit) || creditParties[NormalizeName(t.Party)] {
					rec.CreditSale += amt
				}
			}
			if isReceipt(t.Type) && creditParties[NormalizeName(t.Party)] {
				rec.CreditSale -= amt
			}
		}

		rec.CashNeeded = rec.OpeningCash + rec.CashIn - rec.CashExpense
		rec.ClosingCash = rec.CashNeeded

		if counted, ok := cashInHand[day.Date.String()]; ok {
			c := counted
			diff := c - rec.CashNeeded
			rec.CashInHand = &c
			rec.CashShortExcess = &diff
			rec.ClosingCash = c
		}

		opening = rec.ClosingCash
		records = append(records, rec)
	}

	return records
}

// OpeningCashForWindow derives the opening cash for a report window
// that starts mid-history: the most recent counted cash-in-hand before
// the window wins; failing that, the configured seed plus the net cash
// movement recorded before the window.
func OpeningCashForWindow(latestCounted *int64, seed, cashInBefore, cashExpenseBefore int64) int64 {
	if latestCounted != nil {
		return *latestCounted
	}
	return seed + cashInBefore - cashExpenseBefore
}
