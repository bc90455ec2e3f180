package core

// LedgerEntry is one transaction's contribution to a party's running
// balance. Balance is the cumulative value after applying this entry,
// in cents: positive means the party owes the business (Dr), negative
// means the business owes the party (Cr).
type LedgerEntry struct {
	Transaction
	Side    Side
	Balance int64
}

// BalanceLabel renders the running balance with its Dr/Cr display
// label, e.g. "120.00 Dr" or "40.00 Cr".
func (e LedgerEntry) BalanceLabel() string {
	return FormatBalance(e.Balance)
}

// FormatBalance applies the display convention: non-negative balances
// are "Dr", negative ones flip sign and read "Cr".
func FormatBalance(cents int64) string {
	if cents >= 0 {
		return FormatCents(cents) + " Dr"
	}
	return FormatCents(-cents) + " Cr"
}

// RunningBalance folds one party's transactions into ledger entries
// with a left-to-right running balance seeded at zero. Debit entries
// add, Credit entries subtract. The input must already be ordered by
// date ascending with store id breaking ties; the fold itself is pure
// and re-running it on the same input yields the same output.
func RunningBalance(txns []Transaction) []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(txns))
	var balance int64
	for _, t := range txns {
		side := Classify(t.Type)
		if side == Debit {
			balance += t.Amount.Cents
		} else {
			balance -= t.Amount.Cents
		}
		entries = append(entries, LedgerEntry{Transaction: t, Side: side, Balance: balance})
	}
	return entries
}
