package core

import "strings"

// Side is the ledger effect of a transaction on a party's balance.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// Classify maps a transaction type to its ledger side. Matching is
// case-insensitive and ignores surrounding whitespace.
//
// Unknown types classify as Debit, never as an error: an unrecognized
// type overstates the party's obligation instead of silently dropping
// the amount, and historical report totals depend on this fallback.
// "Reciept" is a misspelling present in old data and stays accepted.
func Classify(txnType string) Side {
	switch strings.ToLower(strings.TrimSpace(txnType)) {
	case "receipt", "reciept", "sale return":
		return Credit
	case "sale", "expense", "purchase":
		return Debit
	default:
		return Debit
	}
}

// isReceipt matches the Receipt type including the legacy misspelling.
func isReceipt(txnType string) bool {
	switch strings.ToLower(strings.TrimSpace(txnType)) {
	case "receipt", "reciept":
		return true
	}
	return false
}

func isType(txnType, want string) bool {
	return strings.EqualFold(strings.TrimSpace(txnType), want)
}
