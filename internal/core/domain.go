package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeSale       = "Sale"
	TypeSaleReturn = "Sale Return"
	TypePurchase   = "Purchase"
	TypeReceipt    = "Receipt"
	TypeExpense    = "Expense"

	ModeCash   = "Cash"
	ModeBank   = "Bank"
	ModeCredit = "Credit"
)

const (
	PartyCustomer       PartyType = "Customer"
	PartyCreditCustomer PartyType = "Credit Customer"
	PartySupplier       PartyType = "Supplier"
	PartyExpenseAccount PartyType = "Expense Account"
	PartyBank           PartyType = "Bank"
)

type (
	PartyType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one dated monetary entry against a party. Immutable
	// once stored; changes go through the admin edit/delete operations.
	Transaction struct {
		ID     int64
		Date   Date
		BillNo string
		Party  string
		Type   string
		Mode   string
		Amount Money
	}

	Party struct {
		ID            int64
		Name          string
		Type          PartyType
		CreditAllowed bool
	}

	// TransactionPage is one page of the transaction log as reported by
	// the store. TotalPages may change between pages while scanning.
	TransactionPage struct {
		Items      []Transaction
		Page       int
		Limit      int
		Total      int
		TotalPages int
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyParty        = errors.New("empty party name")
	ErrEmptyType         = errors.New("empty transaction type")
	ErrEmptyMode         = errors.New("empty payment mode")
	ErrNotCreditCustomer = errors.New("credit mode requires a credit customer party")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateParty    = errors.New("party name already exists")
	ErrBankPartyExists   = errors.New("only one bank account is allowed")
)

// Bank-channel modes grouped under the bank account in reports,
// covering historical data-entry variants.
var bankModes = map[string]bool{
	"bank":       true,
	"upi":        true,
	"gpay":       true,
	"google pay": true,
	"googlepay":  true,
}

// IsBankMode reports whether mode settles through the bank account.
func IsBankMode(mode string) bool {
	return bankModes[strings.ToLower(strings.TrimSpace(mode))]
}

// IsCashMode reports whether mode is physical cash.
func IsCashMode(mode string) bool {
	return strings.EqualFold(strings.TrimSpace(mode), ModeCash)
}

// NewDate creates a calendar date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the year-month grouping key (the first 7 characters
// of the ISO date string).
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NormalizeName maps a party name to its unique lookup key.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(t.Mode) == "" {
		return ErrEmptyMode
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	// Credit entries must name a party; the credit-customer check needs
	// the party registry and lives in the transaction service.
	if strings.EqualFold(strings.TrimSpace(t.Mode), ModeCredit) && strings.TrimSpace(t.Party) == "" {
		return ErrEmptyParty
	}
	return nil
}

func (p Party) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyParty
	}
	switch p.Type {
	case PartyCustomer, PartyCreditCustomer, PartySupplier, PartyExpenseAccount, PartyBank:
		return nil
	default:
		return errors.New("invalid party type")
	}
}
