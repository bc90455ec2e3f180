package services

import (
	"context"
	"strings"

	"finlogs/internal/amqp"
	"finlogs/internal/core"
	"finlogs/internal/storage"
)

// fakeStore is an in-memory TransactionStore and ReportStore.
type fakeStore struct {
	txns    []core.Transaction
	parties []core.Party
	counts  map[string]int64
	seed    int64
	audits  []storage.AuditEntry
	nextID  int64

	betweenCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: map[string]int64{}, nextID: 1}
}

func (f *fakeStore) CreateTransaction(_ context.Context, txn core.Transaction) (int64, error) {
	txn.ID = f.nextID
	f.nextID++
	f.txns = append(f.txns, txn)
	return txn.ID, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	for _, t := range f.txns {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (f *fakeStore) UpdateTransactionField(_ context.Context, id int64, field string, value any) error {
	for i, t := range f.txns {
		if t.ID != id {
			continue
		}
		switch field {
		case "amount":
			f.txns[i].Amount.Cents = value.(int64)
		case "txn_type":
			f.txns[i].Type = value.(string)
		case "payment_mode":
			f.txns[i].Mode = value.(string)
		case "bill_no":
			f.txns[i].BillNo = value.(string)
		case "txn_date":
			d, err := core.ParseDate(value.(string))
			if err != nil {
				return err
			}
			f.txns[i].Date = d
		}
		return nil
	}
	return core.ErrNotFound
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id int64) error {
	for i, t := range f.txns {
		if t.ID == id {
			f.txns = append(f.txns[:i], f.txns[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeStore) CreateParty(_ context.Context, p core.Party) (int64, error) {
	for _, existing := range f.parties {
		if core.NormalizeName(existing.Name) == core.NormalizeName(p.Name) {
			return 0, core.ErrDuplicateParty
		}
	}
	p.ID = f.nextID
	f.nextID++
	f.parties = append(f.parties, p)
	return p.ID, nil
}

func (f *fakeStore) GetParty(_ context.Context, name string) (core.Party, error) {
	for _, p := range f.parties {
		if core.NormalizeName(p.Name) == core.NormalizeName(name) {
			return p, nil
		}
	}
	return core.Party{}, core.ErrNotFound
}

func (f *fakeStore) ListParties(_ context.Context) ([]core.Party, error) {
	return f.parties, nil
}

func (f *fakeStore) RenameParty(_ context.Context, oldName, newName string) error {
	for i, p := range f.parties {
		if core.NormalizeName(p.Name) == core.NormalizeName(oldName) {
			f.parties[i].Name = newName
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeStore) SaveCashInHand(_ context.Context, date core.Date, cents int64) error {
	f.counts[date.String()] = cents
	return nil
}

func (f *fakeStore) SetOpeningCashSeed(_ context.Context, cents int64) error {
	f.seed = cents
	return nil
}

func (f *fakeStore) AppendAuditLog(_ context.Context, action string, txnID int64, user, details string) error {
	f.audits = append(f.audits, storage.AuditEntry{Action: action, TxnID: txnID, User: user, Details: details})
	return nil
}

func (f *fakeStore) ListAuditLogs(_ context.Context, limit int) ([]storage.AuditEntry, error) {
	if len(f.audits) > limit {
		return f.audits[len(f.audits)-limit:], nil
	}
	return f.audits, nil
}

func (f *fakeStore) TransactionsBetween(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	f.betweenCalls++
	var out []core.Transaction
	for _, t := range f.txns {
		if t.Date.Before(from.Time) || t.Date.After(to.Time) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) TransactionsByParty(_ context.Context, partyName string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txns {
		if core.NormalizeName(t.Party) == core.NormalizeName(partyName) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) TransactionsByMode(_ context.Context, mode string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txns {
		if strings.EqualFold(t.Mode, mode) || (core.IsBankMode(mode) && core.IsBankMode(t.Mode)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) TransactionsByType(_ context.Context, txnType string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txns {
		if strings.EqualFold(strings.TrimSpace(t.Type), strings.TrimSpace(txnType)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ActiveDatesBetween(_ context.Context, from, to core.Date) ([]core.Date, error) {
	seen := map[string]core.Date{}
	for _, t := range f.txns {
		if !t.Date.Before(from.Time) && !t.Date.After(to.Time) {
			seen[t.Date.String()] = t.Date
		}
	}
	for k := range f.counts {
		d, err := core.ParseDate(k)
		if err != nil {
			return nil, err
		}
		if !d.Before(from.Time) && !d.After(to.Time) {
			seen[k] = d
		}
	}
	var keys []string
	for k := range seen {
		keys = append(keys, k)
	}
	// Lexical order is date order for ISO dates.
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	var out []core.Date
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out, nil
}

func (f *fakeStore) CashInHandBetween(_ context.Context, from, to core.Date) (map[string]int64, error) {
	out := map[string]int64{}
	for k, v := range f.counts {
		if k >= from.String() && k <= to.String() {
			out[k] = v
		}
	}
	return out, nil
}

func (f *fakeStore) LatestCashInHandBefore(_ context.Context, date core.Date) (*int64, error) {
	var (
		bestKey string
		best    int64
		found   bool
	)
	for k, v := range f.counts {
		if k < date.String() && k > bestKey {
			bestKey, best, found = k, v, true
		}
	}
	if !found {
		return nil, nil
	}
	return &best, nil
}

func (f *fakeStore) CashTotalsBefore(_ context.Context, date core.Date) (int64, int64, error) {
	var cashIn, cashExpense int64
	for _, t := range f.txns {
		if !t.Date.Before(date.Time) || !core.IsCashMode(t.Mode) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(t.Type)) {
		case "receipt", "reciept":
			cashIn += t.Amount.Cents
		case "expense":
			cashExpense += t.Amount.Cents
		}
	}
	return cashIn, cashExpense, nil
}

func (f *fakeStore) OpeningCashSeed(_ context.Context) (int64, error) {
	return f.seed, nil
}

func (f *fakeStore) SumAmountByType(_ context.Context, txnType string, from, to core.Date) (int64, error) {
	var total int64
	for _, t := range f.txns {
		if !strings.EqualFold(strings.TrimSpace(t.Type), strings.TrimSpace(txnType)) {
			continue
		}
		if t.Date.Before(from.Time) || t.Date.After(to.Time) {
			continue
		}
		total += t.Amount.Cents
	}
	return total, nil
}

func (f *fakeStore) TrialBalanceRows(_ context.Context) ([]storage.PartyTotal, error) {
	totals := map[string]*storage.PartyTotal{}
	var order []string
	for _, t := range f.txns {
		if t.Party == "" {
			continue
		}
		pt, ok := totals[t.Party]
		if !ok {
			pt = &storage.PartyTotal{Party: t.Party}
			totals[t.Party] = pt
			order = append(order, t.Party)
		}
		if core.Classify(t.Type) == core.Credit {
			pt.Credit += t.Amount.Cents
		} else {
			pt.Debit += t.Amount.Cents
		}
	}
	var out []storage.PartyTotal
	for _, name := range order {
		out = append(out, *totals[name])
	}
	return out, nil
}

func (f *fakeStore) OutstandingBalances(_ context.Context) ([]storage.Outstanding, error) {
	rows, err := f.TrialBalanceRows(context.Background())
	if err != nil {
		return nil, err
	}
	var out []storage.Outstanding
	for _, r := range rows {
		p, err := f.GetParty(context.Background(), r.Party)
		if err != nil || p.Type != core.PartyCreditCustomer {
			continue
		}
		if bal := r.Debit - r.Credit; bal > 0 {
			out = append(out, storage.Outstanding{Party: r.Party, Balance: bal})
		}
	}
	return out, nil
}

func (f *fakeStore) Dashboard(_ context.Context, from, to core.Date) (storage.DashboardTotals, error) {
	var d storage.DashboardTotals
	for _, t := range f.txns {
		if t.Date.Before(from.Time) || t.Date.After(to.Time) {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(t.Type))
		switch lower {
		case "sale":
			d.TotalSales += t.Amount.Cents
		case "receipt", "reciept":
			d.TotalReceipts += t.Amount.Cents
		case "expense":
			d.TotalExpenses += t.Amount.Cents
		case "purchase":
			d.TotalPurchases += t.Amount.Cents
		}
	}
	return d, nil
}

// fakePublisher records published events and can be made to fail.
type fakePublisher struct {
	events []*amqp.TransactionEvent
	err    error
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, event *amqp.TransactionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// fakeCache counts purges.
type fakeCache struct{ purges int }

func (c *fakeCache) Purge() { c.purges++ }
