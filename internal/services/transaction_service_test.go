package services

import (
	"context"
	"errors"
	"testing"

	"finlogs/internal/amqp"
	"finlogs/internal/core"
)

func cashSale(cents int64) core.Transaction {
	return core.Transaction{
		Date:   core.NewDate(2025, 4, 10),
		Party:  "ACME",
		Type:   core.TypeSale,
		Mode:   core.ModeCash,
		Amount: core.Money{Cents: cents},
	}
}

func TestCreateStoresAndAudits(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	c := &fakeCache{}
	svc := NewTransactionService(store, pub, c)

	id, err := svc.Create(context.Background(), cashSale(10000), "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a transaction id")
	}
	if len(store.txns) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(store.txns))
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionCreate {
		t.Fatalf("expected one create event, got %+v", pub.events)
	}
	if c.purges != 1 {
		t.Fatalf("cache purged %d times, want 1", c.purges)
	}
}

func TestCreateAutoRegistersUnknownParty(t *testing.T) {
	store := newFakeStore()
	svc := NewTransactionService(store, nil, nil)

	if _, err := svc.Create(context.Background(), cashSale(5000), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := store.GetParty(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("party not registered: %v", err)
	}
	if p.Type != core.PartyCustomer {
		t.Fatalf("auto-registered type = %q, want Customer", p.Type)
	}
}

func TestCreateCreditRequiresCreditCustomer(t *testing.T) {
	store := newFakeStore()
	store.parties = append(store.parties, core.Party{ID: 1, Name: "ACME", Type: core.PartyCustomer})
	svc := NewTransactionService(store, nil, nil)

	txn := cashSale(5000)
	txn.Mode = core.ModeCredit

	if _, err := svc.Create(context.Background(), txn, ""); !errors.Is(err, core.ErrNotCreditCustomer) {
		t.Fatalf("plain customer on credit: expected ErrNotCreditCustomer, got %v", err)
	}

	// Unknown party cannot take credit either.
	txn.Party = "Nobody"
	if _, err := svc.Create(context.Background(), txn, ""); !errors.Is(err, core.ErrNotCreditCustomer) {
		t.Fatalf("unknown party on credit: expected ErrNotCreditCustomer, got %v", err)
	}

	// A registered credit customer passes.
	store.parties = append(store.parties, core.Party{ID: 2, Name: "Ravi Traders", Type: core.PartyCreditCustomer})
	txn.Party = "Ravi Traders"
	if _, err := svc.Create(context.Background(), txn, ""); err != nil {
		t.Fatalf("credit customer rejected: %v", err)
	}
}

func TestCreateRejectsInvalidTransaction(t *testing.T) {
	svc := NewTransactionService(newFakeStore(), nil, nil)

	bad := cashSale(100)
	bad.Type = ""
	if _, err := svc.Create(context.Background(), bad, ""); !errors.Is(err, core.ErrEmptyType) {
		t.Fatalf("expected ErrEmptyType, got %v", err)
	}
}

func TestEditFieldWhitelist(t *testing.T) {
	store := newFakeStore()
	svc := NewTransactionService(store, nil, nil)
	id, _ := svc.Create(context.Background(), cashSale(10000), "")

	if err := svc.EditField(context.Background(), id, "party_id", "2", ""); err == nil {
		t.Fatal("party_id must not be editable")
	}
	if err := svc.EditField(context.Background(), id, "amount", "75.50", ""); err != nil {
		t.Fatalf("amount edit failed: %v", err)
	}
	got, _ := store.GetTransaction(context.Background(), id)
	if got.Amount.Cents != 7550 {
		t.Fatalf("amount = %d cents, want 7550", got.Amount.Cents)
	}

	if err := svc.EditField(context.Background(), id, "txn_date", "not-a-date", ""); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if err := svc.EditField(context.Background(), id, "amount", "-5", ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestEditFieldMissingTransaction(t *testing.T) {
	svc := NewTransactionService(newFakeStore(), nil, nil)
	if err := svc.EditField(context.Background(), 99, "amount", "10.00", ""); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteKeepsDetailsInAudit(t *testing.T) {
	store := newFakeStore()
	svc := NewTransactionService(store, nil, nil)
	id, _ := svc.Create(context.Background(), cashSale(10000), "")

	if err := svc.Delete(context.Background(), id, "admin"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(store.txns) != 0 {
		t.Fatal("transaction not removed")
	}

	// With no publisher, audit rows are written directly.
	last := store.audits[len(store.audits)-1]
	if last.Action != amqp.ActionDelete || last.TxnID != id {
		t.Fatalf("audit row = %+v", last)
	}
	if last.Details == "" {
		t.Fatal("delete audit should describe the removed entry")
	}
}

func TestAuditFallsBackWhenPublisherFails(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub, nil)

	if _, err := svc.Create(context.Background(), cashSale(100), ""); err != nil {
		t.Fatalf("create should survive a dead broker: %v", err)
	}
	if len(store.audits) != 1 {
		t.Fatalf("expected direct audit fallback, got %d rows", len(store.audits))
	}
}

func TestSaveCashInHand(t *testing.T) {
	store := newFakeStore()
	c := &fakeCache{}
	svc := NewTransactionService(store, nil, c)
	date := core.NewDate(2025, 4, 10)

	if err := svc.SaveCashInHand(context.Background(), date, -1, ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative count: expected ErrInvalidAmount, got %v", err)
	}
	if err := svc.SaveCashInHand(context.Background(), date, 125000, "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.counts[date.String()] != 125000 {
		t.Fatalf("stored count = %d", store.counts[date.String()])
	}
	if c.purges != 1 {
		t.Fatal("cash count must invalidate cached reports")
	}
}

func TestRegisterPartyEnforcesValidation(t *testing.T) {
	svc := NewTransactionService(newFakeStore(), nil, nil)
	if _, err := svc.RegisterParty(context.Background(), core.Party{Name: "", Type: core.PartyCustomer}); err == nil {
		t.Fatal("empty name should fail")
	}
	if _, err := svc.RegisterParty(context.Background(), core.Party{Name: "ACME", Type: core.PartyCustomer}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRenameParty(t *testing.T) {
	store := newFakeStore()
	store.parties = append(store.parties, core.Party{ID: 1, Name: "ACME", Type: core.PartyCustomer})
	svc := NewTransactionService(store, nil, nil)

	if err := svc.RenameParty(context.Background(), "ACME", "ACME Traders", "admin"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if _, err := store.GetParty(context.Background(), "ACME Traders"); err != nil {
		t.Fatalf("renamed party not found: %v", err)
	}
}
