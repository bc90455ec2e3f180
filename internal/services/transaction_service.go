// Package services provides business logic and orchestration over
// storage, the audit queue and the report cache.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finlogs/internal/amqp"
	"finlogs/internal/core"
	"finlogs/internal/storage"
)

// TransactionStore is the persistence surface the transaction service
// writes through.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	UpdateTransactionField(ctx context.Context, id int64, field string, value any) error
	DeleteTransaction(ctx context.Context, id int64) error

	CreateParty(ctx context.Context, p core.Party) (int64, error)
	GetParty(ctx context.Context, name string) (core.Party, error)
	ListParties(ctx context.Context) ([]core.Party, error)
	RenameParty(ctx context.Context, oldName, newName string) error

	SaveCashInHand(ctx context.Context, date core.Date, cents int64) error
	SetOpeningCashSeed(ctx context.Context, cents int64) error

	AppendAuditLog(ctx context.Context, action string, txnID int64, user, details string) error
	ListAuditLogs(ctx context.Context, limit int) ([]storage.AuditEntry, error)
}

// EventPublisher publishes audit events to the queue.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// CacheInvalidator drops cached reports after a write.
type CacheInvalidator interface {
	Purge()
}

// TransactionService orchestrates writes to the books: validation,
// persistence, audit publishing and report-cache invalidation.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	cache     CacheInvalidator
}

func NewTransactionService(store TransactionStore, publisher EventPublisher, cache CacheInvalidator) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		cache:     cache,
	}
}

// Create validates and stores a transaction. A credit entry requires a
// registered credit customer. A named party unknown to the registry is
// created on the fly as a plain customer, matching how entries were
// keyed in historical data.
func (s *TransactionService) Create(ctx context.Context, txn core.Transaction, user string) (int64, error) {
	if err := txn.Validate(); err != nil {
		return 0, err
	}

	party := strings.TrimSpace(txn.Party)
	if party != "" {
		p, err := s.store.GetParty(ctx, party)
		switch {
		case err == nil:
			if strings.EqualFold(strings.TrimSpace(txn.Mode), core.ModeCredit) &&
				p.Type != core.PartyCreditCustomer && !p.CreditAllowed {
				return 0, core.ErrNotCreditCustomer
			}
		case err == core.ErrNotFound:
			if strings.EqualFold(strings.TrimSpace(txn.Mode), core.ModeCredit) {
				return 0, core.ErrNotCreditCustomer
			}
			if _, err := s.store.CreateParty(ctx, core.Party{Name: party, Type: core.PartyCustomer}); err != nil {
				return 0, fmt.Errorf("register party %q: %w", party, err)
			}
			slog.InfoContext(ctx, "Party auto-registered", "name", party)
		default:
			return 0, fmt.Errorf("look up party %q: %w", party, err)
		}
	}

	id, err := s.store.CreateTransaction(ctx, txn)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.audit(ctx, amqp.ActionCreate, id, user, fmt.Sprintf(
		"created %s %s %s %s for %s", txn.Type, txn.Mode, core.FormatCents(txn.Amount.Cents), txn.Date.String(), txn.Party))
	s.invalidate()
	return id, nil
}

// EditField changes one editable field of a stored transaction. The
// raw value is validated and converted per field; anything outside the
// whitelist is rejected before touching storage.
func (s *TransactionService) EditField(ctx context.Context, id int64, field, rawValue, user string) error {
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	var value any
	switch field {
	case "txn_date":
		d, err := core.ParseDate(rawValue)
		if err != nil {
			return err
		}
		value = d.String()
	case "amount":
		cents, err := core.ParseDecimalToCents(rawValue)
		if err != nil {
			return err
		}
		value = cents
	case "txn_type":
		if strings.TrimSpace(rawValue) == "" {
			return core.ErrEmptyType
		}
		value = strings.TrimSpace(rawValue)
	case "payment_mode":
		if strings.TrimSpace(rawValue) == "" {
			return core.ErrEmptyMode
		}
		value = strings.TrimSpace(rawValue)
	case "bill_no":
		value = strings.TrimSpace(rawValue)
	default:
		return fmt.Errorf("field %q is not editable", field)
	}

	if err := s.store.UpdateTransactionField(ctx, id, field, value); err != nil {
		return err
	}

	s.audit(ctx, amqp.ActionEdit, id, user, fmt.Sprintf(
		"edited %s of txn %d (%s %s) to %q", field, id, old.Type, old.Date.String(), rawValue))
	s.invalidate()
	return nil
}

// Delete removes a transaction, keeping its description in the audit
// trail.
func (s *TransactionService) Delete(ctx context.Context, id int64, user string) error {
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, amqp.ActionDelete, id, user, fmt.Sprintf(
		"deleted %s %s %s %s from %s", old.Type, old.Mode, core.FormatCents(old.Amount.Cents), old.Date.String(), old.Party))
	s.invalidate()
	return nil
}

// SaveCashInHand records the counted drawer figure for a day.
func (s *TransactionService) SaveCashInHand(ctx context.Context, date core.Date, cents int64, user string) error {
	if err := date.Validate(); err != nil {
		return err
	}
	if cents < 0 {
		return core.ErrInvalidAmount
	}
	if err := s.store.SaveCashInHand(ctx, date, cents); err != nil {
		return err
	}

	s.audit(ctx, amqp.ActionCashCount, 0, user, fmt.Sprintf(
		"counted cash in hand %s on %s", core.FormatCents(cents), date.String()))
	s.invalidate()
	return nil
}

// SetOpeningCash stores the opening balance seed for the very first
// day of the books.
func (s *TransactionService) SetOpeningCash(ctx context.Context, cents int64, user string) error {
	if cents < 0 {
		return core.ErrInvalidAmount
	}
	if err := s.store.SetOpeningCashSeed(ctx, cents); err != nil {
		return err
	}

	s.audit(ctx, amqp.ActionSetOpening, 0, user, fmt.Sprintf(
		"set opening cash to %s", core.FormatCents(cents)))
	s.invalidate()
	return nil
}

// RegisterParty adds a party to the registry.
func (s *TransactionService) RegisterParty(ctx context.Context, p core.Party) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreateParty(ctx, p)
}

// RenameParty changes a party's display name; its ledger follows.
func (s *TransactionService) RenameParty(ctx context.Context, oldName, newName, user string) error {
	if strings.TrimSpace(newName) == "" {
		return core.ErrEmptyParty
	}
	if err := s.store.RenameParty(ctx, oldName, newName); err != nil {
		return err
	}

	s.audit(ctx, amqp.ActionEdit, 0, user, fmt.Sprintf(
		"renamed party %q to %q", oldName, newName))
	s.invalidate()
	return nil
}

// Parties lists the registry.
func (s *TransactionService) Parties(ctx context.Context) ([]core.Party, error) {
	return s.store.ListParties(ctx)
}

// AuditTrail returns the most recent audit entries.
func (s *TransactionService) AuditTrail(ctx context.Context, limit int) ([]storage.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.ListAuditLogs(ctx, limit)
}

// audit records the action, preferring the queue and falling back to a
// direct write when the broker is unavailable. Audit failures never
// fail the originating request.
func (s *TransactionService) audit(ctx context.Context, action string, txnID int64, user, details string) {
	if s.publisher != nil {
		event := amqp.NewTransactionEvent(action, txnID, user, details)
		err := s.publisher.PublishTransactionEvent(ctx, event)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "Audit publish failed, writing audit log directly",
			"action", action, "txn_id", txnID, "error", err)
	}
	if err := s.store.AppendAuditLog(ctx, action, txnID, user, details); err != nil {
		slog.ErrorContext(ctx, "Failed to append audit log",
			"action", action, "txn_id", txnID, "error", err)
	}
}

func (s *TransactionService) invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
