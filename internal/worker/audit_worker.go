// Package worker persists queued audit events to the audit log.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finlogs/internal/amqp"
)

// AuditStore is the persistence surface the worker writes audit rows
// through.
type AuditStore interface {
	AppendAuditLog(ctx context.Context, action string, txnID int64, user, details string) error
}

// AuditWorker consumes transaction events from the queue and appends
// them to the audit log. Events carry their full detail string, so the
// worker never reads the transaction back; the row may already have
// been edited or deleted by the time the event arrives.
type AuditWorker struct {
	store AuditStore
}

func NewAuditWorker(store AuditStore) *AuditWorker {
	return &AuditWorker{store: store}
}

// HandleEvent persists one audit event.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	if event.Action == "" {
		return fmt.Errorf("audit event with empty action")
	}

	if err := w.store.AppendAuditLog(ctx, event.Action, event.TxnID, event.User, event.Details); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}

	slog.InfoContext(ctx, "Audit event persisted",
		"action", event.Action,
		"txn_id", event.TxnID,
		"user", event.User)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeTransactionEvents(ctx, func(event *amqp.TransactionEvent) error {
		return w.HandleEvent(ctx, event)
	})
}
