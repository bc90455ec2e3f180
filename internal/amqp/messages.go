package amqp

import (
	"encoding/json"
	"time"
)

// Audit actions carried on transaction events.
const (
	ActionCreate     = "create"
	ActionEdit       = "edit"
	ActionDelete     = "delete"
	ActionCashCount  = "cash_count"
	ActionSetOpening = "set_opening_cash"
)

// TransactionEvent is the audit message published after every write to
// the books. The worker persists it to the audit log; consumers get the
// full detail string so they never have to re-read the row, which may
// already be edited or gone.
type TransactionEvent struct {
	Action    string    `json:"action"`
	TxnID     int64     `json:"txn_id"`
	User      string    `json:"user,omitempty"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(action string, txnID int64, user, details string) *TransactionEvent {
	return &TransactionEvent{
		Action:    action,
		TxnID:     txnID,
		User:      user,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
