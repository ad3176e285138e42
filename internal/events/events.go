// Package events defines the ledger change notifications published after
// every successful wallet mutation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finwallet/internal/core"
)

type Kind string

const (
	KindEntryAdded  Kind = "entry_added"
	KindBudgetAdded Kind = "budget_added"
	KindTransfer    Kind = "transfer"
)

// LedgerEvent describes one change to one user's wallet.
// The validate tags are checked by consumers before an event is trusted.
type LedgerEvent struct {
	ID           string          `json:"id" validate:"required,uuid"`
	Kind         Kind            `json:"kind" validate:"required,oneof=entry_added budget_added transfer"`
	UserID       string          `json:"user_id" validate:"required"`
	Direction    core.Direction  `json:"direction,omitempty" validate:"required_if=Kind entry_added"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category" validate:"required"`
	Counterparty string          `json:"counterparty,omitempty" validate:"required_if=Kind transfer"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Publisher delivers ledger events to a transport.
type Publisher interface {
	Publish(ctx context.Context, event *LedgerEvent) error
	Close() error
}

func newEvent(kind Kind, userID string) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func NewEntryAdded(userID string, e core.Entry) *LedgerEvent {
	ev := newEvent(KindEntryAdded, userID)
	ev.Direction = e.Direction
	ev.Amount = e.Amount
	ev.Category = e.Category
	return ev
}

func NewBudgetAdded(userID string, b core.Budget) *LedgerEvent {
	ev := newEvent(KindBudgetAdded, userID)
	ev.Amount = b.Limit
	ev.Category = b.Category
	return ev
}

// NewTransfer is published once for the sender; the receiver's side is
// implied by Counterparty.
func NewTransfer(from, to string, amount decimal.Decimal) *LedgerEvent {
	ev := newEvent(KindTransfer, from)
	ev.Direction = core.Expense
	ev.Amount = amount
	ev.Category = core.TransferCategory
	ev.Counterparty = to
	return ev
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, *LedgerEvent) error { return nil }
func (Nop) Close() error                                { return nil }
