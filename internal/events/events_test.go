package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finwallet/internal/core"
)

func TestNewEntryAdded(t *testing.T) {
	ev := NewEntryAdded("alice", core.Entry{
		Amount:    decimal.RequireFromString("12.5"),
		Category:  "food",
		Direction: core.Expense,
	})
	if ev.Kind != KindEntryAdded || ev.UserID != "alice" || ev.Category != "food" || ev.Direction != core.Expense {
		t.Fatalf("unexpected event %+v", ev)
	}
	if _, err := uuid.Parse(ev.ID); err != nil {
		t.Fatalf("event id %q is not a uuid: %v", ev.ID, err)
	}
	if time.Since(ev.Timestamp) > time.Second {
		t.Fatalf("timestamp should be recent")
	}
	if NewEntryAdded("alice", core.Entry{}).ID == ev.ID {
		t.Fatalf("event ids must be unique")
	}
}

func TestNewTransfer(t *testing.T) {
	ev := NewTransfer("alice", "bob", decimal.NewFromInt(5))
	if ev.Kind != KindTransfer || ev.Counterparty != "bob" || ev.Category != core.TransferCategory {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestLedgerEventJSON(t *testing.T) {
	ev := NewBudgetAdded("alice", core.Budget{Category: "food", Limit: decimal.RequireFromString("0.1")})
	ev.Timestamp = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}
	if parsed.ID != ev.ID || parsed.Kind != ev.Kind || parsed.Category != "food" {
		t.Fatalf("parsed %+v, want %+v", parsed, ev)
	}
	if !parsed.Amount.Equal(ev.Amount) {
		t.Fatalf("amount lost precision: %s", parsed.Amount)
	}
	if !parsed.Timestamp.Equal(ev.Timestamp) {
		t.Fatalf("timestamp mismatch: %v", parsed.Timestamp)
	}
}

func TestLedgerEventInvalidJSON(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte(`{"amount": {}}`)); err == nil {
		t.Fatalf("expected error for invalid amount")
	}
}
