package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"finwallet/internal/core"
)

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	s := New()
	ctx := context.Background()

	empty, err := s.Load(ctx, "alice")
	if err != nil || len(empty.Entries) != 0 || len(empty.Budgets) != 0 {
		t.Fatalf("unexpected load: %v err=%v", empty, err)
	}

	snap := core.Snapshot{
		Entries: []core.Entry{{Amount: decimal.NewFromInt(5), Category: "food", Direction: core.Expense}},
	}
	if err := s.Save(ctx, "alice", snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Entries[0].Category = "mutated"

	got, _ := s.Load(ctx, "alice")
	if len(got.Entries) != 1 || got.Entries[0].Category != "food" {
		t.Fatalf("stored snapshot must be isolated from caller, got %v", got)
	}
	got.Entries[0].Category = "mutated"
	again, _ := s.Load(ctx, "alice")
	if again.Entries[0].Category != "food" {
		t.Fatalf("loaded snapshot must be isolated from store")
	}
}
