package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"finwallet/internal/cache"
	"finwallet/internal/core"
	"finwallet/internal/events"
	applog "finwallet/internal/log"
)

const (
	seenCapacity = 10000
	seenTTL      = 24 * time.Hour
)

// Totals is what the audit trail has observed for one user.
type Totals struct {
	Income       decimal.Decimal
	Expenses     decimal.Decimal
	TransfersIn  decimal.Decimal
	TransfersOut decimal.Decimal
	Budgets      int
	Events       int
}

// AuditWorker consumes ledger events, drops redeliveries and keeps running
// per-user totals.
type AuditWorker struct {
	seen   *cache.LRU
	logger *applog.Logger

	mu     sync.Mutex
	totals map[string]*Totals
}

func NewAuditWorker(logger *applog.Logger) *AuditWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AuditWorker{
		seen:   cache.NewLRU(seenCapacity, seenTTL),
		logger: logger.WithComponent(applog.ComponentEvents),
		totals: make(map[string]*Totals),
	}
}

// HandleLedgerEvent records one event. Malformed events are logged and
// acknowledged; returning an error would only requeue them forever.
func (w *AuditWorker) HandleLedgerEvent(ctx context.Context, ev *events.LedgerEvent) error {
	if err := validateEvent(ev); err != nil {
		w.logger.WarnContext(ctx, "Dropping malformed ledger event", "error", err)
		return nil
	}
	if !w.seen.Add(ev.ID) {
		w.logger.DebugContext(ctx, "Skipping redelivered ledger event", "id", ev.ID)
		return nil
	}

	w.mu.Lock()
	user := w.totalsFor(ev.UserID)
	user.Events++
	switch ev.Kind {
	case events.KindEntryAdded:
		if ev.Direction == core.Income {
			user.Income = user.Income.Add(ev.Amount)
		} else {
			user.Expenses = user.Expenses.Add(ev.Amount)
		}
	case events.KindBudgetAdded:
		user.Budgets++
	case events.KindTransfer:
		user.Expenses = user.Expenses.Add(ev.Amount)
		user.TransfersOut = user.TransfersOut.Add(ev.Amount)
		peer := w.totalsFor(ev.Counterparty)
		peer.Income = peer.Income.Add(ev.Amount)
		peer.TransfersIn = peer.TransfersIn.Add(ev.Amount)
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Ledger event",
		"id", ev.ID,
		"kind", ev.Kind,
		"user", ev.UserID,
		"direction", ev.Direction,
		"amount", ev.Amount.String(),
		"category", ev.Category,
		"counterparty", ev.Counterparty,
		"at", ev.Timestamp)
	return nil
}

// totalsFor must be called with w.mu held.
func (w *AuditWorker) totalsFor(userID string) *Totals {
	t, ok := w.totals[userID]
	if !ok {
		t = &Totals{}
		w.totals[userID] = t
	}
	return t
}

// Snapshot returns a copy of the per-user totals.
func (w *AuditWorker) Snapshot() map[string]Totals {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]Totals, len(w.totals))
	for id, t := range w.totals {
		out[id] = *t
	}
	return out
}

// LogSummary writes one record per user and prunes the redelivery cache.
func (w *AuditWorker) LogSummary(ctx context.Context) {
	snap := w.Snapshot()
	users := make([]string, 0, len(snap))
	for id := range snap {
		users = append(users, id)
	}
	sort.Strings(users)

	for _, id := range users {
		t := snap[id]
		w.logger.InfoContext(ctx, "Audit summary",
			"user", id,
			"events", t.Events,
			"income", t.Income.String(),
			"expenses", t.Expenses.String(),
			"transfers_in", t.TransfersIn.String(),
			"transfers_out", t.TransfersOut.String(),
			"budgets", t.Budgets)
	}
	pruned := w.seen.CleanExpired()
	w.logger.DebugContext(ctx, "Pruned seen event ids", "count", pruned, "remaining", w.seen.Size())
}

var validate = validator.New()

func validateEvent(ev *events.LedgerEvent) error {
	if ev == nil {
		return fmt.Errorf("nil event")
	}
	if err := validate.Struct(ev); err != nil {
		return fmt.Errorf("event %q: %w", ev.ID, err)
	}
	if ev.Direction != "" && !ev.Direction.Valid() {
		return fmt.Errorf("event %s has direction %q", ev.ID, ev.Direction)
	}
	return nil
}
