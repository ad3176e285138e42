// Package wallet holds one user's ledger entries and budgets and answers
// aggregate queries over them.
//
// Sums are always recomputed from the entry sequence; nothing is cached.
// A Wallet is not safe for concurrent use, callers serialize access per
// user (see store.Store.Lock).
package wallet

import (
	"github.com/shopspring/decimal"

	"finwallet/internal/core"
)

// Categories is a set of category names used to filter queries.
// A nil Categories passed to BudgetViews means no filtering.
type Categories map[string]struct{}

func NewCategories(names ...string) Categories {
	c := make(Categories, len(names))
	for _, n := range names {
		c[n] = struct{}{}
	}
	return c
}

func (c Categories) Contains(name string) bool {
	_, ok := c[name]
	return ok
}

type Wallet struct {
	entries []core.Entry
	budgets []core.Budget
}

func New() *Wallet {
	return &Wallet{}
}

// FromSnapshot builds a wallet holding copies of the snapshot records.
func FromSnapshot(s core.Snapshot) *Wallet {
	w := New()
	w.Replace(s)
	return w
}

// AddEntry appends an entry. Amount sign and category format are not checked.
func (w *Wallet) AddEntry(amount decimal.Decimal, category string, direction core.Direction) {
	w.entries = append(w.entries, core.Entry{Amount: amount, Category: category, Direction: direction})
}

// AddBudget appends a budget. Existing budgets for the same category are kept.
func (w *Wallet) AddBudget(limit decimal.Decimal, category string) {
	w.budgets = append(w.budgets, core.Budget{Category: category, Limit: limit})
}

func (w *Wallet) TotalIncome() decimal.Decimal {
	return w.total(core.Income)
}

func (w *Wallet) TotalExpenses() decimal.Decimal {
	return w.total(core.Expense)
}

func (w *Wallet) total(direction core.Direction) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range w.entries {
		if e.Direction == direction {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// SumsByCategory groups entries of one direction by category. Categories
// without entries in that direction are absent from the result.
func (w *Wallet) SumsByCategory(direction core.Direction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range w.entries {
		if e.Direction != direction {
			continue
		}
		if cur, ok := out[e.Category]; ok {
			out[e.Category] = cur.Add(e.Amount)
		} else {
			out[e.Category] = e.Amount
		}
	}
	return out
}

// SumsByCategoryFiltered is SumsByCategory restricted to the given categories.
// An empty set yields an empty result.
func (w *Wallet) SumsByCategoryFiltered(direction core.Direction, categories Categories) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	if len(categories) == 0 {
		return out
	}
	for _, e := range w.entries {
		if e.Direction != direction || !categories.Contains(e.Category) {
			continue
		}
		if cur, ok := out[e.Category]; ok {
			out[e.Category] = cur.Add(e.Amount)
		} else {
			out[e.Category] = e.Amount
		}
	}
	return out
}

// BudgetViews reports every stored budget in insertion order with the limit
// minus the expenses booked in its category. Remaining may go negative.
// A nil filter includes all budgets.
func (w *Wallet) BudgetViews(categories Categories) []core.BudgetView {
	views := make([]core.BudgetView, 0, len(w.budgets))
	for _, b := range w.budgets {
		if categories != nil && !categories.Contains(b.Category) {
			continue
		}
		spent, ok := w.SumsByCategoryFiltered(core.Expense, NewCategories(b.Category))[b.Category]
		if !ok {
			spent = decimal.Zero
		}
		views = append(views, core.BudgetView{
			Category:  b.Category,
			Limit:     b.Limit,
			Remaining: b.Limit.Sub(spent),
		})
	}
	return views
}

// Entries returns a copy of the entry sequence.
func (w *Wallet) Entries() []core.Entry {
	return append([]core.Entry(nil), w.entries...)
}

// Budgets returns a copy of the budget sequence.
func (w *Wallet) Budgets() []core.Budget {
	return append([]core.Budget(nil), w.budgets...)
}

func (w *Wallet) Snapshot() core.Snapshot {
	return core.Snapshot{Entries: w.Entries(), Budgets: w.Budgets()}
}

// Replace discards the current records and adopts copies of the snapshot's.
func (w *Wallet) Replace(s core.Snapshot) {
	w.entries = append([]core.Entry(nil), s.Entries...)
	w.budgets = append([]core.Budget(nil), s.Budgets...)
}

// Merge appends the snapshot records that have no counterpart in the wallet.
// Matching is one-for-one, so merging the wallet's own snapshot is a no-op
// even when it holds identical records. Returns how many records were added.
func (w *Wallet) Merge(s core.Snapshot) int {
	added := 0

	usedEntries := make([]bool, len(w.entries))
	existing := len(w.entries)
	for _, in := range s.Entries {
		matched := false
		for i := 0; i < existing; i++ {
			if !usedEntries[i] && w.entries[i].Equal(in) {
				usedEntries[i] = true
				matched = true
				break
			}
		}
		if !matched {
			w.entries = append(w.entries, in)
			added++
		}
	}

	usedBudgets := make([]bool, len(w.budgets))
	existing = len(w.budgets)
	for _, in := range s.Budgets {
		matched := false
		for i := 0; i < existing; i++ {
			if !usedBudgets[i] && w.budgets[i].Equal(in) {
				usedBudgets[i] = true
				matched = true
				break
			}
		}
		if !matched {
			w.budgets = append(w.budgets, in)
			added++
		}
	}

	return added
}
