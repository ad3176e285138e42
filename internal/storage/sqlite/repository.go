// Package sqlite persists wallets in a SQLite database. Amounts are stored
// as decimal text so no precision is lost.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"finwallet/internal/core"
	applog "finwallet/internal/log"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection: concurrent saves queue here instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load returns the user's records in insertion order. A user without rows
// has an empty wallet. Rows whose amount no longer parses are skipped.
func (r *Repository) Load(ctx context.Context, userID string) (core.Snapshot, error) {
	var snap core.Snapshot

	rows, err := r.db.QueryContext(ctx,
		`SELECT direction, amount, category FROM ledger_entries WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return snap, fmt.Errorf("query ledger entries: %w", err)
	}
	for rows.Next() {
		var direction, amount, category string
		if err := rows.Scan(&direction, &amount, &category); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan ledger entry: %w", err)
		}
		d, err := core.ParseDirection(direction)
		if err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Skipping ledger row", applog.FieldUser, userID, applog.FieldError, err)
			continue
		}
		a, err := core.ParseStoredAmount(amount)
		if err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Skipping ledger row", applog.FieldUser, userID, applog.FieldError, err)
			continue
		}
		snap.Entries = append(snap.Entries, core.Entry{Amount: a, Category: category, Direction: d})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return snap, fmt.Errorf("iterate ledger entries: %w", err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT amount_limit, category FROM budgets WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return snap, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var limit, category string
		if err := rows.Scan(&limit, &category); err != nil {
			return snap, fmt.Errorf("scan budget: %w", err)
		}
		l, err := core.ParseStoredAmount(limit)
		if err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Skipping budget row", applog.FieldUser, userID, applog.FieldError, err)
			continue
		}
		snap.Budgets = append(snap.Budgets, core.Budget{Category: category, Limit: l})
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate budgets: %w", err)
	}

	return snap, nil
}

// Save replaces every row of the user inside one transaction.
func (r *Repository) Save(ctx context.Context, userID string, snap core.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear ledger entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear budgets: %w", err)
	}

	for i, e := range snap.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (user_id, position, direction, amount, category) VALUES (?, ?, ?, ?, ?)`,
			userID, i, string(e.Direction), e.Amount.String(), e.Category); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}
	for i, b := range snap.Budgets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (user_id, position, amount_limit, category) VALUES (?, ?, ?, ?)`,
			userID, i, b.Limit.String(), b.Category); err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit wallet: %w", err)
	}

	applog.FromContext(ctx).DebugContext(ctx, "Wallet saved to SQLite",
		applog.FieldUser, userID,
		"entries", len(snap.Entries),
		"budgets", len(snap.Budgets))
	return nil
}
