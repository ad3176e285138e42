package flatfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"finwallet/internal/core"
	applog "finwallet/internal/log"
)

// Store keeps one file per user under dir, named <user>.txt.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file backing userID.
func (s *Store) Path(userID string) string {
	return filepath.Join(s.dir, userID+".txt")
}

// Load decodes the user's file. A missing file is an empty wallet.
func (s *Store) Load(ctx context.Context, userID string) (core.Snapshot, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return core.Snapshot{}, err
	}
	path := s.Path(userID)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		applog.FromContext(ctx).DebugContext(ctx, "No wallet file, starting empty",
			applog.FieldUser, userID,
			applog.FieldPath, path)
		return core.Snapshot{}, nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("open wallet file: %w", err)
	}
	defer f.Close()

	snap, skipped, err := Decode(f)
	logger := applog.FromContext(ctx)
	for _, le := range skipped {
		logger.WarnContext(ctx, "Skipping malformed wallet line",
			applog.FieldUser, userID,
			applog.FieldPath, path,
			applog.FieldLine, le.Line,
			"reason", le.Reason)
	}
	if err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

// Save replaces the user's file with the full snapshot. The records are
// written to a temporary file in the same directory and renamed over the
// target, so repeated saves never accumulate duplicates.
func (s *Store) Save(ctx context.Context, userID string, snap core.Snapshot) error {
	if err := core.ValidateUserID(userID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create wallet directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, userID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp wallet file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Encode(tmp, snap); err != nil {
		tmp.Close()
		return fmt.Errorf("write wallet records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp wallet file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(userID)); err != nil {
		return fmt.Errorf("replace wallet file: %w", err)
	}

	applog.FromContext(ctx).DebugContext(ctx, "Wallet saved",
		applog.FieldUser, userID,
		applog.FieldPath, s.Path(userID),
		"entries", len(snap.Entries),
		"budgets", len(snap.Budgets))
	return nil
}
