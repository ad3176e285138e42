// Package auth is the credential registry: a flat file of
// "<username> <bcrypt hash>" lines kept apart from the wallet files.
package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"finwallet/internal/core"
	applog "finwallet/internal/log"
)

type Registry struct {
	path   string
	cost   int
	logger *applog.Logger

	mu    sync.Mutex
	users map[string]string
}

// NewRegistry creates a registry persisted at path. A cost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func NewRegistry(path string, cost int, logger *applog.Logger) *Registry {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Registry{
		path:   path,
		cost:   cost,
		logger: logger.WithComponent(applog.ComponentAuth),
		users:  make(map[string]string),
	}
}

// Load reads the credential file, replacing what is in memory. A missing
// file means no users yet.
func (r *Registry) Load(ctx context.Context) error {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open credentials: %w", err)
	}
	defer f.Close()

	users := make(map[string]string)
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		parts := strings.Split(strings.TrimSpace(sc.Text()), " ")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			r.logger.WarnContext(ctx, "Skipping malformed credential line", applog.FieldPath, r.path, applog.FieldLine, lineNo)
			continue
		}
		users[parts[0]] = parts[1]
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}

	r.mu.Lock()
	r.users = users
	r.mu.Unlock()
	return nil
}

// Register stores a new user and rewrites the credential file. An existing
// name is rejected with core.ErrDuplicateUser and nothing changes.
func (r *Registry) Register(ctx context.Context, userID, secret string) error {
	if err := core.ValidateUserID(userID); err != nil {
		return err
	}
	if secret == "" {
		return &core.ValidationError{Field: "password", Reason: "empty password"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[userID]; exists {
		return fmt.Errorf("register %q: %w", userID, core.ErrDuplicateUser)
	}
	hash, err := HashPassword(secret, r.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	r.users[userID] = hash
	if err := r.writeLocked(); err != nil {
		delete(r.users, userID)
		return &core.StorageError{Op: "register", User: userID, Err: err}
	}
	r.logger.DebugContext(ctx, "Credentials written",
		applog.FieldUser, userID,
		applog.FieldOperation, applog.OpRegister,
		applog.FieldPath, r.path)
	return nil
}

func (r *Registry) Verify(_ context.Context, userID, secret string) bool {
	r.mu.Lock()
	hash, ok := r.users[userID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return CheckPasswordHash(secret, hash)
}

func (r *Registry) Exists(_ context.Context, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[userID]
	return ok
}

// writeLocked rewrites the whole file; r.mu must be held.
func (r *Registry) writeLocked() error {
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(r.users[name])
		b.WriteByte('\n')
	}
	return os.WriteFile(r.path, []byte(b.String()), 0o600)
}
