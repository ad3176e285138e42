package repl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"finwallet/internal/auth"
	"finwallet/internal/core"
	applog "finwallet/internal/log"
	"finwallet/internal/services"
	"finwallet/internal/storage/flatfile"
	"finwallet/internal/storage/memory"
	"finwallet/internal/store"
)

func newTestREPL(t *testing.T, p store.Persister) *REPL {
	t.Helper()
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
	registry := auth.NewRegistry(filepath.Join(t.TempDir(), "users.txt"), bcrypt.MinCost, logger)
	svc := services.NewFinanceService(registry, store.New(p, store.Replace, nil), nil, logger)
	return New(svc, logger)
}

func run(t *testing.T, r *REPL, script string) string {
	t.Helper()
	var out bytes.Buffer
	if err := r.Run(context.Background(), strings.NewReader(script), &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out.String()
}

func TestSessionScript(t *testing.T) {
	dir := t.TempDir()
	r := newTestREPL(t, flatfile.New(dir))

	out := run(t, r, strings.Join([]string{
		"register alice pw",
		"login alice pw",
		"income salary 1000.50",
		"expense food 120.25",
		"expense rent 500",
		"expense food 30",
		"budget food 100",
		"report",
		"report food",
		"stop",
		"income ignored 1",
	}, "\n"))

	for _, want := range []string{
		"User alice registered",
		"Logged in as alice",
		"Total income: 1000.5",
		"   salary: 1000.5",
		"Total expenses: 650.25",
		"   food: 150.25",
		"   rent: 500",
		"   food: 100, remaining: -50.25",
		"Bye",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ignored") {
		t.Errorf("lines after stop must not run")
	}

	snap, lineErrs, err := loadFile(filepath.Join(dir, "alice.txt"))
	if err != nil || len(lineErrs) != 0 {
		t.Fatalf("wallet file: %v %v", err, lineErrs)
	}
	if len(snap.Entries) != 4 || len(snap.Budgets) != 1 {
		t.Errorf("persisted snapshot = %+v", snap)
	}
}

func TestFilteredReportHasNoTotals(t *testing.T) {
	r := newTestREPL(t, memory.New())
	out := run(t, r, "register a pw\nlogin a pw\nexpense food 5\nexpense rent 7\nreport food\n")

	idx := strings.Index(out, "Income by category:")
	if idx < 0 {
		t.Fatalf("no report in output:\n%s", out)
	}
	report := out[idx:]
	if strings.Contains(report, "Total") {
		t.Errorf("filtered report printed totals:\n%s", report)
	}
	if strings.Contains(report, "rent") || !strings.Contains(report, "food: 5") {
		t.Errorf("unexpected filtered report:\n%s", report)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"income salary 10", "You must be logged in"},
		{"dance", "Unknown command"},
		{"income salary", "Usage: income <category> <amount>"},
		{"login ghost pw", "Invalid user name or password"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r := newTestREPL(t, memory.New())
			var out bytes.Buffer
			if stop := r.Execute(context.Background(), tt.line, &out); stop {
				t.Fatalf("Execute(%q) asked to stop", tt.line)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("Execute(%q) printed %q, want %q", tt.line, out.String(), tt.want)
			}
		})
	}
}

func TestLoggedInErrors(t *testing.T) {
	r := newTestREPL(t, memory.New())
	out := run(t, r, strings.Join([]string{
		"register alice pw",
		"register alice pw",
		"login alice pw",
		"income salary abc",
		"transfer nobody 5",
		"transfer alice 0",
	}, "\n"))

	for _, want := range []string{
		"User already exists",
		`Invalid amount "abc"`,
		"No such user",
		"must be greater than zero",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// countingStore counts successful saves on top of the memory backend.
type countingStore struct {
	*memory.Store
	mu    sync.Mutex
	saves int
}

func (c *countingStore) Save(ctx context.Context, userID string, snap core.Snapshot) error {
	if err := c.Store.Save(ctx, userID, snap); err != nil {
		return err
	}
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return nil
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func TestEOFSavesActiveUser(t *testing.T) {
	p := &countingStore{Store: memory.New()}
	r := newTestREPL(t, p)
	run(t, r, "register alice pw\nlogin alice pw\n")
	before := p.count()

	if err := r.Run(context.Background(), strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p.count() != before+1 {
		t.Errorf("expected a save on end of input, saves %d -> %d", before, p.count())
	}
}

func TestLogoutEndsSession(t *testing.T) {
	r := newTestREPL(t, memory.New())
	out := run(t, r, "register alice pw\nlogin alice pw\nlogout\nbudget food 1\n")
	if r.sess.Authenticated() {
		t.Errorf("session still authenticated after logout")
	}
	if !strings.Contains(out, "Logged out") || !strings.Contains(out, "You must be logged in") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestTransferBetweenUsers(t *testing.T) {
	p := memory.New()
	r := newTestREPL(t, p)
	out := run(t, r, strings.Join([]string{
		"register alice pw",
		"register bob pw",
		"login alice pw",
		"income salary 100",
		"transfer bob 40",
		"login bob pw",
		"report transfer",
	}, "\n"))

	if !strings.Contains(out, "Transferred 40 to bob") {
		t.Fatalf("transfer not confirmed:\n%s", out)
	}
	tail := out[strings.LastIndex(out, "Income by category:"):]
	if !strings.Contains(tail, "transfer: 40") {
		t.Errorf("bob's report does not show the transfer:\n%s", tail)
	}
	snap, _ := p.Load(context.Background(), "alice")
	found := false
	for _, e := range snap.Entries {
		if e.Category == core.TransferCategory && e.Direction == core.Expense {
			found = true
		}
	}
	if !found {
		t.Errorf("sender file lacks the transfer expense: %+v", snap)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	r := newTestREPL(t, memory.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if err := r.Run(ctx, strings.NewReader("register alice pw\n"), &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(out.String(), "registered") {
		t.Errorf("no command should run after cancellation")
	}
}

func TestUnexpectedErrorIsPrinted(t *testing.T) {
	r := newTestREPL(t, memory.New())
	var out bytes.Buffer
	r.printError(&out, errors.New("boom"))
	if !strings.Contains(out.String(), "Error: boom") {
		t.Errorf("printed %q", out.String())
	}
}

func loadFile(path string) (core.Snapshot, []flatfile.LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Snapshot{}, nil, err
	}
	defer f.Close()
	return flatfile.Decode(f)
}
