package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finwallet/internal/core"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})

	logger.WithComponent(ComponentWallet).Info("Entry recorded", FieldUser, "alice")

	out := buf.String()
	if !strings.Contains(out, "component=wallet") {
		t.Errorf("expected wallet component in %q", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Errorf("component must appear once, got %q", out)
	}
	if !strings.Contains(out, "user=alice") {
		t.Errorf("expected user field in %q", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})
	logger.Info("hidden")
	logger.DebugContext(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn record, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.component != "unknown" {
		t.Errorf("fallback component = %q", got.component)
	}
	logger := New(DefaultConfig()).WithComponent(ComponentREPL)
	ctx := WithContext(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Errorf("FromContext returned a different logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithUser("alice").
		WithEntry(core.Entry{Amount: decimal.RequireFromString("2.50"), Category: "food", Direction: core.Expense}).
		WithCounterparty("bob").
		WithOperation(OpTransfer).
		WithError(errors.New("boom")).
		WithError(nil)

	want := map[string]any{
		FieldUser:         "alice",
		FieldAmount:       "2.5",
		FieldCategory:     "food",
		FieldDirection:    "EXPENSE",
		FieldCounterparty: "bob",
		FieldOperation:    OpTransfer,
		FieldError:        "boom",
	}
	for k, v := range want {
		if f[k] != v {
			t.Errorf("field %s = %v, want %v", k, f[k], v)
		}
	}
	if got := len(f.ToSlice()); got != 2*len(want) {
		t.Errorf("ToSlice() has %d items, want %d", got, 2*len(want))
	}
}
