// Package flatfile persists wallets as plain text, one record per line:
//
//	<DIRECTION> <amount> <category>   ledger entry (3 tokens)
//	<limit> <category>                budget (2 tokens)
//
// Tokens are separated by single spaces. Entries are written before budgets,
// each group in insertion order.
package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"finwallet/internal/core"
)

// LineError describes a line that was skipped while decoding.
type LineError struct {
	Line   int
	Text   string
	Reason string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Encode writes the whole snapshot to w.
func Encode(w io.Writer, s core.Snapshot) error {
	bw := bufio.NewWriter(w)
	for _, e := range s.Entries {
		if _, err := fmt.Fprintf(bw, "%s %s %s\n", e.Direction, e.Amount.String(), e.Category); err != nil {
			return err
		}
	}
	for _, b := range s.Budgets {
		if _, err := fmt.Fprintf(bw, "%s %s\n", b.Limit.String(), b.Category); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode reads records from r. Malformed lines are skipped and reported in
// the returned slice; only a read failure aborts decoding.
func Decode(r io.Reader) (core.Snapshot, []LineError, error) {
	var (
		snap    core.Snapshot
		skipped []LineError
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		parts := strings.Split(line, " ")
		switch len(parts) {
		case 3:
			entry, err := decodeEntry(parts)
			if err != nil {
				skipped = append(skipped, LineError{Line: lineNo, Text: line, Reason: err.Error()})
				continue
			}
			snap.Entries = append(snap.Entries, entry)
		case 2:
			budget, err := decodeBudget(parts)
			if err != nil {
				skipped = append(skipped, LineError{Line: lineNo, Text: line, Reason: err.Error()})
				continue
			}
			snap.Budgets = append(snap.Budgets, budget)
		default:
			skipped = append(skipped, LineError{Line: lineNo, Text: line, Reason: fmt.Sprintf("expected 2 or 3 fields, got %d", len(parts))})
		}
	}
	if err := sc.Err(); err != nil {
		return snap, skipped, fmt.Errorf("read wallet records: %w", err)
	}
	return snap, skipped, nil
}

func decodeEntry(parts []string) (core.Entry, error) {
	direction, err := core.ParseDirection(parts[0])
	if err != nil {
		return core.Entry{}, err
	}
	amount, err := core.ParseStoredAmount(parts[1])
	if err != nil {
		return core.Entry{}, err
	}
	if parts[2] == "" {
		return core.Entry{}, fmt.Errorf("empty category")
	}
	return core.Entry{Amount: amount, Category: parts[2], Direction: direction}, nil
}

func decodeBudget(parts []string) (core.Budget, error) {
	limit, err := core.ParseStoredAmount(parts[0])
	if err != nil {
		return core.Budget{}, err
	}
	if parts[1] == "" {
		return core.Budget{}, fmt.Errorf("empty category")
	}
	return core.Budget{Category: parts[1], Limit: limit}, nil
}
