// Package core provides the ledger value types and amount parsing.
//
// Amounts are arbitrary precision decimals. Sums are exact; nothing is
// ever rounded through a float.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied token to a decimal.
//
// Both dot (12.34) and comma (12,34) separators are accepted. The sign is
// not checked here: negative values are allowed by the ledger, callers that
// need a positive amount use ParsePositiveAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("abc")   -> 0, *ValidationError
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Value: raw, Reason: "empty amount"}
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Value: raw, Reason: "not a decimal number"}
	}
	return d, nil
}

// ParseStoredAmount parses an amount read back from storage. Only the
// canonical form written by decimal.String is accepted: no comma separator,
// no surrounding spaces.
func ParseStoredAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || strings.TrimSpace(s) != s {
		return decimal.Zero, &ValidationError{Field: "amount", Value: s, Reason: "not a decimal number"}
	}
	return d, nil
}

// ParsePositiveAmount is ParseAmount restricted to values greater than zero.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return d, err
	}
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Value: s, Reason: "must be greater than zero"}
	}
	return d, nil
}
