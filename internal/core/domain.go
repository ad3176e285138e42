package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  Direction = "INCOME"
	Expense Direction = "EXPENSE"
)

// TransferCategory is the category both sides of a transfer are booked under.
const TransferCategory = "transfer"

type (
	// Direction tells whether money came in or went out.
	Direction string

	Entry struct {
		Amount    decimal.Decimal
		Category  string
		Direction Direction
	}

	Budget struct {
		Category string
		Limit    decimal.Decimal
	}

	// BudgetView is computed on demand and never stored.
	BudgetView struct {
		Category  string
		Limit     decimal.Decimal
		Remaining decimal.Decimal
	}

	// Snapshot is the persisted state of one wallet, in insertion order.
	Snapshot struct {
		Entries []Entry
		Budgets []Budget
	}
)

// ParseDirection accepts the exact persisted tokens only.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Income, Expense:
		return Direction(s), nil
	default:
		return "", &ValidationError{Field: "direction", Value: s, Reason: "must be INCOME or EXPENSE"}
	}
}

func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

func (d Direction) String() string {
	return string(d)
}

// Equal compares amounts numerically, so 1.50 equals 1.5.
func (e Entry) Equal(o Entry) bool {
	return e.Direction == o.Direction && e.Category == o.Category && e.Amount.Equal(o.Amount)
}

func (b Budget) Equal(o Budget) bool {
	return b.Category == o.Category && b.Limit.Equal(o.Limit)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s %s", e.Direction, e.Amount.String(), e.Category)
}

// ValidateCategory rejects names that cannot survive the space separated file format.
func ValidateCategory(category string) error {
	if category == "" {
		return &ValidationError{Field: "category", Value: category, Reason: "empty category"}
	}
	if strings.ContainsAny(category, " \t\r\n") {
		return &ValidationError{Field: "category", Value: category, Reason: "category must not contain whitespace"}
	}
	return nil
}

// ValidateUserID rejects identities that are unusable as a file name.
func ValidateUserID(userID string) error {
	switch {
	case userID == "":
		return &ValidationError{Field: "user", Value: userID, Reason: "empty user name"}
	case userID == "." || userID == "..":
		return &ValidationError{Field: "user", Value: userID, Reason: "reserved user name"}
	case strings.ContainsAny(userID, " \t\r\n/\\"):
		return &ValidationError{Field: "user", Value: userID, Reason: "user name must not contain whitespace or path separators"}
	}
	return nil
}
