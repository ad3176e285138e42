package log

import (
	"finwallet/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldUser         = "user"
	FieldCategory     = "category"
	FieldDirection    = "direction"
	FieldAmount       = "amount"
	FieldCounterparty = "counterparty"
	FieldPath         = "path"
	FieldLine         = "line"
	FieldPolicy       = "policy"
	FieldError        = "error"
	FieldOperation    = "operation"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentWallet  = "wallet"
	ComponentStorage = "storage"
	ComponentAuth    = "auth"
	ComponentEvents  = "events"
	ComponentREPL    = "repl"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpIncome   = "income"
	OpExpense  = "expense"
	OpBudget   = "budget"
	OpReport   = "report"
	OpTransfer = "transfer"
	OpLoad     = "load"
	OpSave     = "save"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithUser(userID string) LogFields {
	f[FieldUser] = userID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds the fields describing a ledger entry
func (f LogFields) WithEntry(e core.Entry) LogFields {
	f[FieldDirection] = e.Direction.String()
	f[FieldAmount] = e.Amount.String()
	f[FieldCategory] = e.Category
	return f
}

// WithBudget adds the fields describing a budget
func (f LogFields) WithBudget(b core.Budget) LogFields {
	f[FieldAmount] = b.Limit.String()
	f[FieldCategory] = b.Category
	return f
}

func (f LogFields) WithCounterparty(userID string) LogFields {
	f[FieldCounterparty] = userID
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
