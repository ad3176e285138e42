// Package command turns one input line into a typed wallet command.
package command

import (
	"errors"
	"fmt"
	"strings"

	"finwallet/internal/core"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrEmptyLine      = errors.New("empty line")
)

// Command is one of the types declared in this package.
type Command interface {
	Name() string
	command()
}

type Register struct{ User, Secret string }
type Login struct{ User, Secret string }
type Logout struct{}
type Income struct{ Category, Amount string }
type Expense struct{ Category, Amount string }
type Budget struct{ Category, Limit string }

// Report with no categories asks for the full report.
type Report struct{ Categories []string }
type Transfer struct{ To, Amount string }
type Stop struct{}

func (Register) Name() string { return "register" }
func (Login) Name() string    { return "login" }
func (Logout) Name() string   { return "logout" }
func (Income) Name() string   { return "income" }
func (Expense) Name() string  { return "expense" }
func (Budget) Name() string   { return "budget" }
func (Report) Name() string   { return "report" }
func (Transfer) Name() string { return "transfer" }
func (Stop) Name() string     { return "stop" }

func (Register) command() {}
func (Login) command()    {}
func (Logout) command()   {}
func (Income) command()   {}
func (Expense) command()  {}
func (Budget) command()   {}
func (Report) command()   {}
func (Transfer) command() {}
func (Stop) command()     {}

// UsageError reports a known command called with the wrong arguments.
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s", e.Usage)
}

func (e *UsageError) Is(target error) bool {
	return target == core.ErrValidation
}

type spec struct {
	name  string
	usage string
	// args is the exact argument count, or -1 for "any".
	args  int
	build func(args []string) Command
}

var specs = []spec{
	{"register", "register <user> <password>", 2, func(a []string) Command { return Register{User: a[0], Secret: a[1]} }},
	{"login", "login <user> <password>", 2, func(a []string) Command { return Login{User: a[0], Secret: a[1]} }},
	{"logout", "logout", 0, func([]string) Command { return Logout{} }},
	{"income", "income <category> <amount>", 2, func(a []string) Command { return Income{Category: a[0], Amount: a[1]} }},
	{"expense", "expense <category> <amount>", 2, func(a []string) Command { return Expense{Category: a[0], Amount: a[1]} }},
	{"budget", "budget <category> <limit>", 2, func(a []string) Command { return Budget{Category: a[0], Limit: a[1]} }},
	{"report", "report [category...]", -1, func(a []string) Command { return Report{Categories: a} }},
	{"transfer", "transfer <user> <amount>", 2, func(a []string) Command { return Transfer{To: a[0], Amount: a[1]} }},
	{"stop", "stop", 0, func([]string) Command { return Stop{} }},
}

// aliases keeps the command words of the first, Russian-language CLI working.
var aliases = map[string]string{
	"регистрация": "register",
	"вход":        "login",
	"выход":       "logout",
	"доход":       "income",
	"расход":      "expense",
	"бюджет":      "budget",
	"расчёт":      "report",
	"расчет":      "report",
	"перевод":     "transfer",
	"стоп":        "stop",
	"exit":        "stop",
	"quit":        "stop",
}

var byName = func() map[string]spec {
	m := make(map[string]spec, len(specs))
	for _, s := range specs {
		m[s.name] = s
	}
	return m
}()

// Parse splits line on whitespace and builds the matching command. Command
// words are case-insensitive; arguments are kept verbatim.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmptyLine
	}

	word := strings.ToLower(fields[0])
	if canonical, ok := aliases[word]; ok {
		word = canonical
	}
	s, ok := byName[word]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}

	args := fields[1:]
	if s.args >= 0 && len(args) != s.args {
		return nil, &UsageError{Command: s.name, Usage: s.usage}
	}
	return s.build(args), nil
}

// Usage lists the usage line of every command.
func Usage() []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.usage)
	}
	return out
}
