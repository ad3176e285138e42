// Package repl is the interactive front end: it reads command lines, runs
// them against the finance service and prints the outcome.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"finwallet/internal/command"
	"finwallet/internal/core"
	applog "finwallet/internal/log"
	"finwallet/internal/services"
	"finwallet/internal/session"
)

// Service is the part of services.FinanceService the REPL drives.
type Service interface {
	Register(ctx context.Context, userID, secret string) error
	Login(ctx context.Context, userID, secret string) (session.Session, error)
	Logout(ctx context.Context, sess session.Session) (session.Session, error)
	AddIncome(ctx context.Context, sess session.Session, category, amount string) error
	AddExpense(ctx context.Context, sess session.Session, category, amount string) error
	AddBudget(ctx context.Context, sess session.Session, category, limit string) error
	Report(ctx context.Context, sess session.Session, categories ...string) (*services.Report, error)
	Transfer(ctx context.Context, sess session.Session, to, amount string) error
	Save(ctx context.Context, sess session.Session) error
}

type REPL struct {
	svc    Service
	logger *applog.Logger
	sess   session.Session
}

func New(svc Service, logger *applog.Logger) *REPL {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &REPL{
		svc:    svc,
		logger: logger.WithComponent(applog.ComponentREPL),
		sess:   session.Anonymous(),
	}
}

// Run processes lines from in until a stop command, end of input or ctx is
// done. The active user's wallet is saved before returning.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Wallet started. Commands:")
	printUsage(out)

	sc := bufio.NewScanner(in)
	for ctx.Err() == nil && sc.Scan() {
		if stop := r.Execute(ctx, sc.Text(), out); stop {
			break
		}
	}

	r.shutdown(ctx, out)
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (r *REPL) shutdown(ctx context.Context, out io.Writer) {
	if r.sess.Authenticated() {
		// ctx may already be cancelled by a signal; the final save still runs.
		if err := r.svc.Save(context.WithoutCancel(ctx), r.sess); err != nil {
			r.logger.ErrorContext(ctx, "Failed to save wallet on exit",
				applog.FieldUser, r.sess.UserID(), applog.FieldError, err)
			fmt.Fprintf(out, "Could not save wallet: %v\n", err)
		}
	}
	fmt.Fprintln(out, "Bye")
}

// Execute runs a single line and reports whether it asked to stop.
func (r *REPL) Execute(ctx context.Context, line string, out io.Writer) (stop bool) {
	cmd, err := command.Parse(line)
	if errors.Is(err, command.ErrEmptyLine) {
		return false
	}
	if err != nil {
		r.printError(out, err)
		return false
	}
	r.logger.DebugContext(ctx, "Executing command", applog.FieldOperation, cmd.Name())

	switch c := cmd.(type) {
	case command.Stop:
		return true
	case command.Register:
		err = r.svc.Register(ctx, c.User, c.Secret)
		r.report(out, err, "User %s registered", c.User)
	case command.Login:
		var next session.Session
		next, err = r.svc.Login(ctx, c.User, c.Secret)
		if err == nil {
			r.sess = next
		}
		r.report(out, err, "Logged in as %s", c.User)
	case command.Logout:
		var next session.Session
		next, err = r.svc.Logout(ctx, r.sess)
		r.sess = next
		r.report(out, err, "Logged out")
	case command.Income:
		err = r.svc.AddIncome(ctx, r.sess, c.Category, c.Amount)
		r.report(out, err, "Income recorded")
	case command.Expense:
		err = r.svc.AddExpense(ctx, r.sess, c.Category, c.Amount)
		r.report(out, err, "Expense recorded")
	case command.Budget:
		err = r.svc.AddBudget(ctx, r.sess, c.Category, c.Limit)
		r.report(out, err, "Budget recorded")
	case command.Transfer:
		err = r.svc.Transfer(ctx, r.sess, c.To, c.Amount)
		r.report(out, err, "Transferred %s to %s", c.Amount, c.To)
	case command.Report:
		rep, err := r.svc.Report(ctx, r.sess, c.Categories...)
		if err != nil {
			r.printError(out, err)
			return false
		}
		printReport(out, rep)
	}
	return false
}

func (r *REPL) report(out io.Writer, err error, format string, args ...any) {
	if err != nil {
		r.printError(out, err)
		return
	}
	fmt.Fprintf(out, format+"\n", args...)
}

func (r *REPL) printError(out io.Writer, err error) {
	var usage *command.UsageError
	var storage *core.StorageError
	switch {
	case errors.As(err, &usage):
		fmt.Fprintf(out, "Usage: %s\n", usage.Usage)
	case errors.Is(err, command.ErrUnknownCommand):
		fmt.Fprintln(out, "Unknown command. Commands:")
		printUsage(out)
	case errors.Is(err, core.ErrNotAuthenticated):
		fmt.Fprintln(out, "You must be logged in")
	case errors.Is(err, core.ErrInvalidCredentials):
		fmt.Fprintln(out, "Invalid user name or password")
	case errors.Is(err, core.ErrDuplicateUser):
		fmt.Fprintln(out, "User already exists")
	case errors.Is(err, core.ErrUnknownUser):
		fmt.Fprintln(out, "No such user")
	case errors.As(err, &storage) && storage.Op == "save":
		fmt.Fprintf(out, "Recorded, but the wallet could not be saved: %v\n", storage.Err)
	case errors.Is(err, core.ErrStorageIO):
		fmt.Fprintf(out, "Storage error: %v\n", err)
	case errors.Is(err, core.ErrValidation):
		msg := err.Error()
		fmt.Fprintln(out, strings.ToUpper(msg[:1])+msg[1:])
	default:
		r.logger.Error("Unexpected command failure", applog.FieldError, err)
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func printUsage(out io.Writer) {
	for _, u := range command.Usage() {
		fmt.Fprintf(out, "   %s\n", u)
	}
}

func printReport(out io.Writer, rep *services.Report) {
	if !rep.Filtered {
		fmt.Fprintf(out, "Total income: %s\n", rep.TotalIncome)
	}
	fmt.Fprintln(out, "Income by category:")
	for _, ca := range core.SortedAmounts(rep.Income) {
		fmt.Fprintf(out, "   %s: %s\n", ca.Name, ca.Amount)
	}
	if !rep.Filtered {
		fmt.Fprintf(out, "Total expenses: %s\n", rep.TotalExpenses)
	}
	fmt.Fprintln(out, "Expenses by category:")
	for _, ca := range core.SortedAmounts(rep.Expenses) {
		fmt.Fprintf(out, "   %s: %s\n", ca.Name, ca.Amount)
	}
	fmt.Fprintln(out, "Budgets:")
	for _, b := range rep.Budgets {
		fmt.Fprintf(out, "   %s: %s, remaining: %s\n", b.Category, b.Limit, b.Remaining)
	}
}
