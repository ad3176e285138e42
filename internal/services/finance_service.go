package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finwallet/internal/core"
	"finwallet/internal/events"
	applog "finwallet/internal/log"
	"finwallet/internal/session"
	"finwallet/internal/store"
	"finwallet/internal/wallet"
)

// Authenticator is the credential capability the service needs.
type Authenticator interface {
	Register(ctx context.Context, userID, secret string) error
	Verify(ctx context.Context, userID, secret string) bool
	Exists(ctx context.Context, userID string) bool
}

// FinanceService gates wallet operations behind a session and keeps every
// successful mutation durable by saving right after it.
type FinanceService struct {
	auth      Authenticator
	wallets   *store.Store
	publisher events.Publisher
	logger    *applog.Logger
}

// NewFinanceService wires the service. publisher and logger may be nil.
func NewFinanceService(auth Authenticator, wallets *store.Store, publisher events.Publisher, logger *applog.Logger) *FinanceService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &FinanceService{
		auth:      auth,
		wallets:   wallets,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentWallet),
	}
}

// Report is the outcome of a report query. Totals are only filled in for
// unfiltered reports.
type Report struct {
	Filtered   bool
	Categories []string

	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal

	Income   map[string]decimal.Decimal
	Expenses map[string]decimal.Decimal
	Budgets  []core.BudgetView
}

func (s *FinanceService) Register(ctx context.Context, userID, secret string) error {
	if err := s.auth.Register(ctx, userID, secret); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User registered", applog.FieldUser, userID, applog.FieldOperation, applog.OpRegister)
	return nil
}

// Login verifies the credentials and loads the user's wallet the first time
// this process sees it. Later logins keep the in-memory wallet, which may
// hold records a failed save never wrote. A wallet that cannot be loaded
// fails the login, so a later save cannot clobber the file.
func (s *FinanceService) Login(ctx context.Context, userID, secret string) (session.Session, error) {
	if !s.auth.Verify(ctx, userID, secret) {
		s.logger.WarnContext(ctx, "Login rejected", applog.FieldUser, userID, applog.FieldOperation, applog.OpLogin)
		return session.Anonymous(), core.ErrInvalidCredentials
	}

	unlock := s.wallets.Lock(userID)
	defer unlock()
	if err := s.wallets.EnsureLoaded(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load wallet",
			applog.NewFields().WithUser(userID).WithOperation(applog.OpLogin).WithError(err).ToSlice()...)
		return session.Anonymous(), err
	}

	s.logger.InfoContext(ctx, "User logged in",
		applog.FieldUser, userID,
		applog.FieldOperation, applog.OpLogin,
		applog.FieldPolicy, s.wallets.Policy())
	return session.For(userID), nil
}

// Logout saves the user's wallet and always ends the session. The returned
// error reports a failed save.
func (s *FinanceService) Logout(ctx context.Context, sess session.Session) (session.Session, error) {
	userID, err := sess.Require()
	if err != nil {
		return sess, err
	}

	unlock := s.wallets.Lock(userID)
	defer unlock()
	err = s.wallets.Save(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save wallet on logout",
			applog.NewFields().WithUser(userID).WithOperation(applog.OpLogout).WithError(err).ToSlice()...)
	}
	s.logger.InfoContext(ctx, "User logged out", applog.FieldUser, userID, applog.FieldOperation, applog.OpLogout)
	return session.Anonymous(), err
}

func (s *FinanceService) AddIncome(ctx context.Context, sess session.Session, category, amount string) error {
	return s.addEntry(ctx, sess, category, amount, core.Income)
}

func (s *FinanceService) AddExpense(ctx context.Context, sess session.Session, category, amount string) error {
	return s.addEntry(ctx, sess, category, amount, core.Expense)
}

func (s *FinanceService) addEntry(ctx context.Context, sess session.Session, category, amount string, dir core.Direction) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	if err := core.ValidateCategory(category); err != nil {
		return err
	}
	value, err := core.ParseAmount(amount)
	if err != nil {
		return err
	}
	entry := core.Entry{Amount: value, Category: category, Direction: dir}

	unlock := s.wallets.Lock(userID)
	defer unlock()

	s.wallets.GetOrCreate(userID).AddEntry(entry.Amount, entry.Category, entry.Direction)
	op := applog.OpIncome
	if dir == core.Expense {
		op = applog.OpExpense
	}
	fields := applog.NewFields().WithUser(userID).WithOperation(op).WithEntry(entry)
	if err := s.wallets.Save(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "Entry recorded but not saved", fields.WithError(err).ToSlice()...)
		return err
	}
	s.logger.DebugContext(ctx, "Entry recorded", fields.ToSlice()...)

	s.publish(ctx, events.NewEntryAdded(userID, entry))
	return nil
}

func (s *FinanceService) AddBudget(ctx context.Context, sess session.Session, category, limit string) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	if err := core.ValidateCategory(category); err != nil {
		return err
	}
	value, err := core.ParseAmount(limit)
	if err != nil {
		return err
	}
	budget := core.Budget{Category: category, Limit: value}

	unlock := s.wallets.Lock(userID)
	defer unlock()

	s.wallets.GetOrCreate(userID).AddBudget(budget.Limit, budget.Category)
	fields := applog.NewFields().WithUser(userID).WithOperation(applog.OpBudget).WithBudget(budget)
	if err := s.wallets.Save(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "Budget recorded but not saved", fields.WithError(err).ToSlice()...)
		return err
	}
	s.logger.DebugContext(ctx, "Budget recorded", fields.ToSlice()...)

	s.publish(ctx, events.NewBudgetAdded(userID, budget))
	return nil
}

// Report aggregates the session user's wallet. With no categories it covers
// everything; otherwise sums and budgets are restricted to the named
// categories.
func (s *FinanceService) Report(ctx context.Context, sess session.Session, categories ...string) (*Report, error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if err := core.ValidateCategory(c); err != nil {
			return nil, err
		}
	}

	unlock := s.wallets.Lock(userID)
	defer unlock()
	w := s.wallets.GetOrCreate(userID)
	s.logger.DebugContext(ctx, "Building report",
		applog.FieldUser, userID,
		applog.FieldOperation, applog.OpReport,
		applog.FieldCategory, categories)

	if len(categories) == 0 {
		return &Report{
			TotalIncome:   w.TotalIncome(),
			TotalExpenses: w.TotalExpenses(),
			Income:        w.SumsByCategory(core.Income),
			Expenses:      w.SumsByCategory(core.Expense),
			Budgets:       w.BudgetViews(nil),
		}, nil
	}

	filter := wallet.NewCategories(categories...)
	return &Report{
		Filtered:   true,
		Categories: append([]string(nil), categories...),
		Income:     w.SumsByCategoryFiltered(core.Income, filter),
		Expenses:   w.SumsByCategoryFiltered(core.Expense, filter),
		Budgets:    w.BudgetViews(filter),
	}, nil
}

// Transfer books amount as an EXPENSE on the sender and an INCOME on the
// recipient, both under the transfer category, and saves both wallets.
// Validation and recipient loading happen before either wallet changes.
func (s *FinanceService) Transfer(ctx context.Context, sess session.Session, to, amount string) error {
	from, err := sess.Require()
	if err != nil {
		return err
	}
	if err := core.ValidateUserID(to); err != nil {
		return err
	}
	value, err := core.ParsePositiveAmount(amount)
	if err != nil {
		return err
	}
	if !s.auth.Exists(ctx, to) {
		return fmt.Errorf("transfer to %q: %w", to, core.ErrUnknownUser)
	}

	unlock := s.wallets.Lock(from, to)
	defer unlock()

	if err := s.wallets.EnsureLoaded(ctx, to); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load recipient wallet",
			applog.NewFields().WithUser(from).WithCounterparty(to).WithError(err).ToSlice()...)
		return err
	}

	s.wallets.GetOrCreate(from).AddEntry(value, core.TransferCategory, core.Expense)
	s.wallets.GetOrCreate(to).AddEntry(value, core.TransferCategory, core.Income)

	fields := applog.NewFields().
		WithUser(from).
		WithCounterparty(to).
		WithOperation(applog.OpTransfer)
	fields[applog.FieldAmount] = value.String()

	if err := s.saveBoth(ctx, from, to); err != nil {
		s.logger.ErrorContext(ctx, "Transfer recorded but not saved", fields.WithError(err).ToSlice()...)
		return err
	}
	s.logger.InfoContext(ctx, "Transfer completed", fields.ToSlice()...)

	s.publish(ctx, events.NewTransfer(from, to, value))
	return nil
}

func (s *FinanceService) saveBoth(ctx context.Context, from, to string) error {
	if from == to {
		return s.wallets.Save(ctx, from)
	}
	var g errgroup.Group
	errs := make([]error, 2)
	for i, id := range []string{from, to} {
		i, id := i, id
		g.Go(func() error {
			errs[i] = s.wallets.Save(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// SaveAll persists every wallet in memory.
func (s *FinanceService) SaveAll(ctx context.Context) error {
	return s.wallets.SaveAll(ctx)
}

// Save persists the session user's wallet.
func (s *FinanceService) Save(ctx context.Context, sess session.Session) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	unlock := s.wallets.Lock(userID)
	defer unlock()
	return s.wallets.Save(ctx, userID)
}

func (s *FinanceService) publish(ctx context.Context, ev *events.LedgerEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			"id", ev.ID,
			"kind", ev.Kind,
			applog.FieldUser, ev.UserID,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err)
	}
}
