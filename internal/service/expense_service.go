package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/groupledger/groupledger/internal/ledger"
	"github.com/groupledger/groupledger/internal/metrics"
	"github.com/groupledger/groupledger/internal/models"
	"github.com/groupledger/groupledger/internal/money"
	"github.com/groupledger/groupledger/internal/storage"
)

// ExpenseService coordinates expense mutations. Each mutation validates the
// payload, persists the expense atomically together with a full balance
// recompute, and is serialized against other mutations on the same group.
// It is the only writer of member balances.
type ExpenseService struct {
	store storage.Store
	locks *groupLocks
}

// NewExpenseService creates a new ExpenseService with the given storage
// backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store, locks: newGroupLocks()}
}

// PayerInput is one member's payment in an expense payload.
type PayerInput struct {
	MemberID        string
	Amount          decimal.Decimal
	ConvertedAmount *decimal.Decimal
}

// ParticipantInput is one member's owed share in an expense payload.
type ParticipantInput struct {
	MemberID string
	Share    decimal.Decimal
}

// CreateExpenseInput is the payload for recording a new expense.
type CreateExpenseInput struct {
	GroupID         string
	Description     string
	TotalAmount     decimal.Decimal
	Currency        string
	ConvertedAmount *decimal.Decimal
	Date            time.Time
	Payers          []PayerInput
	Participants    []ParticipantInput
}

// UpdateExpenseInput patches an existing expense. Nil scalar fields keep
// their current value. A non-nil Payers or Participants list replaces the
// existing line items wholesale; nil keeps them.
type UpdateExpenseInput struct {
	Description     *string
	TotalAmount     *decimal.Decimal
	Currency        *string
	ConvertedAmount *decimal.Decimal
	Date            *time.Time
	Payers          []PayerInput
	Participants    []ParticipantInput
}

// Create records a new expense and brings the group's balances up to date.
//
// Validation happens before any write: the group and every referenced
// member must exist (NotFound names the missing member ID), the payer and
// participant lists must be non-empty, and every payer on a cross-currency
// expense must carry a converted amount. The expense insert and the balance
// writes commit in one storage transaction.
func (s *ExpenseService) Create(ctx context.Context, in CreateExpenseInput) (*models.Expense, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, InvalidInputf("description must not be empty")
	}
	if strings.TrimSpace(in.Currency) == "" {
		return nil, InvalidInputf("currency must not be empty")
	}
	if !in.TotalAmount.IsPositive() {
		return nil, InvalidInputf("total amount must be positive")
	}
	if in.Date.IsZero() {
		return nil, InvalidInputf("date must be set")
	}

	lock := s.locks.get(in.GroupID)
	lock.Lock()
	defer lock.Unlock()

	group, err := s.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, mapStorageError("load group", err)
	}

	payers, err := buildPayers(group, in.Currency, in.Payers)
	if err != nil {
		return nil, err
	}
	participants, err := buildParticipants(group, in.Participants)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:         group.ID,
		Description:     in.Description,
		TotalAmount:     money.Round(in.TotalAmount),
		Currency:        in.Currency,
		ConvertedAmount: roundOptional(in.ConvertedAmount),
		Date:            in.Date,
		Payers:          payers,
		Participants:    participants,
	}

	balances, err := s.recompute(ctx, group, expense, nil)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, expense, balances); err != nil {
		return nil, mapStorageError("persist expense", err)
	}
	metrics.ExpenseMutations.WithLabelValues("create").Inc()

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"total", money.String(expense.TotalAmount),
		"currency", expense.Currency,
	)

	stored, err := s.store.GetExpense(ctx, expense.ID)
	if err != nil {
		return nil, mapStorageError("reload expense", err)
	}
	return stored, nil
}

// Get retrieves an expense with its line items.
func (s *ExpenseService) Get(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, mapStorageError("load expense", err)
	}
	return expense, nil
}

// ListByGroup retrieves a group's expenses, newest date first.
func (s *ExpenseService) ListByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, mapStorageError("load group", err)
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, mapStorageError("list expenses", err)
	}
	return expenses, nil
}

// Update patches an expense and brings the group's balances up to date.
// Replacement line-item lists are validated exactly like on create; the
// header rewrite, line-item replacement, and balance writes commit in one
// storage transaction.
func (s *ExpenseService) Update(ctx context.Context, expenseID string, in UpdateExpenseInput) (*models.Expense, error) {
	// First load only learns the owning group, so the lock can be taken
	// before the snapshot read.
	peek, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, mapStorageError("load expense", err)
	}

	lock := s.locks.get(peek.GroupID)
	lock.Lock()
	defer lock.Unlock()

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, mapStorageError("load expense", err)
	}
	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return nil, mapStorageError("load group", err)
	}

	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return nil, InvalidInputf("description must not be empty")
		}
		expense.Description = *in.Description
	}
	if in.TotalAmount != nil {
		if !in.TotalAmount.IsPositive() {
			return nil, InvalidInputf("total amount must be positive")
		}
		expense.TotalAmount = money.Round(*in.TotalAmount)
	}
	if in.Currency != nil {
		if strings.TrimSpace(*in.Currency) == "" {
			return nil, InvalidInputf("currency must not be empty")
		}
		expense.Currency = *in.Currency
	}
	if in.ConvertedAmount != nil {
		expense.ConvertedAmount = roundOptional(in.ConvertedAmount)
	}
	if in.Date != nil {
		if in.Date.IsZero() {
			return nil, InvalidInputf("date must be set")
		}
		expense.Date = *in.Date
	}

	if in.Payers != nil {
		payers, err := buildPayers(group, expense.Currency, in.Payers)
		if err != nil {
			return nil, err
		}
		expense.Payers = payers
	} else if err := checkPayerConversions(expense.Currency, group.Currency, expense.Payers); err != nil {
		// A currency patch can strand retained payers without converted
		// amounts; that must fail before any write.
		return nil, err
	}
	if in.Participants != nil {
		participants, err := buildParticipants(group, in.Participants)
		if err != nil {
			return nil, err
		}
		expense.Participants = participants
	}

	balances, err := s.recompute(ctx, group, expense, nil)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateExpense(ctx, expense, balances); err != nil {
		return nil, mapStorageError("persist expense", err)
	}
	metrics.ExpenseMutations.WithLabelValues("update").Inc()

	slog.Info("Expense updated", "expense_id", expense.ID, "group_id", group.ID)

	stored, err := s.store.GetExpense(ctx, expense.ID)
	if err != nil {
		return nil, mapStorageError("reload expense", err)
	}
	return stored, nil
}

// Delete removes an expense and brings the group's balances up to date.
// The expense delete and the balance writes commit in one storage
// transaction.
func (s *ExpenseService) Delete(ctx context.Context, expenseID string) error {
	peek, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return mapStorageError("load expense", err)
	}

	lock := s.locks.get(peek.GroupID)
	lock.Lock()
	defer lock.Unlock()

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return mapStorageError("load expense", err)
	}
	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return mapStorageError("load group", err)
	}

	balances, err := s.recompute(ctx, group, nil, &expense.ID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteExpense(ctx, expense.ID, balances); err != nil {
		return mapStorageError("delete expense", err)
	}
	metrics.ExpenseMutations.WithLabelValues("delete").Inc()

	slog.Info("Expense deleted", "expense_id", expense.ID, "group_id", group.ID)
	return nil
}

// recompute derives the group's balances from the persisted expense set
// with one modification applied in memory: upsert (header by ID, or append
// when new) when changed is non-nil, removal when removedID is non-nil.
func (s *ExpenseService) recompute(ctx context.Context, group *models.Group, changed *models.Expense, removedID *string) (map[string]decimal.Decimal, error) {
	persisted, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, mapStorageError("load expense snapshot", err)
	}

	snapshot := make([]models.Expense, 0, len(persisted)+1)
	replaced := false
	for _, exp := range persisted {
		switch {
		case removedID != nil && exp.ID == *removedID:
			continue
		case changed != nil && changed.ID != "" && exp.ID == changed.ID:
			snapshot = append(snapshot, *changed)
			replaced = true
		default:
			snapshot = append(snapshot, exp)
		}
	}
	if changed != nil && !replaced {
		snapshot = append(snapshot, *changed)
	}

	timer := prometheus.NewTimer(metrics.RecomputeDuration)
	balances, err := ledger.Recompute(group, snapshot)
	timer.ObserveDuration()
	if err != nil {
		if errors.Is(err, money.ErrMissingConvertedAmount) {
			return nil, InvalidInputf("%v", err)
		}
		return nil, PersistenceError("balance recompute failed", err)
	}
	return balances, nil
}

// buildPayers validates payer inputs against group membership and the
// expense currency, returning rounded line items.
func buildPayers(group *models.Group, expenseCurrency string, inputs []PayerInput) ([]models.Payer, error) {
	if len(inputs) == 0 {
		return nil, InvalidInputf("expense must have at least one payer")
	}
	memberSet := memberIDSet(group)
	payers := make([]models.Payer, 0, len(inputs))
	for _, in := range inputs {
		if !memberSet[in.MemberID] {
			return nil, NotFoundf("member not found: %s", in.MemberID)
		}
		if in.Amount.IsNegative() {
			return nil, InvalidInputf("payer amount must not be negative")
		}
		payers = append(payers, models.Payer{
			MemberID:        in.MemberID,
			Amount:          money.Round(in.Amount),
			ConvertedAmount: roundOptional(in.ConvertedAmount),
		})
	}
	if err := checkPayerConversions(expenseCurrency, group.Currency, payers); err != nil {
		return nil, err
	}
	return payers, nil
}

// checkPayerConversions rejects cross-currency payers that lack a
// converted amount. Defaulting them to zero would quietly unbalance the
// group.
func checkPayerConversions(expenseCurrency, groupCurrency string, payers []models.Payer) error {
	if expenseCurrency == groupCurrency {
		return nil
	}
	for _, p := range payers {
		if p.ConvertedAmount == nil {
			return InvalidInputf("payer %s: %v", p.MemberID, money.ErrMissingConvertedAmount)
		}
	}
	return nil
}

// buildParticipants validates participant inputs against group membership,
// returning rounded line items. Shares are always in the group currency.
func buildParticipants(group *models.Group, inputs []ParticipantInput) ([]models.Participant, error) {
	if len(inputs) == 0 {
		return nil, InvalidInputf("expense must have at least one participant")
	}
	memberSet := memberIDSet(group)
	participants := make([]models.Participant, 0, len(inputs))
	for _, in := range inputs {
		if !memberSet[in.MemberID] {
			return nil, NotFoundf("member not found: %s", in.MemberID)
		}
		if in.Share.IsNegative() {
			return nil, InvalidInputf("participant share must not be negative")
		}
		participants = append(participants, models.Participant{
			MemberID: in.MemberID,
			Share:    money.Round(in.Share),
		})
	}
	return participants, nil
}

func memberIDSet(group *models.Group) map[string]bool {
	set := make(map[string]bool, len(group.Members))
	for _, m := range group.Members {
		set[m.ID] = true
	}
	return set
}

func roundOptional(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := money.Round(*d)
	return &r
}

// mapStorageError converts store failures into the service taxonomy.
func mapStorageError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: err.Error()}
	}
	return PersistenceError("failed to "+op, err)
}
