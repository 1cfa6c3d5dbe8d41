// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/groupledger/groupledger/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
// Implementations wrap it with the missing ID so callers can use errors.Is.
var ErrNotFound = errors.New("not found")

// Store defines the interface for group ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Expense mutations carry the recomputed balance set for the owning group
// and must apply line-item writes and balance writes in a single
// transaction: either the expense change and the new balances are both
// visible, or neither is.
type Store interface {
	// CreateGroup persists a new group together with its initial members.
	// IDs and CreatedAt fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with all its members.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups with their members.
	ListGroups(ctx context.Context) ([]models.Group, error)

	// DeleteGroup removes a group, its members, and all its expenses.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember persists a new member with a zero balance.
	AddMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves a single member.
	GetMember(ctx context.Context, memberID string) (*models.Member, error)

	// GetExpense retrieves an expense with its payers and participants.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup retrieves a group's expenses, newest date first,
	// each with its payers and participants.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)

	// CreateExpense inserts the expense with its line items and applies the
	// given member balances, all in one transaction.
	CreateExpense(ctx context.Context, expense *models.Expense, balances map[string]decimal.Decimal) error

	// UpdateExpense rewrites the expense header, replaces its line items
	// wholesale, and applies the given member balances, all in one
	// transaction.
	UpdateExpense(ctx context.Context, expense *models.Expense, balances map[string]decimal.Decimal) error

	// DeleteExpense removes the expense with its line items and applies the
	// given member balances, all in one transaction.
	DeleteExpense(ctx context.Context, expenseID string, balances map[string]decimal.Decimal) error

	// Close releases any resources held by the store.
	Close() error
}
