package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents one recorded shared cost within a group.
// An expense always has at least one payer and at least one participant.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is a free-text label for the expense (e.g., "Dinner").
	Description string

	// TotalAmount is the expense total in Currency.
	TotalAmount decimal.Decimal

	// Currency is the currency code the expense was paid in. It may differ
	// from the group's home currency.
	Currency string

	// ConvertedAmount is the expense total expressed in the group's home
	// currency. Nil when the expense currency matches the group currency.
	ConvertedAmount *decimal.Decimal

	// Date is the day the expense occurred.
	Date time.Time

	// Payers is who paid toward the total, in the expense currency.
	Payers []Payer

	// Participants is who owes a share, always in the group currency.
	Participants []Participant

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Payer represents one member's payment toward an expense's total.
type Payer struct {
	// ID is the unique identifier for the payer row (UUID format).
	ID string

	// ExpenseID is the expense this payment belongs to.
	ExpenseID string

	// MemberID is the member who paid.
	MemberID string

	// Amount is what the member paid, in the expense's currency.
	Amount decimal.Decimal

	// ConvertedAmount is the payment expressed in the group's home
	// currency. Required when the expense currency differs from the group
	// currency; nil otherwise.
	ConvertedAmount *decimal.Decimal
}

// Participant represents one member's owed share of an expense.
// Shares are always recorded in the group's home currency, even when the
// expense itself was paid in a different currency.
type Participant struct {
	// ID is the unique identifier for the participant row (UUID format).
	ID string

	// ExpenseID is the expense this share belongs to.
	ExpenseID string

	// MemberID is the member who owes the share.
	MemberID string

	// Share is what the member owes, in the group's home currency.
	Share decimal.Decimal
}
