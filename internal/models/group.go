package models

import "github.com/shopspring/decimal"

// Group represents a set of people sharing expenses.
// A group owns its members and expenses: deleting the group deletes both.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Lisbon Trip").
	Name string

	// Currency is the group's home currency code (e.g., "USD").
	// Member balances and participant shares are always expressed in it.
	Currency string

	// Members is the list of people in this group.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member represents a person tracked within a group.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// GroupID is the group this member belongs to.
	GroupID string

	// Name is the display name of the member.
	Name string

	// Balance is the member's net position in the group's home currency.
	// Positive means the group owes this member, negative means the member
	// owes the group. It is derived state: always the output of a full
	// ledger recompute, never edited directly.
	Balance decimal.Decimal

	// CreatedAt is the Unix timestamp when the member was added.
	CreatedAt int64
}
