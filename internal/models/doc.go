// Package models defines the core domain models for the group ledger.
//
// # Models
//
//   - Group: the unit of shared accounting; owns members and a home currency
//   - Member: a person tracked within a group, holding a derived net balance
//   - Expense: one recorded shared cost with its payers and participants
//   - Payer: a member's payment toward an expense's total
//   - Participant: a member's owed share of an expense's total
//
// # Design Principles
//
// 1. **Decimal money**: all monetary fields are shopspring decimals; float64
// is never used for amounts that get persisted.
// 2. **Derived balance**: Member.Balance is a cache of the ledger recompute.
// Nothing outside the expense service writes it.
// 3. **Avoid circular references**: relationships use ID strings instead of
// back-pointers.
package models
