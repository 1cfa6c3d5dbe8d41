// Package ledger derives member balances from a group's expense history.
//
// Recompute is the single source of truth for balances. There is
// deliberately no incremental "revert the old expense, apply the new one"
// path: every mutation recomputes the whole group from scratch, so the two
// code paths cannot drift apart. Groups are small (tens to low hundreds of
// expenses), so the O(expenses x line items) fold is cheap.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/groupledger/groupledger/internal/models"
	"github.com/groupledger/groupledger/internal/money"
)

// Recompute folds a group's full expense history into a fresh balance for
// every member, keyed by member ID.
//
// The function is pure: it reads only its arguments, has no side effects,
// and returns bit-identical output for unchanged input. Persisting the
// result is the caller's job.
//
// Algorithm:
//  1. Every member starts at zero.
//  2. Each payment adds its home-currency value (converted amount when the
//     expense currency differs from the group currency, raw amount
//     otherwise) to the payer's balance.
//  3. Each participant share is subtracted from the owing member's balance.
//     Shares are already in the group currency.
//  4. Balances are rounded to two places, half away from zero, at the end.
//
// A line item referencing a member outside the group means the snapshot is
// corrupt and is reported as an error.
func Recompute(group *models.Group, expenses []models.Expense) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal, len(group.Members))
	for _, m := range group.Members {
		balances[m.ID] = decimal.Zero
	}

	for i := range expenses {
		exp := &expenses[i]
		for _, p := range exp.Payers {
			current, ok := balances[p.MemberID]
			if !ok {
				return nil, fmt.Errorf("expense %s: payer references member %s outside group %s", exp.ID, p.MemberID, group.ID)
			}
			paid, err := money.ResolveContribution(exp.Currency, group.Currency, p.Amount, p.ConvertedAmount)
			if err != nil {
				return nil, fmt.Errorf("expense %s: %w", exp.ID, err)
			}
			balances[p.MemberID] = current.Add(paid)
		}
		for _, pt := range exp.Participants {
			current, ok := balances[pt.MemberID]
			if !ok {
				return nil, fmt.Errorf("expense %s: participant references member %s outside group %s", exp.ID, pt.MemberID, group.ID)
			}
			balances[pt.MemberID] = current.Sub(pt.Share)
		}
	}

	for id, b := range balances {
		balances[id] = money.Round(b)
	}
	return balances, nil
}
